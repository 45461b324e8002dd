package pipeline

import (
	"time"

	"illustration-grid/backend/geom"
	"illustration-grid/backend/layout"
)

// Strategy selects how regions are extracted and recomposed.
type Strategy string

const (
	// StrategyRaster renders pages to pixels and rebuilds the grid from
	// images, scaling each crop to fit its cell.
	StrategyRaster Strategy = "raster"

	// StrategyVector crops in PDF user space and replays the content
	// translate-only. No resampling, but no scale-to-fit either.
	StrategyVector Strategy = "vector"
)

// Config carries every deployment constant the pipeline needs. It is loaded
// once at startup and passed by value; nothing reads configuration from
// globals.
type Config struct {
	// Crop is the illustration rectangle, pre-measured against the
	// reference layout. Its convention tag declares which corner it was
	// measured from; each strategy converts explicitly to its native space.
	Crop geom.Rect

	Canvas layout.CanvasSpec

	// DPI is the rasterization resolution of the raster strategy.
	DPI float64

	// ScaleFix corrects the systematic size discrepancy between the
	// rasterizer's reported resolution and its actual output, measured
	// against the reference print. 1.0 disables it.
	ScaleFix float64

	Strategy Strategy

	MaxDocuments  int
	DecodeTimeout time.Duration
}

// DefaultConfig mirrors the measured reference layout: US Letter canvas, 5x2
// grid, the illustration box of the source worksheets, and the resolution
// and scale correction calibrated against the original print.
func DefaultConfig() Config {
	return Config{
		Crop: geom.Rect{Conv: geom.BottomLeftUp, X0: 55, Y0: 453, X1: 160, Y1: 740},
		Canvas: layout.CanvasSpec{
			Width:  612,
			Height: 792,
			Cols:   5,
			Rows:   2,

			MarginLeft:   55,
			MarginRight:  55,
			MarginTop:    52,
			MarginBottom: 52,
		},
		DPI:           300,
		ScaleFix:      1.04,
		Strategy:      StrategyRaster,
		MaxDocuments:  10,
		DecodeTimeout: 30 * time.Second,
	}
}
