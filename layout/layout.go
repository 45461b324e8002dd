// Package layout computes the output page geometry: the grid cell for each
// input index and the placement of an artifact inside its cell.
package layout

import (
	"fmt"
	"math"

	"illustration-grid/backend/geom"
)

// InvalidArtifactError reports an artifact whose geometry cannot be laid
// out, such as a zero-height image.
type InvalidArtifactError struct {
	Reason string
}

func (e *InvalidArtifactError) Error() string {
	return "invalid artifact: " + e.Reason
}

// CanvasSpec fixes the output page geometry for a deployment: page size in
// points, grid shape, and the outer margins the grid sits inside.
type CanvasSpec struct {
	Width, Height float64 // points
	Cols, Rows    int

	MarginLeft, MarginRight float64
	MarginTop, MarginBottom float64
}

func (s CanvasSpec) AvailableWidth() float64 {
	return s.Width - s.MarginLeft - s.MarginRight
}

func (s CanvasSpec) AvailableHeight() float64 {
	return s.Height - s.MarginTop - s.MarginBottom
}

func (s CanvasSpec) CellWidth() float64 {
	return s.AvailableWidth() / float64(s.Cols)
}

func (s CanvasSpec) CellHeight() float64 {
	return s.AvailableHeight() / float64(s.Rows)
}

// Capacity is the number of grid slots. Artifacts beyond it are dropped by
// the caller, not an error.
func (s CanvasSpec) Capacity() int {
	return s.Cols * s.Rows
}

// CellRect returns the rectangle of the grid cell for the idx-th artifact in
// input order, in the canvas's bottom-left-up point space. Cells fill the
// grid row-major starting at the top-left of the page.
func (s CanvasSpec) CellRect(idx int) geom.Rect {
	row := idx / s.Cols
	col := idx % s.Cols
	cw := s.CellWidth()
	ch := s.CellHeight()
	x := s.MarginLeft + float64(col)*cw
	y := s.Height - s.MarginTop - float64(row+1)*ch
	return geom.Rect{Conv: geom.BottomLeftUp, X0: x, Y0: y, X1: x + cw, Y1: y + ch}
}

// Placement is the final rectangle an artifact is drawn at, a sub-rectangle
// of its cell in canvas point space.
type Placement struct {
	X, Y          float64
	Width, Height float64
}

// FitAndCenter scales an artifact of the given dimensions to fit inside the
// cell, preserving aspect ratio, applies the calibration multiplier and
// centers the result in the cell on both axes. Before calibration the fitted
// size never exceeds the cell; scaleFix may push it slightly past the cell
// edge, which is the point of the knob. A scaleFix of zero means no
// calibration.
func FitAndCenter(cell geom.Rect, artW, artH, scaleFix float64) (Placement, error) {
	if artW <= 0 || artH <= 0 {
		return Placement{}, &InvalidArtifactError{Reason: fmt.Sprintf("degenerate dimensions %gx%g", artW, artH)}
	}
	if scaleFix <= 0 {
		scaleFix = 1
	}

	aspect := artW / artH
	cw := cell.Width()
	ch := cell.Height()

	var dw, dh float64
	if aspect > 1 { // wider than tall
		dw = math.Min(cw, ch*aspect)
		dh = dw / aspect
	} else {
		dh = math.Min(ch, cw/aspect)
		dw = dh * aspect
	}

	dw *= scaleFix
	dh *= scaleFix

	return Placement{
		X:      cell.X0 + (cw-dw)/2,
		Y:      cell.Y0 + (ch-dh)/2,
		Width:  dw,
		Height: dh,
	}, nil
}

// CenterOnly centers an artifact in its cell at its natural size. The vector
// composer places crops translate-only, so no scaling happens even when the
// artifact is larger than the cell.
func CenterOnly(cell geom.Rect, artW, artH float64) (Placement, error) {
	if artW <= 0 || artH <= 0 {
		return Placement{}, &InvalidArtifactError{Reason: fmt.Sprintf("degenerate dimensions %gx%g", artW, artH)}
	}
	return Placement{
		X:      cell.X0 + (cell.Width()-artW)/2,
		Y:      cell.Y0 + (cell.Height()-artH)/2,
		Width:  artW,
		Height: artH,
	}, nil
}
