// Package extract turns one uploaded document into a PageArtifact: the fixed
// illustration region cut out of its first page. Two extractors implement
// the same interface. The raster one renders the page to pixels and crops;
// the vector one restricts the page's visible box in PDF user space without
// touching pixel data.
package extract

import (
	"fmt"
	"image"

	"illustration-grid/backend/geom"
)

// DecodeError reports that an input document could not be decoded,
// rasterized or cropped. The batch aborts on the first one; grid position is
// order-dependent, so skipping an input would shift every later cell.
type DecodeError struct {
	Name string // input name as supplied by the client
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot process %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EmptyDocumentError reports a document with no pages at all.
type EmptyDocumentError struct {
	Name string
}

func (e *EmptyDocumentError) Error() string {
	return fmt.Sprintf("%s has no pages", e.Name)
}

// Kind tags which strategy produced an artifact.
type Kind int

const (
	Raster Kind = iota
	Vector
)

// Artifact is the extracted illustration for one input document. Raster
// artifacts carry pixels and pixel dimensions; vector artifacts carry a
// normalized single-page PDF segment and point dimensions. Downstream code
// must consult Conv rather than assume an origin convention.
type Artifact struct {
	Kind   Kind
	Conv   geom.Convention
	Width  float64 // pixels for raster, points for vector
	Height float64

	Image   *image.RGBA // raster only
	Segment []byte      // vector only: one page with media box (0,0,Width,Height)
}

// AspectRatio returns width over height, or zero for degenerate geometry.
// The layout planner is the one that rejects degenerate artifacts.
func (a *Artifact) AspectRatio() float64 {
	if a.Height <= 0 {
		return 0
	}
	return a.Width / a.Height
}
