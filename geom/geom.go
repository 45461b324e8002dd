// Package geom holds the unit conversion and rectangle types shared by the
// extraction and layout stages. Document point space is fixed at 72 points
// per inch regardless of rasterization resolution.
package geom

import "fmt"

// PointsPerInch is the resolution of document point space.
const PointsPerInch = 72.0

// ToPixels converts a length in document points to pixels at the given
// rasterization resolution.
func ToPixels(pt, dpi float64) float64 {
	return pt * dpi / PointsPerInch
}

// ToPoints is the inverse of ToPixels.
func ToPoints(px, dpi float64) float64 {
	return px * PointsPerInch / dpi
}

// Convention names the origin convention a rectangle's coordinates are
// expressed in. Raster space puts the origin at the top-left corner with y
// growing downward; PDF user space puts it at the bottom-left with y growing
// upward. Mixing the two silently is the classic defect in this kind of
// code, so every Rect carries its convention and conversion is explicit.
type Convention int

const (
	TopLeftDown Convention = iota
	BottomLeftUp
)

func (c Convention) String() string {
	switch c {
	case TopLeftDown:
		return "top-left-down"
	case BottomLeftUp:
		return "bottom-left-up"
	default:
		return fmt.Sprintf("Convention(%d)", int(c))
	}
}

// Rect is an axis-aligned rectangle tagged with its origin convention.
// Invariant: X1 > X0 and Y1 > Y0 regardless of convention.
type Rect struct {
	Conv           Convention
	X0, Y0, X1, Y1 float64
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Valid reports whether the rectangle has positive extent on both axes.
func (r Rect) Valid() bool {
	return r.X1 > r.X0 && r.Y1 > r.Y0
}

// Convert re-expresses r in the target convention for a page of the given
// height, in the same unit as the coordinates. Converting to the convention
// the rectangle already carries is the identity.
func (r Rect) Convert(to Convention, pageHeight float64) Rect {
	if r.Conv == to {
		return r
	}
	// Flipping the y axis swaps which edge is Y0 and which is Y1.
	return Rect{
		Conv: to,
		X0:   r.X0,
		Y0:   pageHeight - r.Y1,
		X1:   r.X1,
		Y1:   pageHeight - r.Y0,
	}
}

// ToPixels scales all four components from points to pixels at dpi. The
// convention tag is preserved; convert conventions first.
func (r Rect) ToPixels(dpi float64) Rect {
	return Rect{
		Conv: r.Conv,
		X0:   ToPixels(r.X0, dpi),
		Y0:   ToPixels(r.Y0, dpi),
		X1:   ToPixels(r.X1, dpi),
		Y1:   ToPixels(r.Y1, dpi),
	}
}
