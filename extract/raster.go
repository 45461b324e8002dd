package extract

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"

	"illustration-grid/backend/geom"
)

// RasterExtractor renders page 1 with MuPDF at a fixed resolution and cuts
// the crop box out of the pixels.
type RasterExtractor struct {
	Crop geom.Rect // document points, any convention
	DPI  float64
}

// Extract decodes doc and returns the cropped raster artifact. The crop
// rectangle is clamped to the rendered page: a crop measured past the page
// edge yields the overlapping part rather than an error.
func (e *RasterExtractor) Extract(name string, doc []byte) (*Artifact, error) {
	fz, err := fitz.NewFromMemory(doc)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	defer fz.Close()

	if fz.NumPage() == 0 {
		return nil, &EmptyDocumentError{Name: name}
	}

	img, err := fz.ImageDPI(0, e.DPI)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}

	b := img.Bounds()
	win, err := pixelBounds(e.Crop, e.DPI, b.Dx(), b.Dy())
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}

	out := image.NewRGBA(image.Rect(0, 0, win.Dx(), win.Dy()))
	xdraw.Copy(out, image.Point{}, img, win.Add(b.Min), xdraw.Src, nil)

	return &Artifact{
		Kind:   Raster,
		Conv:   geom.TopLeftDown,
		Width:  float64(win.Dx()),
		Height: float64(win.Dy()),
		Image:  out,
	}, nil
}

// pixelBounds converts the crop box into an integer pixel window inside a
// rendered page of imgW x imgH pixels. The crop is measured in points, so it
// is first re-expressed in the raster's top-left-down convention, then
// scaled to pixels, truncated toward zero and clamped to the image. A crop
// lying entirely off the page is an error.
func pixelBounds(crop geom.Rect, dpi float64, imgW, imgH int) (image.Rectangle, error) {
	pageH := geom.ToPoints(float64(imgH), dpi)
	c := crop.Convert(geom.TopLeftDown, pageH).ToPixels(dpi)

	x0 := clampInt(int(c.X0), 0, imgW)
	y0 := clampInt(int(c.Y0), 0, imgH)
	x1 := clampInt(int(c.X1), 0, imgW)
	y1 := clampInt(int(c.Y1), 0, imgH)
	if x1 <= x0 || y1 <= y0 {
		return image.Rectangle{}, fmt.Errorf("crop box lies outside the %dx%d page", imgW, imgH)
	}
	return image.Rect(x0, y0, x1, y1), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
