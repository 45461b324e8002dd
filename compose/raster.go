package compose

import (
	"bytes"
	"fmt"
	"image"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"illustration-grid/backend/layout"
)

// RasterComposer draws each cropped image as a flate-compressed RGB image
// XObject at its fitted placement on a fresh single page. Everything stays
// in memory; there is no temporary state to clean up on failure paths.
type RasterComposer struct{}

func (RasterComposer) Compose(spec layout.CanvasSpec, items []Item) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := newCanvasContext(spec.Width, spec.Height, conf)
	if err != nil {
		return nil, &ComposeError{Err: err}
	}

	pageDict, _, _, err := ctx.PageDict(1, false)
	if err != nil {
		return nil, &ComposeError{Err: err}
	}

	xObjects := types.Dict{}
	var content bytes.Buffer
	for i, it := range items {
		ref, err := imageXObject(ctx, it.Artifact.Image)
		if err != nil {
			return nil, &ComposeError{Err: err}
		}
		name := fmt.Sprintf("Im%d", i)
		xObjects[name] = *ref

		// The unit image square is mapped onto the placement rectangle.
		p := it.Placement
		fmt.Fprintf(&content, "q %.5f 0 0 %.5f %.5f %.5f cm /%s Do Q ", p.Width, p.Height, p.X, p.Y, name)
	}

	pageDict["Resources"] = types.Dict{"XObject": xObjects}

	sd, _ := ctx.NewStreamDictForBuf(content.Bytes())
	if err := sd.Encode(); err != nil {
		return nil, &ComposeError{Err: err}
	}
	ref, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, &ComposeError{Err: err}
	}
	pageDict["Contents"] = *ref

	var out bytes.Buffer
	if err := pdfapi.WriteContext(ctx, &out); err != nil {
		return nil, &ComposeError{Err: err}
	}
	return out.Bytes(), nil
}

// imageXObject flattens img to 8-bit RGB samples and registers them as an
// image XObject in ctx. Alpha is dropped; scanned worksheet pages are
// opaque.
func imageXObject(ctx *model.Context, img *image.RGBA) (*types.IndirectRef, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	samples := make([]byte, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			o := img.PixOffset(x, y)
			samples = append(samples, img.Pix[o], img.Pix[o+1], img.Pix[o+2])
		}
	}

	sd, _ := ctx.NewStreamDictForBuf(samples)
	sd.InsertName("Type", "XObject")
	sd.InsertName("Subtype", "Image")
	sd.InsertInt("Width", w)
	sd.InsertInt("Height", h)
	sd.InsertName("ColorSpace", "DeviceRGB")
	sd.InsertInt("BitsPerComponent", 8)
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return ctx.IndRefForNewObject(*sd)
}
