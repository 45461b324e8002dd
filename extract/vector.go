package extract

import (
	"bytes"
	"errors"
	"fmt"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"illustration-grid/backend/geom"
)

// VectorExtractor restricts page 1's visible box to the crop rectangle
// without rasterizing. The crop happens in PDF user space, so no resolution
// is involved and the artifact keeps exact point dimensions.
type VectorExtractor struct {
	Crop geom.Rect // document points, any convention
}

// Extract parses doc and returns a one-page PDF segment whose media box is
// exactly the crop rectangle, translated to the origin.
func (e *VectorExtractor) Extract(name string, doc []byte) (*Artifact, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(doc), conf)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	if ctx.PageCount == 0 {
		return nil, &EmptyDocumentError{Name: name}
	}

	_, _, inh, err := ctx.PageDict(1, false)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	pageBox := inh.CropBox
	if pageBox == nil {
		pageBox = inh.MediaBox
	}
	if pageBox == nil {
		return nil, &DecodeError{Name: name, Err: errors.New("page 1 has no media box")}
	}

	rect, err := cropRect(pageBox, e.Crop)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}

	seg, err := normalizedSegment(ctx, rect)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}

	return &Artifact{
		Kind:    Vector,
		Conv:    geom.BottomLeftUp,
		Width:   rect.Width(),
		Height:  rect.Height(),
		Segment: seg,
	}, nil
}

// cropRect intersects the configured crop box with the page box. The crop is
// re-expressed in PDF's bottom-left-up convention first, then offset by the
// page box corner: pages may carry a nonzero box origin, so clamping works
// against the box corners, not (0,0).
func cropRect(pageBox *types.Rectangle, crop geom.Rect) (*types.Rectangle, error) {
	c := crop.Convert(geom.BottomLeftUp, pageBox.Height())

	llx := pageBox.LL.X + c.X0
	lly := pageBox.LL.Y + c.Y0
	urx := pageBox.LL.X + c.X1
	ury := pageBox.LL.Y + c.Y1

	if llx < pageBox.LL.X {
		llx = pageBox.LL.X
	}
	if lly < pageBox.LL.Y {
		lly = pageBox.LL.Y
	}
	if urx > pageBox.UR.X {
		urx = pageBox.UR.X
	}
	if ury > pageBox.UR.Y {
		ury = pageBox.UR.Y
	}

	if urx <= llx || ury <= lly {
		return nil, errors.New("crop box lies outside the page")
	}

	return types.NewRectangle(llx, lly, urx, ury), nil
}

// normalizedSegment extracts page 1 into its own context, shrinks the page
// boxes to the crop rectangle and shifts the content so the crop's lower
// left corner lands on the origin. The result is a one-page PDF with media
// box (0,0,w,h) that can be replayed anywhere with a plain translation.
func normalizedSegment(src *model.Context, rect *types.Rectangle) ([]byte, error) {
	page, err := pdfcpu.ExtractPages(src, []int{1}, false)
	if err != nil {
		return nil, err
	}
	if err := page.EnsurePageCount(); err != nil {
		return nil, err
	}

	pageDict, _, inh, err := page.PageDict(1, false)
	if err != nil {
		return nil, err
	}
	if pageDict == nil {
		return nil, errors.New("page 1 missing after extraction")
	}

	box := types.RectForWidthAndHeight(0, 0, rect.Width(), rect.Height())
	pageDict["MediaBox"] = box.Array()
	pageDict["CropBox"] = box.Array()

	// Rotation is baked into the content below. An inherited /Rotate left in
	// place would rotate the crop a second time when the segment is replayed
	// on the output canvas.
	pageDict.Delete("Rotate")

	content, err := page.PageContent(pageDict, 1)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("q ")
	if inh.Rotate != 0 {
		base := inh.MediaBox
		if base == nil {
			base = rect
		}
		buf.Write(model.ContentBytesForPageRotation(inh.Rotate, base.Width(), base.Height()))
	}
	fmt.Fprintf(&buf, "1 0 0 1 %.5f %.5f cm ", -rect.LL.X, -rect.LL.Y)
	buf.Write(content)
	buf.WriteString(" Q ")

	sd, _ := page.NewStreamDictForBuf(buf.Bytes())
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	ref, err := page.IndRefForNewObject(*sd)
	if err != nil {
		return nil, err
	}
	pageDict["Contents"] = *ref

	var out bytes.Buffer
	if err := pdfapi.WriteContext(page, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
