package compose

import (
	"bytes"
	"fmt"
	"io"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"illustration-grid/backend/layout"
)

// VectorComposer replays each normalized crop segment as a form XObject on
// the canvas page. Placement is translate-only: a crop larger than its cell
// sticks out instead of being resampled.
type VectorComposer struct{}

func (VectorComposer) Compose(spec layout.CanvasSpec, items []Item) ([]byte, error) {
	// Merging pulls every segment's objects into one context, so the forms
	// below can reference their resources without cross-document copying.
	// The canvas goes first and stays page 1.
	readers := make([]io.ReadSeeker, 0, len(items)+1)
	readers = append(readers, bytes.NewReader(blankPage(spec.Width, spec.Height)))
	for _, it := range items {
		readers = append(readers, bytes.NewReader(it.Artifact.Segment))
	}

	var merged bytes.Buffer
	mergeConf := model.NewDefaultConfiguration()
	if err := pdfapi.MergeRaw(readers, &merged, false, mergeConf); err != nil {
		return nil, &ComposeError{Err: err}
	}

	conf := model.NewDefaultConfiguration()
	ctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(merged.Bytes()), conf)
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
		srcDict, _, srcInh, err := ctx.PageDict(i+2, false)
		if err != nil {
			return nil, &ComposeError{Err: err}
		}
		raw, err := ctx.PageContent(srcDict, i+2)
		if err != nil {
			return nil, &ComposeError{Err: err}
		}

		ref, err := formXObject(ctx, raw, srcInh.Resources, it.Artifact.Width, it.Artifact.Height)
		if err != nil {
			return nil, &ComposeError{Err: err}
		}
		name := fmt.Sprintf("Fm%d", i)
		xObjects[name] = *ref

		p := it.Placement
		fmt.Fprintf(&content, "q 1 0 0 1 %.5f %.5f cm /%s Do Q ", p.X, p.Y, name)
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

	var assembled bytes.Buffer
	if err := pdfapi.WriteContext(ctx, &assembled); err != nil {
		return nil, &ComposeError{Err: err}
	}

	// Drop the merged source pages; their content lives on as forms
	// referenced from page 1.
	var out bytes.Buffer
	if err := pdfapi.RemovePages(bytes.NewReader(assembled.Bytes()), &out, []string{"2-"}, model.NewDefaultConfiguration()); err != nil {
		return nil, &ComposeError{Err: err}
	}
	return out.Bytes(), nil
}

// formXObject wraps page content and its resources as a form covering
// (0,0,w,h). Forms carry their own resource dict, which sidesteps resource
// name collisions between segments, and the BBox clips anything outside the
// crop.
func formXObject(ctx *model.Context, content []byte, res types.Dict, w, h float64) (*types.IndirectRef, error) {
	sd, _ := ctx.NewStreamDictForBuf(content)
	sd.InsertName("Type", "XObject")
	sd.InsertName("Subtype", "Form")
	sd.Insert("BBox", types.NewNumberArray(0, 0, w, h))
	if res != nil {
		sd.Insert("Resources", res)
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return ctx.IndRefForNewObject(*sd)
}
