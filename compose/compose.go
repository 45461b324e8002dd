// Package compose assembles the extracted crops into the single-page output
// document. Both composers build the page content stream by hand inside a
// pdfcpu context; they differ in how a crop becomes a drawable resource
// (image XObject vs form XObject).
package compose

import (
	"bytes"
	"fmt"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"illustration-grid/backend/extract"
	"illustration-grid/backend/layout"
)

// ComposeError reports a failure while assembling or serializing the output
// document.
type ComposeError struct {
	Err error
}

func (e *ComposeError) Error() string {
	return "compose output: " + e.Err.Error()
}

func (e *ComposeError) Unwrap() error { return e.Err }

// Item pairs one extracted artifact with its planned placement on the
// canvas. Items arrive already truncated to grid capacity and in input
// order; the first item is drawn first.
type Item struct {
	Artifact  *extract.Artifact
	Placement layout.Placement
}

// blankPage emits a minimal well-formed PDF with one empty page of the given
// size in points. pdfcpu's page creation entry points are JSON-driven and
// geared to form generation; for a bare canvas it is simpler to write the
// three objects directly and let ReadValidateAndOptimize lift them into a
// context.
func blankPage(w, h float64) []byte {
	var buf bytes.Buffer
	var offsets []int

	buf.WriteString("%PDF-1.7\n")
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}
	obj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	obj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	obj(fmt.Sprintf("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.2f %.2f] /Resources << >> >>\nendobj\n", w, h))

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset)

	return buf.Bytes()
}

// newCanvasContext builds the empty output page and reads it back through
// pdfcpu so composition works on a fully validated context.
func newCanvasContext(w, h float64, conf *model.Configuration) (*model.Context, error) {
	return pdfapi.ReadValidateAndOptimize(bytes.NewReader(blankPage(w, h)), conf)
}
