package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"illustration-grid/backend/compose"
	"illustration-grid/backend/extract"
	"illustration-grid/backend/geom"
	"illustration-grid/backend/layout"
)

type fakeExtractor struct {
	calls atomic.Int64
	delay func(name string) time.Duration
	fail  map[string]error
}

func (f *fakeExtractor) Extract(name string, doc []byte) (*extract.Artifact, error) {
	f.calls.Add(1)
	if f.delay != nil {
		time.Sleep(f.delay(name))
	}
	if err, ok := f.fail[name]; ok {
		return nil, err
	}
	return &extract.Artifact{
		Kind:   extract.Raster,
		Conv:   geom.TopLeftDown,
		Width:  105,
		Height: 287,
	}, nil
}

type fakeComposer struct {
	mu    sync.Mutex
	calls int
	items []compose.Item
	err   error
}

func (f *fakeComposer) Compose(spec layout.CanvasSpec, items []compose.Item) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.items = items
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-fake"), nil
}

func testPipeline(ex extractor, co composer) *Pipeline {
	cfg := DefaultConfig()
	cfg.DecodeTimeout = time.Second
	return &Pipeline{cfg: cfg, extract: ex, composer: co}
}

func docBatch(n int) []Document {
	docs := make([]Document, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, Document{Name: fmt.Sprintf("doc-%d.pdf", i), Data: []byte("stub")})
	}
	return docs
}

func TestProcessRejectsEmptyBatch(t *testing.T) {
	ex := &fakeExtractor{}
	co := &fakeComposer{}
	p := testPipeline(ex, co)

	_, err := p.Process(context.Background(), nil)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if ex.calls.Load() != 0 {
		t.Error("decode attempted before validation passed")
	}
	if co.calls != 0 {
		t.Error("compose attempted after validation failure")
	}
}

func TestProcessRejectsOversizedBatch(t *testing.T) {
	ex := &fakeExtractor{}
	p := testPipeline(ex, &fakeComposer{})

	_, err := p.Process(context.Background(), docBatch(11))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if ex.calls.Load() != 0 {
		t.Error("decode attempted for an oversized batch")
	}
}

// Extraction completes in arbitrary order; placements must follow input
// order regardless.
func TestProcessKeepsInputOrder(t *testing.T) {
	ex := &fakeExtractor{
		delay: func(name string) time.Duration {
			// First documents finish last.
			if name == "doc-0.pdf" {
				return 50 * time.Millisecond
			}
			return 0
		},
	}
	co := &fakeComposer{}
	p := testPipeline(ex, co)

	if _, err := p.Process(context.Background(), docBatch(4)); err != nil {
		t.Fatal(err)
	}
	if len(co.items) != 4 {
		t.Fatalf("composed %d items, want 4", len(co.items))
	}

	// Cell origins must march left to right along the top row.
	for i := 1; i < len(co.items); i++ {
		if co.items[i].Placement.X <= co.items[i-1].Placement.X {
			t.Errorf("placement %d not right of placement %d: %g <= %g",
				i, i-1, co.items[i].Placement.X, co.items[i-1].Placement.X)
		}
	}
}

func TestProcessAbortsBatchOnDecodeFailure(t *testing.T) {
	cause := &extract.DecodeError{Name: "doc-2.pdf", Err: errors.New("corrupt")}
	ex := &fakeExtractor{fail: map[string]error{"doc-2.pdf": cause}}
	co := &fakeComposer{}
	p := testPipeline(ex, co)

	_, err := p.Process(context.Background(), docBatch(5))
	var decode *extract.DecodeError
	if !errors.As(err, &decode) {
		t.Fatalf("got %v, want DecodeError", err)
	}
	if decode.Name != "doc-2.pdf" {
		t.Errorf("error names %q, want doc-2.pdf", decode.Name)
	}
	if co.calls != 0 {
		t.Error("partial grid composed despite decode failure")
	}
}

func TestProcessTruncatesBeyondCapacity(t *testing.T) {
	co := &fakeComposer{}
	p := testPipeline(&fakeExtractor{}, co)
	p.cfg.MaxDocuments = 20 // capacity stays 10

	if _, err := p.Process(context.Background(), docBatch(13)); err != nil {
		t.Fatal(err)
	}
	if len(co.items) != p.cfg.Canvas.Capacity() {
		t.Errorf("composed %d items, want %d", len(co.items), p.cfg.Canvas.Capacity())
	}
}

func TestProcessSingleDocumentLandsInFirstCell(t *testing.T) {
	co := &fakeComposer{}
	p := testPipeline(&fakeExtractor{}, co)

	if _, err := p.Process(context.Background(), docBatch(1)); err != nil {
		t.Fatal(err)
	}
	if len(co.items) != 1 {
		t.Fatalf("composed %d items, want 1", len(co.items))
	}

	cell := p.cfg.Canvas.CellRect(0)
	pl := co.items[0].Placement
	if pl.X < cell.X0-cell.Width() || pl.X > cell.X1 {
		t.Errorf("placement x=%g outside first cell [%g, %g]", pl.X, cell.X0, cell.X1)
	}
}

func TestProcessDecodeTimeout(t *testing.T) {
	ex := &fakeExtractor{
		delay: func(string) time.Duration { return 200 * time.Millisecond },
	}
	co := &fakeComposer{}
	p := testPipeline(ex, co)
	p.cfg.DecodeTimeout = 20 * time.Millisecond

	_, err := p.Process(context.Background(), docBatch(1))
	var decode *extract.DecodeError
	if !errors.As(err, &decode) {
		t.Fatalf("got %v, want DecodeError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("timeout not surfaced as deadline: %v", err)
	}
	if co.calls != 0 {
		t.Error("compose ran after timeout")
	}
}

func TestProcessCancellation(t *testing.T) {
	ex := &fakeExtractor{
		delay: func(string) time.Duration { return 200 * time.Millisecond },
	}
	p := testPipeline(ex, &fakeComposer{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Process(ctx, docBatch(2))
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancellation not surfaced: %v", err)
	}
}

func TestProcessInvalidArtifact(t *testing.T) {
	ex := &zeroHeightExtractor{}
	co := &fakeComposer{}
	p := testPipeline(ex, co)

	_, err := p.Process(context.Background(), docBatch(1))
	var invalid *layout.InvalidArtifactError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidArtifactError", err)
	}
	if co.calls != 0 {
		t.Error("compose ran despite degenerate artifact")
	}
}

type zeroHeightExtractor struct{}

func (zeroHeightExtractor) Extract(name string, doc []byte) (*extract.Artifact, error) {
	return &extract.Artifact{Kind: extract.Raster, Conv: geom.TopLeftDown, Width: 100, Height: 0}, nil
}

func TestNewSelectsStrategy(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Strategy = StrategyRaster
	if _, ok := New(cfg).extract.(*extract.RasterExtractor); !ok {
		t.Error("raster strategy did not select the raster extractor")
	}

	cfg.Strategy = StrategyVector
	if _, ok := New(cfg).extract.(*extract.VectorExtractor); !ok {
		t.Error("vector strategy did not select the vector extractor")
	}
}
