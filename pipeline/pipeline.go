// Package pipeline wires extraction, layout and composition into the
// request-scoped batch flow: validate the uploads, crop every document's
// illustration, plan the grid, compose the output PDF.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"illustration-grid/backend/compose"
	"illustration-grid/backend/extract"
	"illustration-grid/backend/layout"
)

// ValidationError reports bad request input. No decode work happens after
// one is raised.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Document is one uploaded input: the client-supplied name plus raw bytes.
type Document struct {
	Name string
	Data []byte
}

type extractor interface {
	Extract(name string, doc []byte) (*extract.Artifact, error)
}

type composer interface {
	Compose(spec layout.CanvasSpec, items []compose.Item) ([]byte, error)
}

// Pipeline processes one batch of documents into the grid PDF. A Pipeline is
// safe for concurrent use; all per-request state lives inside Process.
type Pipeline struct {
	cfg      Config
	extract  extractor
	composer composer
}

// New builds a pipeline for the configured strategy.
func New(cfg Config) *Pipeline {
	p := &Pipeline{cfg: cfg}
	switch cfg.Strategy {
	case StrategyVector:
		p.extract = &extract.VectorExtractor{Crop: cfg.Crop}
		p.composer = compose.VectorComposer{}
	default:
		p.extract = &extract.RasterExtractor{Crop: cfg.Crop, DPI: cfg.DPI}
		p.composer = compose.RasterComposer{}
	}
	return p
}

// Process runs the full batch. Any single document's failure aborts the
// whole batch: a partial grid would silently shift every crop after the
// missing one, so partial success is not supported.
func (p *Pipeline) Process(ctx context.Context, docs []Document) ([]byte, error) {
	if len(docs) == 0 {
		return nil, &ValidationError{Reason: "no files provided"}
	}
	if len(docs) > p.cfg.MaxDocuments {
		return nil, &ValidationError{Reason: fmt.Sprintf("maximum %d files allowed", p.cfg.MaxDocuments)}
	}

	artifacts, err := p.extractAll(ctx, docs)
	if err != nil {
		return nil, err
	}

	items, err := p.plan(artifacts)
	if err != nil {
		return nil, err
	}

	out, err := p.composer.Compose(p.cfg.Canvas, items)
	if err != nil {
		return nil, err
	}
	log.Printf("composed %d crops into %d output bytes", len(items), len(out))
	return out, nil
}

// extractAll crops every document concurrently and returns the artifacts in
// input order. Grid position depends on that order, so results are stored by
// index, never by completion.
func (p *Pipeline) extractAll(ctx context.Context, docs []Document) ([]*extract.Artifact, error) {
	artifacts := make([]*extract.Artifact, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxDocuments)
	for i, doc := range docs {
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(gctx, p.cfg.DecodeTimeout)
			defer cancel()

			a, err := p.extractOne(dctx, doc)
			if err != nil {
				return err
			}
			artifacts[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// extractOne runs one decode under its own deadline. MuPDF and pdfcpu calls
// cannot be interrupted midway, so the decode runs on its own goroutine and
// the result is abandoned when the deadline or a cancellation fires first.
func (p *Pipeline) extractOne(ctx context.Context, doc Document) (*extract.Artifact, error) {
	type result struct {
		artifact *extract.Artifact
		err      error
	}
	ch := make(chan result, 1)
	go func() {
		a, err := p.extract.Extract(doc.Name, doc.Data)
		ch <- result{a, err}
	}()

	select {
	case r := <-ch:
		return r.artifact, r.err
	case <-ctx.Done():
		return nil, &extract.DecodeError{Name: doc.Name, Err: ctx.Err()}
	}
}

// plan truncates to grid capacity and computes one placement per artifact.
// Raster crops are scaled to fit their cell; vector crops keep their natural
// size and are only centered.
func (p *Pipeline) plan(artifacts []*extract.Artifact) ([]compose.Item, error) {
	if capacity := p.cfg.Canvas.Capacity(); len(artifacts) > capacity {
		log.Printf("dropping %d crops beyond grid capacity %d", len(artifacts)-capacity, capacity)
		artifacts = artifacts[:capacity]
	}

	items := make([]compose.Item, 0, len(artifacts))
	for idx, a := range artifacts {
		cell := p.cfg.Canvas.CellRect(idx)

		var (
			pl  layout.Placement
			err error
		)
		if a.Kind == extract.Vector {
			pl, err = layout.CenterOnly(cell, a.Width, a.Height)
		} else {
			pl, err = layout.FitAndCenter(cell, a.Width, a.Height, p.cfg.ScaleFix)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, compose.Item{Artifact: a, Placement: pl})
	}
	return items, nil
}
