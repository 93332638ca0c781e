package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/logger"
	"github.com/custodia-labs/sercha-research/internal/telemetry"
)

// Ingestor parses sources into plain text concurrently.
type Ingestor struct {
	loader   driven.SourceLoader
	registry driven.NormaliserRegistry
	metrics  *telemetry.Metrics
}

// NewIngestor creates an ingestor.
func NewIngestor(loader driven.SourceLoader, registry driven.NormaliserRegistry) *Ingestor {
	return &Ingestor{
		loader:   loader,
		registry: registry,
		metrics:  telemetry.Default(),
	}
}

// Ingest parses every source that has not already been parsed, one goroutine
// per source, and waits for all of them. A failure marks only that source as
// errored; the joined parse errors are returned for reporting. The input slice
// is not modified.
func (in *Ingestor) Ingest(ctx context.Context, sources []domain.Source) ([]domain.Source, error) {
	out := make([]domain.Source, len(sources))
	copy(out, sources)

	errs := make([]error, len(out))
	var wg sync.WaitGroup

	for i := range out {
		if out[i].Status == domain.SourceStatusComplete {
			logger.Debug("Source %q already parsed (%d bytes)", out[i].Title, len(out[i].Content))
			continue
		}
		out[i].Status = domain.SourceStatusIngesting

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = in.parse(ctx, &out[i])
		}(i)
	}

	wg.Wait()

	var failed []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		pe := &domain.ParseError{SourceID: out[i].ID, Title: out[i].Title, Err: err}
		out[i].Status = domain.SourceStatusError
		out[i].StatusMessage = err.Error()
		in.metrics.RecordParseFailure(ctx, out[i].Type.String())
		logger.Warn("Failed to parse %q: %v", out[i].Title, err)
		failed = append(failed, pe)
	}

	return out, errors.Join(failed...)
}

// parse fills src.Content. It writes only to src.
func (in *Ingestor) parse(ctx context.Context, src *domain.Source) error {
	if in.loader == nil || in.registry == nil {
		return errors.New("ingestion not configured")
	}

	raw, err := in.loader.Load(ctx, *src)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	result, err := in.registry.Normalise(ctx, raw)
	if err != nil {
		return fmt.Errorf("normalise: %w", err)
	}

	src.Content = result.Content
	src.PageOffsets = result.PageOffsets
	if strings.TrimSpace(src.Title) == "" && result.Title != "" {
		src.Title = result.Title
	}
	src.Status = domain.SourceStatusComplete
	src.StatusMessage = ""

	logger.Debug("Parsed %q: %d bytes, %d pages", src.Title, len(src.Content), len(src.PageOffsets))
	return nil
}
