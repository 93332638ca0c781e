package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-research/internal/logger"
	"github.com/custodia-labs/sercha-research/internal/telemetry"
)

// Pipeline drives the research state machine:
// Idle -> Ingesting -> Chunking -> Retrieving -> Synthesizing -> Complete,
// with Errored reachable from every stage.
type Pipeline struct {
	ingestor    *Ingestor
	chunker     driven.Chunker
	retriever   *Retriever
	synthesizer *Synthesizer
	grounder    *Grounder
	tracer      trace.Tracer
	metrics     *telemetry.Metrics
}

// NewPipeline creates a pipeline. grounder may be nil to skip verification.
func NewPipeline(
	ingestor *Ingestor,
	chunker driven.Chunker,
	retriever *Retriever,
	synthesizer *Synthesizer,
	grounder *Grounder,
) *Pipeline {
	return &Pipeline{
		ingestor:    ingestor,
		chunker:     chunker,
		retriever:   retriever,
		synthesizer: synthesizer,
		grounder:    grounder,
		tracer:      telemetry.Tracer(),
		metrics:     telemetry.Default(),
	}
}

// SetTracer overrides the tracer used for stage spans.
func (p *Pipeline) SetTracer(t trace.Tracer) {
	if t != nil {
		p.tracer = t
	}
}

// Run executes the pipeline on pc and returns the resulting context.
// The returned State is Complete with Output set, or Errored with Err set.
func (p *Pipeline) Run(ctx context.Context, pc domain.PipelineContext, progress driving.ProgressFunc) domain.PipelineContext {
	ctx, span := p.tracer.Start(ctx, "research.run", trace.WithAttributes(
		attribute.String("session.id", pc.SessionID),
		attribute.Int("sources", len(pc.Sources)),
	))
	defer span.End()

	pc.State = domain.PipelineStateIdle
	pc.Err = nil
	pc.Output = nil

	stages := []struct {
		state domain.PipelineState
		run   func(context.Context, domain.PipelineContext) domain.PipelineContext
	}{
		{domain.PipelineStateIngesting, p.ingest},
		{domain.PipelineStateChunking, p.chunk},
		{domain.PipelineStateRetrieving, p.retrieve},
		{domain.PipelineStateSynthesizing, p.synthesize},
	}

	for _, stage := range stages {
		pc = p.transition(pc, stage.state, progress)
		pc = p.runStage(ctx, stage.state, pc, stage.run)
		if pc.State == domain.PipelineStateErrored {
			notify(progress, pc.State)
			span.RecordError(pc.Err)
			span.SetStatus(codes.Error, pc.Err.Error())
			logger.Warn("Research run failed: %v", pc.Err)
			return pc
		}
	}

	pc = p.transition(pc, domain.PipelineStateComplete, progress)
	span.SetStatus(codes.Ok, "")
	return pc
}

func (p *Pipeline) transition(pc domain.PipelineContext, next domain.PipelineState, progress driving.ProgressFunc) domain.PipelineContext {
	if !pc.State.CanTransition(next) {
		logger.Warn("Unexpected transition %s -> %s", pc.State, next)
	}
	logger.Section(stageTitle(next))
	pc.State = next
	notify(progress, next)
	return pc
}

func (p *Pipeline) runStage(
	ctx context.Context,
	state domain.PipelineState,
	pc domain.PipelineContext,
	run func(context.Context, domain.PipelineContext) domain.PipelineContext,
) domain.PipelineContext {
	ctx, span := p.tracer.Start(ctx, "research."+state.String())
	defer span.End()

	start := time.Now()
	if err := ctx.Err(); err != nil {
		pc = pc.Fail(err)
	} else {
		pc = run(ctx, pc)
	}
	if pc.State == domain.PipelineStateErrored {
		span.RecordError(pc.Err)
		span.SetStatus(codes.Error, pc.Err.Error())
	}
	p.metrics.RecordStage(ctx, state.String(), time.Since(start).Seconds())
	return pc
}

func (p *Pipeline) ingest(ctx context.Context, pc domain.PipelineContext) domain.PipelineContext {
	sources, parseErr := p.ingestor.Ingest(ctx, pc.Sources)
	pc.Sources = sources

	usable := pc.UsableSources()
	logger.Info("Ingested %d/%d sources", len(usable), len(sources))
	if len(usable) == 0 {
		if parseErr != nil {
			logger.Debug("Parse failures: %v", parseErr)
		}
		return pc.Fail(domain.ErrNoUsableSources)
	}
	return pc
}

func (p *Pipeline) chunk(_ context.Context, pc domain.PipelineContext) domain.PipelineContext {
	pc.Chunks = p.chunker.Chunk(pc.UsableSources())
	logger.Info("Produced %d chunks", len(pc.Chunks))
	if len(pc.Chunks) == 0 {
		return pc.Fail(domain.ErrNoChunks)
	}
	return pc
}

func (p *Pipeline) retrieve(ctx context.Context, pc domain.PipelineContext) domain.PipelineContext {
	r := p.retriever.Retrieve(ctx, pc.Topic, pc.Chunks)
	pc.Selected = r.Chunks
	pc.Fallback = r.Fallback
	if r.Fallback {
		logger.Info("Retrieval fallback (%s): using %d chunks", r.Reason, len(r.Chunks))
	}
	return pc
}

func (p *Pipeline) synthesize(ctx context.Context, pc domain.PipelineContext) domain.PipelineContext {
	out, err := p.synthesizer.Synthesize(ctx, pc.Topic, pc.Selected)
	if err != nil {
		return pc.Fail(err)
	}
	if p.grounder != nil {
		p.grounder.Apply(ctx, out)
	}
	pc.Output = out
	return pc
}

func notify(progress driving.ProgressFunc, state domain.PipelineState) {
	if progress != nil {
		progress(state)
	}
}

func stageTitle(state domain.PipelineState) string {
	switch state {
	case domain.PipelineStateIngesting:
		return "Ingesting"
	case domain.PipelineStateChunking:
		return "Chunking"
	case domain.PipelineStateRetrieving:
		return "Retrieving"
	case domain.PipelineStateSynthesizing:
		return "Synthesizing"
	case domain.PipelineStateComplete:
		return "Complete"
	default:
		return state.String()
	}
}
