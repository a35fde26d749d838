package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mohammad-safakhou/pestel/config"
	"github.com/mohammad-safakhou/pestel/internal/llm"
	"github.com/mohammad-safakhou/pestel/internal/search"
	"github.com/mohammad-safakhou/pestel/internal/telemetry"
)

// Graph wires the six dimension pipelines as parallel branches fanning out
// from one entry point and fanning into the final synthesizer.
type Graph struct {
	cfg       *config.Config
	provider  llm.Provider
	searcher  search.Searcher
	telemetry *telemetry.Telemetry
	logger    *log.Logger
	tracer    trace.Tracer
}

// DimensionSearcher is an optional Searcher refinement for sources that hold
// per-dimension content, such as snapshot replay. The graph routes each branch
// through SearcherFor so a dimension only ever sees its own data slice.
type DimensionSearcher interface {
	search.Searcher
	SearcherFor(d Dimension) search.Searcher
}

// Result is the output of one completed run.
type Result struct {
	RunID     string
	Reports   map[string]json.RawMessage
	Data      map[Dimension][]search.ContentItem
	Completed []Dimension
	Duration  time.Duration
}

// NewGraph creates the orchestration graph with injected collaborators.
func NewGraph(cfg *config.Config, provider llm.Provider, searcher search.Searcher, tele *telemetry.Telemetry) *Graph {
	return &Graph{
		cfg:       cfg,
		provider:  provider,
		searcher:  searcher,
		telemetry: tele,
		logger:    log.New(log.Writer(), "[GRAPH] ", log.LstdFlags),
		tracer:    otel.Tracer("pestel/analysis"),
	}
}

// Run executes the full fan-out/fan-in workflow for one form. Any branch
// error cancels the remaining branches and fails the run; partial work is
// never returned as a success. Synthesis only runs once every branch has
// reached a terminal state.
func (g *Graph) Run(ctx context.Context, form *Form) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()

	deadline := g.cfg.General.MaxProcessingTime
	if deadline <= 0 {
		deadline = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ctx, span := g.tracer.Start(ctx, "analysis.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("industry", form.Industry),
		attribute.String("geographical_focus", form.GeographicalFocus),
	))
	defer span.End()

	g.logger.Printf("starting analysis run %s", runID)
	state := NewRunState(form)

	var wg sync.WaitGroup
	errCh := make(chan error, len(Dimensions))
	for _, d := range Dimensions {
		wg.Add(1)
		go func(d Dimension) {
			defer wg.Done()
			branchCtx, branchSpan := g.tracer.Start(ctx, "analysis.branch", trace.WithAttributes(
				attribute.String("dimension", string(d)),
			))
			defer branchSpan.End()

			branchSearcher := g.searcher
			if ds, ok := g.searcher.(DimensionSearcher); ok {
				branchSearcher = ds.SearcherFor(d)
			}
			pipeline := NewPipeline(d, g.provider, branchSearcher, g.cfg.LLM.Routing, g.cfg.Summarize, g.telemetry)
			if err := pipeline.Run(branchCtx, state); err != nil {
				branchSpan.RecordError(err)
				branchSpan.SetStatus(codes.Error, err.Error())
				errCh <- err
				cancel()
				return
			}
			branchSpan.SetAttributes(attribute.String("stage", string(state.Stage(d))))
		}(d)
	}
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.recordRun(false, start)
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	// fan-in: every branch is terminal here, so synthesis sees the full map
	synthCtx, synthSpan := g.tracer.Start(ctx, "analysis.synthesis")
	synthesizer := NewSynthesizer(g.provider, g.cfg.LLM.Routing.Model("synthesis"))
	if _, err := synthesizer.Synthesize(synthCtx, state); err != nil {
		synthSpan.RecordError(err)
		synthSpan.SetStatus(codes.Error, err.Error())
		synthSpan.End()
		g.recordRun(false, start)
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	synthSpan.End()

	duration := time.Since(start)
	g.recordRun(true, start)
	g.logger.Printf("run %s complete in %s (%d reports)", runID, duration.Round(time.Millisecond), len(state.Reports()))

	return &Result{
		RunID:     runID,
		Reports:   state.Reports(),
		Data:      state.AllData(),
		Completed: state.Completed(),
		Duration:  duration,
	}, nil
}

func (g *Graph) recordRun(success bool, start time.Time) {
	if g.telemetry != nil {
		g.telemetry.RecordRun(success, time.Since(start))
	}
}
