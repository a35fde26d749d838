package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mohammad-safakhou/pestel/config"
	"github.com/mohammad-safakhou/pestel/internal/llm"
	"github.com/mohammad-safakhou/pestel/internal/search"
	"github.com/mohammad-safakhou/pestel/internal/telemetry"
)

const maxQueriesPerDimension = 5

// Pipeline runs the four-stage flow for one dimension:
// format-query -> search -> summarize -> report.
type Pipeline struct {
	dimension Dimension
	provider  llm.Provider
	searcher  search.Searcher
	routing   config.LLMRoutingConfig
	summarize config.SummarizeConfig
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewPipeline creates the pipeline for one dimension.
func NewPipeline(d Dimension, provider llm.Provider, searcher search.Searcher, routing config.LLMRoutingConfig, summarize config.SummarizeConfig, tele *telemetry.Telemetry) *Pipeline {
	return &Pipeline{
		dimension: d,
		provider:  provider,
		searcher:  searcher,
		routing:   routing,
		summarize: summarize,
		telemetry: tele,
		logger:    log.New(log.Writer(), fmt.Sprintf("[%s] ", d.Title()), log.LstdFlags),
	}
}

// Run executes the pipeline against shared run state. A skipped dimension
// (no selected factors) contributes an empty data slice, is marked completed,
// and produces no report entry. Any stage error fails the run.
func (p *Pipeline) Run(ctx context.Context, state *RunState) error {
	d := p.dimension
	selected := state.Form().Selected(d)
	if len(selected) == 0 {
		p.logger.Printf("no %s factors selected, skipping analysis", d)
		state.SetData(d, []search.ContentItem{})
		state.SetStage(d, StageSkipped)
		state.MergeCompleted(d)
		return nil
	}

	batch, err := p.formatQuery(ctx, state.Form(), selected)
	if err != nil {
		return fmt.Errorf("%s format-query: %w", d, err)
	}
	state.PushQueries(d, batch)
	state.SetStage(d, StageQueried)
	p.logger.Printf("generated %d search queries", len(batch.SearchQueries))

	queries, _ := state.LatestQueries(d)
	items, err := p.search(ctx, queries.SearchQueries)
	if err != nil {
		return fmt.Errorf("%s search: %w", d, err)
	}
	state.SetData(d, items)
	state.SetStage(d, StageSearched)
	p.logger.Printf("retrieved %d content items", len(items))

	items = p.summarizeItems(ctx, items)
	state.SetData(d, items)
	state.SetStage(d, StageSummarized)

	report, err := p.report(ctx, state.Form(), selected, items)
	if err != nil {
		return fmt.Errorf("%s report: %w", d, err)
	}
	state.StoreReport(d.ReportKey(), report)
	state.SetStage(d, StageReported)
	state.MergeCompleted(d)
	p.logger.Printf("report generated")
	return nil
}

func (p *Pipeline) formatQuery(ctx context.Context, form *Form, selected []string) (search.QueryBatch, error) {
	start := time.Now()
	defer p.recordStage("format_query", start)

	raw, err := p.provider.GenerateStructured(ctx, "", queryPrompt(p.dimension, form, selected), p.routing.Model("query"), "search_queries", queryBatchSchema)
	if err != nil {
		return search.QueryBatch{}, err
	}
	var batch search.QueryBatch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return search.QueryBatch{}, fmt.Errorf("parse queries: %w", err)
	}
	if len(batch.SearchQueries) == 0 {
		return search.QueryBatch{}, fmt.Errorf("no queries generated")
	}
	if len(batch.SearchQueries) > maxQueriesPerDimension {
		batch.SearchQueries = batch.SearchQueries[:maxQueriesPerDimension]
	}
	return batch, nil
}

func (p *Pipeline) search(ctx context.Context, queries []search.TaggedQuery) ([]search.ContentItem, error) {
	start := time.Now()
	defer p.recordStage("search", start)
	return p.searcher.Search(ctx, queries)
}

// summarizeItems compresses each item's content via the LLM, in batches so
// concurrent external calls stay bounded. A per-item failure falls back to
// the raw content rather than failing the batch.
func (p *Pipeline) summarizeItems(ctx context.Context, items []search.ContentItem) []search.ContentItem {
	start := time.Now()
	defer p.recordStage("summarize", start)

	model := p.routing.Model("summarize")
	if !p.summarize.Enabled || model == "" {
		return items
	}

	batchSize := p.summarize.BatchSize
	if batchSize <= 0 {
		batchSize = 3
	}

	out := make([]search.ContentItem, len(items))
	copy(out, items)

	for i := 0; i < len(out); i += batchSize {
		end := i + batchSize
		if end > len(out) {
			end = len(out)
		}
		var wg sync.WaitGroup
		for j := i; j < end; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				summary, err := p.provider.Generate(ctx, "", summarizePrompt(out[j]), model)
				if err != nil {
					p.logger.Printf("summarize %s failed, keeping raw content: %v", out[j].URL, err)
					return
				}
				out[j].Content = summary
			}(j)
		}
		wg.Wait()
	}
	return out
}

func (p *Pipeline) report(ctx context.Context, form *Form, selected []string, items []search.ContentItem) (json.RawMessage, error) {
	start := time.Now()
	defer p.recordStage("report", start)

	raw, err := p.provider.GenerateStructured(ctx, "", reportPrompt(p.dimension, form, selected, items), p.routing.Model("report"), "pestel_report", reportSectionSchema)
	if err != nil {
		return nil, err
	}
	var section ReportSection
	if err := json.Unmarshal(raw, &section); err != nil {
		return nil, fmt.Errorf("parse report section: %w", err)
	}
	return raw, nil
}

func (p *Pipeline) recordStage(stage string, start time.Time) {
	if p.telemetry != nil {
		p.telemetry.RecordStage(string(p.dimension), stage, time.Since(start))
	}
}
