package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/pestel/internal/llm"
)

// Synthesizer is the join node: it reads all completed report slices and
// produces the consolidated final report.
type Synthesizer struct {
	provider llm.Provider
	model    string
	logger   *log.Logger
}

// NewSynthesizer creates the final report synthesizer.
func NewSynthesizer(provider llm.Provider, model string) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		model:    model,
		logger:   log.New(log.Writer(), "[SYNTHESIS] ", log.LstdFlags),
	}
}

// Synthesize builds the final report from the run's dimension reports and
// stores it under the final report key. Must only be called after every
// dimension has reached a terminal state.
func (s *Synthesizer) Synthesize(ctx context.Context, state *RunState) (json.RawMessage, error) {
	raw, err := s.provider.GenerateStructured(ctx, "", synthesisPrompt(state), s.model, "final_pestel_report", finalReportSchema)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}
	var report FinalReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("parse final report: %w", err)
	}
	state.StoreReport(FinalReportKey, raw)
	s.logger.Printf("final report generated (%d dimension reports available)", len(state.Reports())-1)
	return raw, nil
}
