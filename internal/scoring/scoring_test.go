package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/pestel/internal/analysis"
)

type stubProvider struct {
	responses map[string]string // keyed by dimension name found in the prompt
	errFor    map[string]error
}

func (s *stubProvider) Generate(ctx context.Context, system, prompt, model string) (string, error) {
	for dim, err := range s.errFor {
		if containsDim(prompt, dim) {
			return "", err
		}
	}
	for dim, resp := range s.responses {
		if containsDim(prompt, dim) {
			return resp, nil
		}
	}
	return `{"similarity_score":50,"impact_score":50,"justification":"neutral"}`, nil
}

// the rubric prompt names the dimension in upper case
func containsDim(prompt, dim string) bool {
	return strings.Contains(prompt, "**"+strings.ToUpper(dim)+"**")
}

func (s *stubProvider) GenerateStructured(ctx context.Context, system, prompt, model, schemaName string, schema json.RawMessage) (json.RawMessage, error) {
	return nil, errors.New("not used")
}

func (s *stubProvider) CalculateCost(in, out int64, model string) float64 { return 0 }

func scoringForm() *analysis.Form {
	return &analysis.Form{Factors: map[analysis.Dimension]map[string]bool{
		analysis.Political:     {"tax_regulations": true, "political_stability": false},
		analysis.Economic:      {"inflation": true},
		analysis.Technological: {"ai_adoption": true},
	}}
}

func scoringReports(dims ...analysis.Dimension) map[string]json.RawMessage {
	reports := make(map[string]json.RawMessage)
	for _, d := range dims {
		reports[d.ReportKey()] = json.RawMessage(`{"executive_summary":"text"}`)
	}
	return reports
}

func TestMapRaw(t *testing.T) {
	cases := map[int]int{-50: 0, 0: 50, 50: 100, -25: 25, 10: 60}
	for raw, want := range cases {
		if got := mapRaw(raw); got != want {
			t.Errorf("mapRaw(%d) = %d, want %d", raw, got, want)
		}
	}
}

func TestCalculateScoresSkipsDimensionsWithoutFactorsOrReports(t *testing.T) {
	scorer := NewScorer(&stubProvider{}, "small")
	// technological has factors but no report; social has neither
	scores := scorer.CalculateScores(context.Background(), scoringForm(), scoringReports(analysis.Political, analysis.Economic))

	if len(scores) != 2 {
		t.Fatalf("scores = %v, want political and economic only", scores)
	}
	if _, ok := scores["technological"]; ok {
		t.Error("scored a dimension with no report text")
	}
	if s := scores["political"]; s.SimilarityScore != 50 || s.ImpactScore != 50 {
		t.Errorf("political score = %+v", s)
	}
}

func TestCalculateScoresSkipsInvalidJSON(t *testing.T) {
	scorer := NewScorer(&stubProvider{
		responses: map[string]string{"political": "not valid json"},
	}, "small")

	scores := scorer.CalculateScores(context.Background(), scoringForm(),
		scoringReports(analysis.Political, analysis.Economic, analysis.Technological))

	if _, ok := scores["political"]; ok {
		t.Error("dimension with invalid JSON should be omitted")
	}
	if len(scores) != 2 {
		t.Errorf("other dimensions should still score: %v", scores)
	}
}

func TestCalculateScoresSkipsAPIErrors(t *testing.T) {
	scorer := NewScorer(&stubProvider{
		errFor: map[string]error{"economic": errors.New("rate limited")},
	}, "small")

	scores := scorer.CalculateScores(context.Background(), scoringForm(),
		scoringReports(analysis.Political, analysis.Economic, analysis.Technological))

	if _, ok := scores["economic"]; ok {
		t.Error("dimension with API error should be omitted")
	}
	if len(scores) != 2 {
		t.Errorf("remaining dimensions should still score: %v", scores)
	}
}

func TestCalculateScoresRejectsOutOfRange(t *testing.T) {
	scorer := NewScorer(&stubProvider{
		responses: map[string]string{"political": `{"similarity_score":120,"impact_score":50,"justification":"x"}`},
	}, "small")

	scores := scorer.CalculateScores(context.Background(), scoringForm(), scoringReports(analysis.Political))
	if len(scores) != 0 {
		t.Errorf("out-of-range score should be omitted: %v", scores)
	}
}

func TestCalculateScoresHandlesFencedJSON(t *testing.T) {
	scorer := NewScorer(&stubProvider{
		responses: map[string]string{"political": "```json\n{\"similarity_score\":80,\"impact_score\":70,\"justification\":\"good\"}\n```"},
	}, "small")

	scores := scorer.CalculateScores(context.Background(), scoringForm(), scoringReports(analysis.Political))
	if s, ok := scores["political"]; !ok || s.SimilarityScore != 80 || s.ImpactScore != 70 {
		t.Errorf("fenced JSON should parse: %v", scores)
	}
}
