package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/pestel/config"
	"github.com/mohammad-safakhou/pestel/internal/analysis"
	"github.com/mohammad-safakhou/pestel/internal/scoring"
	"github.com/mohammad-safakhou/pestel/internal/search"
)

type stubGraph struct {
	result *analysis.Result
	err    error
	form   *analysis.Form
}

func (s *stubGraph) Run(_ context.Context, form *analysis.Form) (*analysis.Result, error) {
	s.form = form
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubScorer struct {
	scores map[string]scoring.Score
}

func (s *stubScorer) CalculateScores(_ context.Context, _ *analysis.Form, _ map[string]json.RawMessage) map[string]scoring.Score {
	return s.scores
}

func newTestHandler(graph GraphRunner, scorer ScoreCalculator) *AnalysisHandler {
	return &AnalysisHandler{
		Graph:     graph,
		Scorer:    scorer,
		Snapshots: config.SnapshotConfig{Enabled: false},
		Logger:    log.New(io.Discard, "", 0),
	}
}

func submit(t *testing.T, h *AnalysisHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := newEcho()
	h.Register(e)
	req := httptest.NewRequest(http.MethodPost, "/submit-analysis", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSubmitSuccessShape(t *testing.T) {
	graph := &stubGraph{result: &analysis.Result{
		RunID: "run-1",
		Reports: map[string]json.RawMessage{
			"technological_report":   json.RawMessage(`{"executive_summary":"tech"}`),
			analysis.FinalReportKey: json.RawMessage(`{"executive_summary":"final"}`),
		},
		Data: map[analysis.Dimension][]search.ContentItem{
			analysis.Technological: {
				{Query: "q", URL: "https://example.com/a", Title: "Tech news", Content: "body"},
				{Query: "q", URL: "https://example.com/b", Title: "", Content: "untitled"},
			},
		},
		Completed: analysis.Dimensions,
	}}
	scorer := &stubScorer{scores: map[string]scoring.Score{
		"technological": {SimilarityScore: 70, ImpactScore: 60, Justification: "x"},
	}}

	rec := submit(t, newTestHandler(graph, scorer), `{
		"industry": "Retail",
		"geographical_focus": "EU",
		"technological_factors": {"ai_adoption": true}
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success           bool                       `json:"success"`
		Report            map[string]interface{}     `json:"report"`
		IndividualReports map[string]interface{}     `json:"individual_reports"`
		News              map[string][]NewsItem      `json:"news"`
		PestelScores      map[string]scoring.Score   `json:"pestel_scores"`
		Timestamp         string                     `json:"timestamp"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Report["executive_summary"] != "final" {
		t.Errorf("report = %v", resp.Report)
	}
	if _, ok := resp.IndividualReports["technological_report"]; !ok {
		t.Error("technological_report missing from individual_reports")
	}
	if _, ok := resp.IndividualReports[analysis.FinalReportKey]; ok {
		t.Error("final report leaked into individual_reports")
	}
	if resp.Timestamp == "" {
		t.Error("timestamp missing")
	}
	if resp.PestelScores["technological"].SimilarityScore != 70 {
		t.Errorf("pestel_scores = %v", resp.PestelScores)
	}

	// all six news keys present, untitled items dropped, skipped dims empty
	for _, d := range analysis.Dimensions {
		items, ok := resp.News[d.NewsKey()]
		if !ok {
			t.Fatalf("news key %s missing", d.NewsKey())
		}
		if d == analysis.Technological {
			if len(items) != 1 || items[0].Title != "Tech news" {
				t.Errorf("technological news = %v", items)
			}
		} else if len(items) != 0 {
			t.Errorf("%s news = %v, want empty", d, items)
		}
	}
}

func TestSubmitRejectsMalformedFactorValue(t *testing.T) {
	graph := &stubGraph{}
	rec := submit(t, newTestHandler(graph, &stubScorer{}), `{
		"industry": "Retail",
		"political_factors": {"trade_policy": 42}
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
	if graph.form != nil {
		t.Error("graph ran despite invalid form")
	}
}

func TestSubmitRejectsEmptyBody(t *testing.T) {
	rec := submit(t, newTestHandler(&stubGraph{}, &stubScorer{}), `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSubmitGraphFailureFailsRequest(t *testing.T) {
	graph := &stubGraph{err: errors.New("search provider unavailable")}
	rec := submit(t, newTestHandler(graph, &stubScorer{}), `{
		"industry": "Retail",
		"economic_factors": {"inflation": true}
	}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
}

func TestSubmitSnapshotWrittenWhenEnabled(t *testing.T) {
	graph := &stubGraph{result: &analysis.Result{
		RunID:   "run-snap",
		Reports: map[string]json.RawMessage{analysis.FinalReportKey: json.RawMessage(`{"executive_summary":"f"}`)},
		Data:    map[analysis.Dimension][]search.ContentItem{},
	}}
	h := newTestHandler(graph, &stubScorer{})
	dir := t.TempDir()
	h.Snapshots = config.SnapshotConfig{Enabled: true, Dir: dir}

	rec := submit(t, h, `{
		"industry": "Retail",
		"legal_factors": {"gdpr": "true"}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read snapshot dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("snapshot files = %d, want 1", len(entries))
	}
}
