package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/pestel/config"
	"github.com/mohammad-safakhou/pestel/internal/analysis"
	"github.com/mohammad-safakhou/pestel/internal/scoring"
	"github.com/mohammad-safakhou/pestel/internal/snapshot"
	"github.com/mohammad-safakhou/pestel/internal/store"
)

// GraphRunner runs the full analysis workflow for one form.
type GraphRunner interface {
	Run(ctx context.Context, form *analysis.Form) (*analysis.Result, error)
}

// ScoreCalculator grades generated reports against the user's priorities.
type ScoreCalculator interface {
	CalculateScores(ctx context.Context, form *analysis.Form, reports map[string]json.RawMessage) map[string]scoring.Score
}

// AnalysisHandler serves the analysis submission endpoint.
type AnalysisHandler struct {
	Graph     GraphRunner
	Scorer    ScoreCalculator
	Store     *store.Store
	Snapshots config.SnapshotConfig
	Logger    *log.Logger
}

// Register mounts the handler's routes.
func (h *AnalysisHandler) Register(e *echo.Echo) {
	e.POST("/submit-analysis", h.Submit)
}

// NewsItem is one title/url pair surfaced to the frontend.
type NewsItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type analysisResponse struct {
	Success           bool                     `json:"success"`
	Report            interface{}              `json:"report"`
	IndividualReports map[string]interface{}   `json:"individual_reports"`
	News              map[string][]NewsItem    `json:"news"`
	PestelScores      map[string]scoring.Score `json:"pestel_scores"`
	Timestamp         string                   `json:"timestamp"`
}

// Submit receives form data, runs the analysis workflow, scores the result,
// and returns the combined payload. Graph failures fail the request as a
// whole; scoring failures only shrink the scores map.
func (h *AnalysisHandler) Submit(c echo.Context) error {
	var raw map[string]interface{}
	if err := c.Bind(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	form, err := analysis.ParseForm(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	result, err := h.Graph.Run(ctx, form)
	if err != nil {
		return err
	}

	scores := map[string]scoring.Score{}
	if h.Scorer != nil {
		scores = h.Scorer.CalculateScores(ctx, form, result.Reports)
	}

	h.persist(ctx, form, result, scores)

	return c.JSON(http.StatusOK, analysisResponse{
		Success:           true,
		Report:            parseReport(result.Reports[analysis.FinalReportKey]),
		IndividualReports: individualReports(result.Reports),
		News:              extractNews(result),
		PestelScores:      scores,
		Timestamp:         time.Now().Format(time.RFC3339),
	})
}

// individualReports parses each dimension report to an object so the client
// gets structured JSON rather than re-serialized strings.
func individualReports(reports map[string]json.RawMessage) map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range reports {
		if key == analysis.FinalReportKey {
			continue
		}
		out[key] = parseReport(value)
	}
	return out
}

func parseReport(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	var parsed interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return string(raw)
	}
	return parsed
}

// extractNews collects {title, url} pairs from every dimension's data slice.
func extractNews(result *analysis.Result) map[string][]NewsItem {
	news := make(map[string][]NewsItem, len(analysis.Dimensions))
	for _, d := range analysis.Dimensions {
		items := []NewsItem{}
		for _, item := range result.Data[d] {
			if item.Title == "" || item.URL == "" {
				continue
			}
			items = append(items, NewsItem{Title: item.Title, URL: item.URL})
		}
		news[d.NewsKey()] = items
	}
	return news
}

// persist writes the debug snapshot and the optional Postgres row. Neither
// failure affects the response.
func (h *AnalysisHandler) persist(ctx context.Context, form *analysis.Form, result *analysis.Result, scores map[string]scoring.Score) {
	if h.Snapshots.Enabled {
		doc := snapshot.Document{
			RunID:     result.RunID,
			Form:      form,
			Reports:   result.Reports,
			Data:      result.Data,
			Completed: result.Completed,
			Scores:    scores,
		}
		if path, err := snapshot.Write(h.Snapshots.Dir, doc); err != nil {
			h.Logger.Printf("snapshot write failed: %v", err)
		} else {
			h.Logger.Printf("snapshot written to %s", path)
		}
	}

	if h.Store != nil {
		formJSON, _ := json.Marshal(form)
		reportsJSON, _ := json.Marshal(result.Reports)
		scoresJSON, _ := json.Marshal(scores)
		if err := h.Store.SaveRun(ctx, store.Run{
			ID:      result.RunID,
			Form:    formJSON,
			Reports: reportsJSON,
			Scores:  scoresJSON,
		}); err != nil {
			h.Logger.Printf("run store save failed: %v", err)
		}
	}
}
