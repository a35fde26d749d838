package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mohammad-safakhou/pestel/internal/analysis"
	"github.com/mohammad-safakhou/pestel/internal/scoring"
	"github.com/mohammad-safakhou/pestel/internal/search"
)

// Document is the full state of a completed run, persisted for offline
// inspection and replay. Purely diagnostic; not required for correctness.
type Document struct {
	RunID     string                                         `json:"run_id"`
	Timestamp time.Time                                      `json:"timestamp"`
	Form      *analysis.Form                                 `json:"form"`
	Reports   map[string]json.RawMessage                     `json:"reports"`
	Data      map[analysis.Dimension][]search.ContentItem    `json:"data"`
	Completed []analysis.Dimension                           `json:"completed"`
	Scores    map[string]scoring.Score                       `json:"pestel_scores,omitempty"`
}

// Write persists the document as <dir>/run_<timestamp>.json and returns the
// written path.
func Write(dir string, doc Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot dir: %w", err)
	}
	if doc.Timestamp.IsZero() {
		doc.Timestamp = time.Now()
	}
	path := filepath.Join(dir, fmt.Sprintf("run_%s.json", doc.Timestamp.Format("20060102_150405")))

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// Load reads a previously written snapshot.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read snapshot: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return doc, nil
}

// Searcher builds an offline replay searcher serving the snapshot's recorded
// content items instead of live web searches. It is dimension-aware: the graph
// routes each branch to that dimension's recorded slice only, so replay keeps
// the same data isolation as a live run.
func (d Document) Searcher() search.Searcher {
	return replaySearcher{doc: d}
}

type replaySearcher struct {
	doc Document
}

var _ analysis.DimensionSearcher = replaySearcher{}

// SearcherFor serves one dimension's recorded data slice.
func (r replaySearcher) SearcherFor(dim analysis.Dimension) search.Searcher {
	return search.Static(r.doc.Data[dim])
}

// Search serves the union of all recorded slices, for callers that are not
// dimension-aware.
func (r replaySearcher) Search(ctx context.Context, queries []search.TaggedQuery) ([]search.ContentItem, error) {
	var items []search.ContentItem
	for _, dim := range analysis.Dimensions {
		items = append(items, r.doc.Data[dim]...)
	}
	return items, nil
}
