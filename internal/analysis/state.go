package analysis

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/mohammad-safakhou/pestel/internal/search"
)

// RunState is the shared mutable state threaded through one analysis run.
// The six pipelines write to disjoint slices of it; the reports map and
// completed set are the only fields touched by more than one branch, each
// with an explicit merge operation below.
type RunState struct {
	mu sync.Mutex

	form      *Form
	queues    map[Dimension][]search.QueryBatch
	data      map[Dimension][]search.ContentItem
	reports   map[string]json.RawMessage
	completed map[Dimension]struct{}
	stages    map[Dimension]Stage
}

// NewRunState creates fresh run state for the given form.
func NewRunState(form *Form) *RunState {
	stages := make(map[Dimension]Stage, len(Dimensions))
	for _, d := range Dimensions {
		stages[d] = StagePending
	}
	return &RunState{
		form:      form,
		queues:    make(map[Dimension][]search.QueryBatch),
		data:      make(map[Dimension][]search.ContentItem),
		reports:   make(map[string]json.RawMessage),
		completed: make(map[Dimension]struct{}),
		stages:    stages,
	}
}

// Form returns the immutable input form.
func (s *RunState) Form() *Form { return s.form }

// PushQueries appends a query batch to the dimension's queue. Batches are
// appended whole, never split.
func (s *RunState) PushQueries(d Dimension, batch search.QueryBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[d] = append(s.queues[d], batch)
}

// LatestQueries returns the most recently queued batch for the dimension.
func (s *RunState) LatestQueries(d Dimension) (search.QueryBatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queues[d]
	if len(q) == 0 {
		return search.QueryBatch{}, false
	}
	return q[len(q)-1], true
}

// SetData replaces the dimension's data slice.
func (s *RunState) SetData(d Dimension, items []search.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[d] = items
}

// Data returns the dimension's data slice.
func (s *RunState) Data(d Dimension) []search.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[d]
}

// AllData returns a copy of every dimension's data slice.
func (s *RunState) AllData() map[Dimension][]search.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Dimension][]search.ContentItem, len(s.data))
	for d, items := range s.data {
		out[d] = items
	}
	return out
}

// MergeReports merges report entries into the state by key union. Branches
// write disjoint keys by construction, so last-writer-wins per key only
// matters defensively.
func (s *RunState) MergeReports(entries map[string]json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range entries {
		s.reports[key] = value
	}
}

// StoreReport stores a single serialized report under the given key.
func (s *RunState) StoreReport(key string, value json.RawMessage) {
	s.MergeReports(map[string]json.RawMessage{key: value})
}

// Report returns the serialized report stored under key, if present.
func (s *RunState) Report(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[key]
	return r, ok
}

// Reports returns a copy of the reports map.
func (s *RunState) Reports() map[string]json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]json.RawMessage, len(s.reports))
	for k, v := range s.reports {
		out[k] = v
	}
	return out
}

// MergeCompleted merges dimension names into the completed set. The merge is
// an idempotent union: adding a dimension twice leaves a single occurrence.
func (s *RunState) MergeCompleted(dims ...Dimension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range dims {
		s.completed[d] = struct{}{}
	}
}

// Completed returns the sorted list of completed dimensions.
func (s *RunState) Completed() []Dimension {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Dimension, 0, len(s.completed))
	for d := range s.completed {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsCompleted reports whether the dimension reached a terminal state.
func (s *RunState) IsCompleted(d Dimension) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.completed[d]
	return ok
}

// SetStage records the dimension's pipeline stage.
func (s *RunState) SetStage(d Dimension, stage Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[d] = stage
}

// Stage returns the dimension's current pipeline stage.
func (s *RunState) Stage(d Dimension) Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stages[d]
}
