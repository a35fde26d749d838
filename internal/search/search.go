package search

import "context"

// QueryTag categorizes a search query and drives the provider's recency window.
type QueryTag string

const (
	TagGeneral QueryTag = "general" // broad context, year-wide window
	TagNews    QueryTag = "news"    // recent developments, month-wide window
)

// TaggedQuery is a single generated search query.
type TaggedQuery struct {
	Query string   `json:"query"`
	Tag   QueryTag `json:"tag"`
}

// QueryBatch is the structured output of the query-writer LLM.
type QueryBatch struct {
	SearchQueries []TaggedQuery `json:"search_queries"`
}

// ContentItem is one matched piece of web content with its extracted text.
type ContentItem struct {
	Query   string `json:"query"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Searcher resolves a batch of tagged queries into content items.
type Searcher interface {
	Search(ctx context.Context, queries []TaggedQuery) ([]ContentItem, error)
}

// Static returns a Searcher that always serves the given items, regardless of
// the queries. Used for offline replay from recorded snapshots.
func Static(items []ContentItem) Searcher {
	return staticSearcher(items)
}

type staticSearcher []ContentItem

func (s staticSearcher) Search(ctx context.Context, queries []TaggedQuery) ([]ContentItem, error) {
	return []ContentItem(s), nil
}
