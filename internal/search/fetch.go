package search

import (
	"time"

	readability "github.com/go-shiori/go-readability"
)

// fetchReadable downloads a page and strips it down to its readable text.
func fetchReadable(url string, timeout time.Duration) (string, error) {
	article, err := readability.FromURL(url, timeout)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

// EnrichContent refetches items whose extracted content is shorter than minLen
// and keeps whichever text is longer. Fetch failures leave the item untouched.
func EnrichContent(items []ContentItem, minLen int, timeout time.Duration) []ContentItem {
	if minLen <= 0 {
		return items
	}
	for i := range items {
		if len(items[i].Content) >= minLen {
			continue
		}
		fetched, err := fetchReadable(items[i].URL, timeout)
		if err != nil {
			continue
		}
		if len(fetched) > len(items[i].Content) {
			items[i].Content = fetched
		}
	}
	return items
}
