package search

import (
	"strings"

	"picksheet/api/internal/document"
)

// Memory is the fallback searcher. It scans the in-memory sheet with a
// case-insensitive substring match, so search keeps working when
// Meilisearch is down or not configured.
type Memory struct{}

func (Memory) Search(doc *document.Document, q Query) ([]Result, int) {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" || doc == nil {
		return []Result{}, 0
	}

	var matches []Result
	if q.FilterType == "" || q.FilterType == ResultAsset {
		for _, asset := range doc.Library {
			if !strings.Contains(strings.ToLower(asset.Name), needle) {
				continue
			}
			matches = append(matches, Result{
				Type:       ResultAsset,
				ID:         asset.ID,
				Title:      asset.Name,
				CategoryID: asset.CategoryID,
			})
		}
	}
	if q.FilterType == "" || q.FilterType == ResultEntry {
		for _, stage := range doc.Stages {
			for _, entry := range stage.Stats {
				if !strings.Contains(strings.ToLower(entry.Nick), needle) {
					continue
				}
				matches = append(matches, Result{
					Type:    ResultEntry,
					ID:      entry.ID,
					Title:   entry.Nick,
					StageID: stage.ID,
				})
			}
		}
	}

	total := len(matches)
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}
	if q.Offset >= total {
		return []Result{}, total
	}
	end := q.Offset + limit
	if end > total {
		end = total
	}
	return matches[q.Offset:end], total
}
