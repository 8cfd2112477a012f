package search

import (
	"testing"

	"picksheet/api/internal/document"
)

func searchableDoc() *document.Document {
	doc := document.New()
	doc = document.AddAssets(doc,
		document.LibraryAsset{ID: "a1", Src: "lions.png", Name: "Lions"},
		document.LibraryAsset{ID: "a2", Src: "tigers.png", Name: "Tigers"},
		document.LibraryAsset{ID: "a3", Src: "sea.png", Name: "Sea Lions"},
	)
	entry := document.StatEntry{Row: document.NewRow(0)}
	entry.ID = "e1"
	entry.Nick = "LionHeart"
	return document.AppendStats(doc, []document.StatEntry{entry})
}

func TestMemorySearch(t *testing.T) {
	doc := searchableDoc()

	results, total := Memory{}.Search(doc, Query{Text: "lion"})
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	types := map[ResultType]int{}
	for _, r := range results {
		types[r.Type]++
	}
	if types[ResultAsset] != 2 || types[ResultEntry] != 1 {
		t.Errorf("unexpected result mix: %v", types)
	}
}

func TestMemorySearchCaseInsensitive(t *testing.T) {
	results, total := Memory{}.Search(searchableDoc(), Query{Text: "  TIGERS "})
	if total != 1 || results[0].ID != "a2" {
		t.Errorf("case-insensitive trimmed match failed: total=%d results=%+v", total, results)
	}
}

func TestMemorySearchTypeFilter(t *testing.T) {
	doc := searchableDoc()

	assets, total := Memory{}.Search(doc, Query{Text: "lion", FilterType: ResultAsset})
	if total != 2 {
		t.Errorf("asset filter total = %d, want 2", total)
	}
	for _, r := range assets {
		if r.Type != ResultAsset {
			t.Errorf("asset filter returned %q", r.Type)
		}
	}

	entries, total := Memory{}.Search(doc, Query{Text: "lion", FilterType: ResultEntry})
	if total != 1 || entries[0].ID != "e1" {
		t.Errorf("entry filter failed: total=%d results=%+v", total, entries)
	}
	if entries[0].StageID != doc.Stages[0].ID {
		t.Errorf("entry result should carry its stage id")
	}
}

func TestMemorySearchPagination(t *testing.T) {
	doc := searchableDoc()

	page, total := Memory{}.Search(doc, Query{Text: "lion", Limit: 2})
	if total != 3 || len(page) != 2 {
		t.Errorf("limit: total=%d len=%d", total, len(page))
	}

	rest, total := Memory{}.Search(doc, Query{Text: "lion", Limit: 2, Offset: 2})
	if total != 3 || len(rest) != 1 {
		t.Errorf("offset: total=%d len=%d", total, len(rest))
	}

	past, total := Memory{}.Search(doc, Query{Text: "lion", Offset: 10})
	if total != 3 || len(past) != 0 {
		t.Errorf("offset past the end: total=%d len=%d", total, len(past))
	}
}

func TestMemorySearchBlankQuery(t *testing.T) {
	if results, total := (Memory{}).Search(searchableDoc(), Query{Text: "   "}); total != 0 || len(results) != 0 {
		t.Errorf("blank query should match nothing")
	}
	if results, total := (Memory{}).Search(nil, Query{Text: "lion"}); total != 0 || len(results) != 0 {
		t.Errorf("nil document should match nothing")
	}
}
