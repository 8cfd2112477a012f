package search

import (
	"log"
	"sync"

	"picksheet/api/internal/document"
)

// Service is the facade that tries Meilisearch first and falls back to
// scanning the in-memory sheet. meili may be nil when not configured.
type Service struct {
	meili  *Meili
	memory Memory

	mu            sync.Mutex
	knownAssetIDs map[string]bool
	knownEntryIDs map[string]bool
}

func NewService(meili *Meili) *Service {
	return &Service{
		meili:         meili,
		knownAssetIDs: make(map[string]bool),
		knownEntryIDs: make(map[string]bool),
	}
}

// Search tries Meilisearch if healthy, otherwise scans the sheet.
func (s *Service) Search(doc *document.Document, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to memory scan: %v", err)
	}

	results, total := s.memory.Search(doc, q)
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// Reindex pushes the sheet's searchable entities to Meilisearch and
// removes index entries for entities that no longer exist. It is
// fire-and-forget; the memory fallback is always authoritative.
func (s *Service) Reindex(doc *document.Document) {
	if s.meili == nil || !s.meili.Healthy() || doc == nil {
		return
	}

	assets := make([]AssetRecord, 0, len(doc.Library))
	for _, asset := range doc.Library {
		assets = append(assets, AssetRecord{
			ID:         asset.ID,
			Name:       asset.Name,
			CategoryID: asset.CategoryID,
		})
	}
	var entries []EntryRecord
	for _, stage := range doc.Stages {
		for _, entry := range stage.Stats {
			entries = append(entries, EntryRecord{
				ID:      entry.ID,
				Nick:    entry.Nick,
				StageID: stage.ID,
			})
		}
	}

	staleAssets, staleEntries := s.rotateKnownIDs(assets, entries)

	go func() {
		if err := s.meili.IndexAssets(assets); err != nil {
			log.Printf("search: reindex assets: %v", err)
		}
		if err := s.meili.IndexEntries(entries); err != nil {
			log.Printf("search: reindex entries: %v", err)
		}
		for _, id := range staleAssets {
			if err := s.meili.DeleteAsset(id); err != nil {
				log.Printf("search: delete asset %s: %v", id, err)
			}
		}
		for _, id := range staleEntries {
			if err := s.meili.DeleteEntry(id); err != nil {
				log.Printf("search: delete entry %s: %v", id, err)
			}
		}
	}()
}

// rotateKnownIDs swaps in the current id sets and returns ids that were
// indexed before but are gone now.
func (s *Service) rotateKnownIDs(assets []AssetRecord, entries []EntryRecord) (staleAssets, staleEntries []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextAssets := make(map[string]bool, len(assets))
	for _, record := range assets {
		nextAssets[record.ID] = true
	}
	for id := range s.knownAssetIDs {
		if !nextAssets[id] {
			staleAssets = append(staleAssets, id)
		}
	}
	s.knownAssetIDs = nextAssets

	nextEntries := make(map[string]bool, len(entries))
	for _, record := range entries {
		nextEntries[record.ID] = true
	}
	for id := range s.knownEntryIDs {
		if !nextEntries[id] {
			staleEntries = append(staleEntries, id)
		}
	}
	s.knownEntryIDs = nextEntries
	return staleAssets, staleEntries
}

// Close stops background search workers.
func (s *Service) Close() {
	if s.meili != nil {
		s.meili.Close()
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
