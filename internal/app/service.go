package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"picksheet/api/internal/analytics"
	"picksheet/api/internal/archive"
	"picksheet/api/internal/assets"
	"picksheet/api/internal/document"
	"picksheet/api/internal/export"
	"picksheet/api/internal/history"
	"picksheet/api/internal/persist"
	"picksheet/api/internal/search"
)

// Service owns the live sheet. Every mutation runs under one mutex:
// read the current state, apply a pure mutator, commit the result to
// the undo history, schedule persistence. Reads take the same mutex
// and work on a cloned snapshot.
type Service struct {
	mu      sync.Mutex
	history *history.Manager

	store   persist.Store
	saver   *persist.Saver
	search  *search.Service
	archive *archive.Service
	ingest  assets.Ingestor
	gate    *EditorGate
}

func NewService(store persist.Store, saver *persist.Saver, searchSvc *search.Service, archiveSvc *archive.Service, ingest assets.Ingestor, gate *EditorGate) *Service {
	return &Service{
		store:   store,
		saver:   saver,
		search:  searchSvc,
		archive: archiveSvc,
		ingest:  ingest,
		gate:    gate,
	}
}

// Bootstrap loads the persisted sheet, migrating legacy payloads. A
// missing or unreadable blob starts a fresh sheet rather than refusing
// to boot; the stored bytes are never overwritten until the first edit.
func (s *Service) Bootstrap(ctx context.Context) error {
	blob, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	doc := document.New()
	if blob != nil {
		migrated, err := document.Migrate(blob)
		if err != nil {
			log.Printf("app: stored state unusable, starting fresh: %v", err)
		} else {
			doc = migrated
		}
	}

	s.mu.Lock()
	s.history = history.New(doc)
	s.mu.Unlock()

	s.search.Reindex(doc)
	return nil
}

func (s *Service) Gate() *EditorGate { return s.gate }

// Ping reports state store connectivity for readiness checks.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Shutdown flushes any pending autosave.
func (s *Service) Shutdown(ctx context.Context) error {
	err := s.saver.Flush(ctx)
	s.saver.Close()
	return err
}

// StatePayload is the envelope every state-changing endpoint returns.
type StatePayload struct {
	Document *document.Document `json:"document"`
	CanUndo  bool               `json:"canUndo"`
	CanRedo  bool               `json:"canRedo"`
}

func (s *Service) statePayloadLocked() StatePayload {
	return StatePayload{
		Document: s.history.Current().Clone(),
		CanUndo:  s.history.CanUndo(),
		CanRedo:  s.history.CanRedo(),
	}
}

// State returns the current sheet snapshot.
func (s *Service) State() StatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statePayloadLocked()
}

// apply runs one pure mutation against the current state and commits
// the result. Mutations that leave the state identical are not
// recorded and not persisted.
func (s *Service) apply(mutate func(*document.Document) (*document.Document, error)) (StatePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := mutate(s.history.Current())
	if err != nil {
		return StatePayload{}, err
	}
	if s.history.Commit(next) {
		current := s.history.Current()
		s.saver.Schedule(current)
		s.search.Reindex(current)
	}
	return s.statePayloadLocked(), nil
}

// infallible adapts mutators that cannot fail to the apply signature.
func infallible(mutate func(*document.Document) *document.Document) func(*document.Document) (*document.Document, error) {
	return func(doc *document.Document) (*document.Document, error) {
		return mutate(doc), nil
	}
}

func (s *Service) Undo() StatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.history.Undo() {
		current := s.history.Current()
		s.saver.Schedule(current)
		s.search.Reindex(current)
	}
	return s.statePayloadLocked()
}

func (s *Service) Redo() StatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.history.Redo() {
		current := s.history.Current()
		s.saver.Schedule(current)
		s.search.Reindex(current)
	}
	return s.statePayloadLocked()
}

// Stage operations.

func (s *Service) AddStage() (StatePayload, error) {
	return s.apply(infallible(document.AddStage))
}

func (s *Service) DeleteStage(id string) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.DeleteStage(doc, id)
	})
}

func (s *Service) RenameStage(id, name string) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.RenameStage(doc, id, name)
	})
}

func (s *Service) SelectStage(id string) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.SelectStage(doc, id)
	})
}

// Row operations.

func (s *Service) SetRowCount(n int) (StatePayload, error) {
	return s.apply(infallible(func(doc *document.Document) *document.Document {
		return document.SetRowCount(doc, n)
	}))
}

func (s *Service) MoveRow(index, direction int) (StatePayload, error) {
	return s.apply(infallible(func(doc *document.Document) *document.Document {
		return document.MoveRow(doc, index, direction)
	}))
}

func (s *Service) ClearRowPicks(index int) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.ClearRowPicks(doc, index)
	})
}

func (s *Service) SetPick(rowIndex int, area string, slotIndex int, ref document.Ref) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.SetPick(doc, rowIndex, area, slotIndex, ref)
	})
}

func (s *Service) SetRowNick(index int, nick string) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.SetRowNick(doc, index, nick)
	})
}

func (s *Service) SetRowNickFontSize(index, size int) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.SetRowNickFontSize(doc, index, size)
	})
}

func (s *Service) SetRowAvatar(index int, src string) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.SetRowAvatar(doc, index, src)
	})
}

func (s *Service) SetRowAvatarTransform(index, scale, posX, posY int) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.SetRowAvatarTransform(doc, index, scale, posX, posY)
	})
}

// Library operations.

// Upload is one file of a multipart library upload.
type Upload struct {
	Filename string
	Data     []byte
}

func (s *Service) UploadAssets(ctx context.Context, uploads []Upload) (StatePayload, error) {
	ingested := make([]document.LibraryAsset, 0, len(uploads))
	for _, upload := range uploads {
		asset, err := s.ingest.Ingest(ctx, upload.Filename, upload.Data)
		if err != nil {
			return StatePayload{}, fmt.Errorf("ingest %s: %w", upload.Filename, err)
		}
		ingested = append(ingested, asset)
	}
	return s.apply(infallible(func(doc *document.Document) *document.Document {
		return document.AddAssets(doc, ingested...)
	}))
}

func (s *Service) RemoveAsset(id string) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.RemoveAsset(doc, id)
	})
}

func (s *Service) RenameAsset(id, name string) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.RenameAsset(doc, id, name)
	})
}

func (s *Service) MoveAssetToCategory(id, categoryID string) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.MoveAssetToCategory(doc, id, categoryID)
	})
}

// Answer key and settings.

func (s *Service) ToggleCorrect(area string, ref document.Ref) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.ToggleCorrect(doc, area, ref)
	})
}

func (s *Service) SetNumericSetting(key string, value int) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.SetNumericSetting(doc, key, value)
	})
}

func (s *Service) SetToggle(key string, on bool) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.SetToggle(doc, key, on)
	})
}

func (s *Service) SetBackgroundColor(color string) (StatePayload, error) {
	return s.apply(infallible(func(doc *document.Document) *document.Document {
		return document.SetBackgroundColor(doc, color)
	}))
}

func (s *Service) SetBackgroundImage(src string) (StatePayload, error) {
	return s.apply(infallible(func(doc *document.Document) *document.Document {
		return document.SetBackgroundImage(doc, src)
	}))
}

func (s *Service) ResetDesign() (StatePayload, error) {
	return s.apply(infallible(document.ResetDesign))
}

// ResetAll discards the whole sheet and starts from the initial state.
func (s *Service) ResetAll() (StatePayload, error) {
	return s.apply(infallible(func(*document.Document) *document.Document {
		return document.New()
	}))
}

// Stats ledger.

// CommitResult reports what a stats commit did.
type CommitResult struct {
	StatePayload
	Added      int      `json:"added"`
	Skipped    int      `json:"skipped"`
	Duplicates []string `json:"duplicates"`
}

// CommitStats scores the active stage's rows into the ledger. Default
// rows are skipped, rows already present are reported as duplicates.
func (s *Service) CommitStats() (CommitResult, error) {
	var plan analytics.CommitPlan
	payload, err := s.apply(func(doc *document.Document) (*document.Document, error) {
		stage := doc.ActiveStage()
		if stage == nil {
			return nil, &document.ValidationError{Op: "commitStats", Reason: "no active stage"}
		}
		plan = analytics.PlanCommit(stage)
		if len(plan.New) == 0 {
			return doc, nil
		}
		return document.AppendStats(doc, plan.New), nil
	})
	if err != nil {
		return CommitResult{}, err
	}
	return CommitResult{
		StatePayload: payload,
		Added:        plan.Added(),
		Skipped:      plan.Skipped,
		Duplicates:   plan.Duplicates,
	}, nil
}

func (s *Service) ClearStats() (StatePayload, error) {
	return s.apply(infallible(document.ClearStats))
}

func (s *Service) DeleteStatEntry(id string) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.DeleteStatEntry(doc, id)
	})
}

func (s *Service) RenameStatEntry(id, nick string) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.RenameStatEntry(doc, id, nick)
	})
}

func (s *Service) RestoreRowFromStat(id string) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return document.RestoreRowFromStat(doc, id)
	})
}

// Read-side analytics.

// Ranking returns the active stage's ledger, rescored and sorted.
// filter keeps only entries whose nick contains the term.
func (s *Service) Ranking(key, direction, filter string) []document.StatEntry {
	s.mu.Lock()
	doc := s.history.Current().Clone()
	s.mu.Unlock()

	stage := doc.ActiveStage()
	if stage == nil {
		return []document.StatEntry{}
	}
	stats := stage.Stats
	if term := strings.ToLower(strings.TrimSpace(filter)); term != "" {
		filtered := make([]document.StatEntry, 0, len(stats))
		for _, entry := range stats {
			if strings.Contains(strings.ToLower(entry.Nick), term) {
				filtered = append(filtered, entry)
			}
		}
		stats = filtered
	}
	return analytics.Rank(stats, stage.CorrectTeams, key, direction)
}

// AreaPopularity is the per-area popularity block.
type AreaPopularity struct {
	Popular   []*analytics.PopularPick `json:"popular"`
	Unpopular []*analytics.PopularPick `json:"unpopular"`
}

// Popularity computes top and bottom picks per area. List length per
// area equals the area's slot count; short lists are padded with null.
func (s *Service) Popularity() map[string]AreaPopularity {
	s.mu.Lock()
	doc := s.history.Current().Clone()
	s.mu.Unlock()

	out := make(map[string]AreaPopularity, len(document.Areas))
	stage := doc.ActiveStage()
	for _, area := range document.Areas {
		block := AreaPopularity{}
		if stage != nil {
			freq := analytics.CountPicks(stage.Stats, area)
			block.Popular, block.Unpopular = analytics.PopularityExtremes(freq, document.AreaSize(area), len(stage.Stats))
		}
		if block.Popular == nil {
			block.Popular = make([]*analytics.PopularPick, document.AreaSize(area))
		}
		if block.Unpopular == nil {
			block.Unpopular = make([]*analytics.PopularPick, document.AreaSize(area))
		}
		out[area] = block
	}
	return out
}

// Frequencies returns raw per-area pick counts for the active stage.
func (s *Service) Frequencies() map[string]map[document.Ref]int {
	s.mu.Lock()
	doc := s.history.Current().Clone()
	s.mu.Unlock()

	out := make(map[string]map[document.Ref]int, len(document.Areas))
	stage := doc.ActiveStage()
	for _, area := range document.Areas {
		if stage == nil {
			out[area] = map[document.Ref]int{}
			continue
		}
		out[area] = analytics.CountPicks(stage.Stats, area).Counts()
	}
	return out
}

// Search queries assets and ledger entries.
func (s *Service) Search(q search.Query) search.Response {
	s.mu.Lock()
	doc := s.history.Current().Clone()
	s.mu.Unlock()
	return s.search.Search(doc, q)
}

// Export and import.

func (s *Service) ExportFull() (persist.Blob, error) {
	s.mu.Lock()
	doc := s.history.Current().Clone()
	s.mu.Unlock()
	return persist.ExportDocument(doc)
}

// ExportStats renders the active stage's ledger, ranked by the given
// key/direction, as a colored spreadsheet or PDF.
func (s *Service) ExportStats(key, direction string, format export.Format) (*export.Result, error) {
	s.mu.Lock()
	doc := s.history.Current().Clone()
	s.mu.Unlock()

	stage := doc.ActiveStage()
	if stage == nil {
		return nil, export.ErrNoStats
	}
	ranked := analytics.Rank(stage.Stats, stage.CorrectTeams, key, direction)
	return export.Stats(stage, ranked, analytics.TeamNames(doc.Library), format)
}

// Import replaces state from an uploaded payload. target selects the
// scope: the whole sheet, the active stage's rows, or its ledger.
func (s *Service) Import(raw []byte, target persist.ImportTarget) (StatePayload, error) {
	return s.apply(func(doc *document.Document) (*document.Document, error) {
		return persist.ImportDocument(raw, target, doc)
	})
}

// QuickSave commits the current sheet to the snapshot archive.
func (s *Service) QuickSave(author, message string) (archive.SnapshotInfo, error) {
	s.mu.Lock()
	doc := s.history.Current().Clone()
	s.mu.Unlock()

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return archive.SnapshotInfo{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.archive.Snapshot(payload, author, message)
}

func (s *Service) ArchiveEnabled() bool {
	return s.archive.Enabled()
}

func (s *Service) ArchiveHistory(limit int) ([]archive.SnapshotInfo, error) {
	return s.archive.History(limit)
}

// RestoreSnapshot loads an archived snapshot back into the live state.
func (s *Service) RestoreSnapshot(hash string) (StatePayload, error) {
	payload, _, err := s.archive.GetByHash(hash)
	if err != nil {
		return StatePayload{}, err
	}
	return s.apply(func(*document.Document) (*document.Document, error) {
		return document.Migrate(payload)
	})
}

func (s *Service) TagSnapshot(hash, name string) error {
	return s.archive.Tag(hash, name)
}

// TeamNames exposes the library display-name map keyed by asset src.
func (s *Service) TeamNames() map[string]string {
	s.mu.Lock()
	doc := s.history.Current().Clone()
	s.mu.Unlock()

	names := analytics.TeamNames(doc.Library)
	out := make(map[string]string, len(names))
	for ref, name := range names {
		out[string(ref)] = name
	}
	return out
}
