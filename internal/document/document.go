// Package document defines the versioned picksheet document, its default
// values, the migration pipeline and the pure mutation operators. Every
// mutator takes a document value and returns a fresh one; nothing in this
// package mutates its input.
package document

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// SchemaVersion is the current persisted document schema version.
const SchemaVersion = 2

// Pick areas. Every row carries a fixed number of pick slots per area.
const (
	AreaThree0 = "three0"
	AreaPass   = "pass"
	AreaOut    = "out"
)

// Areas lists the pick areas in display order.
var Areas = []string{AreaThree0, AreaPass, AreaOut}

// AreaSize returns the fixed slot count for an area, or 0 for an unknown one.
func AreaSize(area string) int {
	switch area {
	case AreaThree0, AreaOut:
		return 2
	case AreaPass:
		return 6
	default:
		return 0
	}
}

// Ref is an asset reference held by a pick slot or answer key. The zero Ref
// means "empty" and marshals as JSON null so persisted documents stay
// byte-compatible with files written by the legacy editor.
type Ref string

func (r Ref) MarshalJSON() ([]byte, error) {
	if r == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = Ref(s)
	return nil
}

// Row is one player line of the sheet: nickname, avatar presentation and the
// three fixed-length pick areas.
type Row struct {
	ID           string `json:"id"`
	Nick         string `json:"nick"`
	Avatar       string `json:"avatar"`
	AvatarScale  int    `json:"avatarScale"`
	AvatarPosX   int    `json:"avatarPosX"`
	AvatarPosY   int    `json:"avatarPosY"`
	Three0       []Ref  `json:"three0"`
	Pass         []Ref  `json:"pass"`
	Out          []Ref  `json:"out"`
	NickFontSize int    `json:"nickFontSize"`
}

// Area returns the pick slice for the named area, or nil for an unknown one.
// The returned slice aliases the row; callers needing isolation clone first.
func (r *Row) Area(area string) []Ref {
	switch area {
	case AreaThree0:
		return r.Three0
	case AreaPass:
		return r.Pass
	case AreaOut:
		return r.Out
	default:
		return nil
	}
}

func (r Row) Clone() Row {
	out := r
	out.Three0 = append([]Ref(nil), r.Three0...)
	out.Pass = append([]Ref(nil), r.Pass...)
	out.Out = append([]Ref(nil), r.Out...)
	return out
}

// StatEntry is a frozen, scored copy of a row committed to a stage's
// historical ledger. Its identity is distinct from the originating row so the
// same player can be committed again once their picks change.
type StatEntry struct {
	Row
	Score   int       `json:"score"`
	AddedAt time.Time `json:"addedAt,omitempty"`
}

func (e StatEntry) Clone() StatEntry {
	out := e
	out.Row = e.Row.Clone()
	return out
}

// CorrectTeams is the per-area answer key used for scoring.
type CorrectTeams map[string][]Ref

func (c CorrectTeams) Clone() CorrectTeams {
	out := make(CorrectTeams, len(c))
	for area, refs := range c {
		out[area] = append([]Ref(nil), refs...)
	}
	return out
}

// NewCorrectTeams returns an answer key with every area present and empty.
func NewCorrectTeams() CorrectTeams {
	return CorrectTeams{AreaThree0: {}, AreaPass: {}, AreaOut: {}}
}

// Stage is one named sheet of rows with its own answer key and stat ledger.
type Stage struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Rows         []Row        `json:"rows"`
	RowCount     int          `json:"rowCount"`
	Stats        []StatEntry  `json:"stats"`
	CorrectTeams CorrectTeams `json:"correctTeams"`
}

func (s Stage) Clone() Stage {
	out := s
	out.Rows = make([]Row, len(s.Rows))
	for i, row := range s.Rows {
		out.Rows[i] = row.Clone()
	}
	out.Stats = make([]StatEntry, len(s.Stats))
	for i, entry := range s.Stats {
		out.Stats[i] = entry.Clone()
	}
	out.CorrectTeams = s.CorrectTeams.Clone()
	return out
}

// LibraryAsset is an uploaded icon. CategoryID references a stage id, or is
// empty for uncategorized assets.
type LibraryAsset struct {
	ID         string `json:"id"`
	Src        string `json:"src"`
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
}

// Category mirrors a stage's identity for library organization. It is a pure
// projection recomputed from the stage list, never edited directly.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Document is the whole editable state tree.
type Document struct {
	SchemaVersion     int            `json:"schemaVersion"`
	Stages            []Stage        `json:"stages"`
	ActiveStageID     string         `json:"activeStageId"`
	Library           []LibraryAsset `json:"library"`
	LibraryCategories []Category     `json:"libraryCategories"`

	// Global presentation settings. Flat scalars, clamped at the edit boundary.
	Bg                           string `json:"bg"`
	BgImg                        string `json:"bgImg"`
	BgScale                      int    `json:"bgScale"`
	BgPosX                       int    `json:"bgPosX"`
	BgPosY                       int    `json:"bgPosY"`
	VerticalPad                  int    `json:"verticalPad"`
	HorizontalPad                int    `json:"horizontalPad"`
	BorderRadius                 int    `json:"borderRadius"`
	AvatarsEnabled               bool   `json:"avatarsEnabled"`
	HighlightPicksEnabled        bool   `json:"highlightPicksEnabled"`
	PopularitySortEnabled        bool   `json:"popularitySortEnabled"`
	NickColWidth                 int    `json:"nickColWidth"`
	TableOffsetY                 int    `json:"tableOffsetY"`
	TransparentBackgroundEnabled bool   `json:"transparentBackgroundEnabled"`
}

// Default values for rows and settings.
const (
	DefaultRowCount     = 10
	DefaultAvatarScale  = 100
	DefaultAvatarPos    = 50
	DefaultNickFontSize = 14
	DefaultBg           = "#101018"
	DefaultBgScale      = 115
	DefaultBgPos        = 50
	DefaultVerticalPad  = 100
	DefaultHorizontal   = 40
	DefaultNickColWidth = 120
)

// DefaultNick is the positional default nickname for row index i.
func DefaultNick(i int) string {
	return fmt.Sprintf("Player %d", i+1)
}

// NewRow builds a freshly-initialized row for position i.
func NewRow(i int) Row {
	return Row{
		ID:           fmt.Sprintf("r-%d", i),
		Nick:         DefaultNick(i),
		AvatarScale:  DefaultAvatarScale,
		AvatarPosX:   DefaultAvatarPos,
		AvatarPosY:   DefaultAvatarPos,
		Three0:       make([]Ref, AreaSize(AreaThree0)),
		Pass:         make([]Ref, AreaSize(AreaPass)),
		Out:          make([]Ref, AreaSize(AreaOut)),
		NickFontSize: DefaultNickFontSize,
	}
}

func newRows(count int) []Row {
	rows := make([]Row, count)
	for i := range rows {
		rows[i] = NewRow(i)
	}
	return rows
}

// NewStage builds a stage with the default ten rows. An empty name yields the
// generated "Stage {n}" name for position index.
func NewStage(name string, index int) Stage {
	if name == "" {
		name = fmt.Sprintf("Stage %d", index+1)
	}
	return Stage{
		ID:           fmt.Sprintf("s-%d-%d", time.Now().UnixMilli(), index),
		Name:         name,
		Rows:         newRows(DefaultRowCount),
		RowCount:     DefaultRowCount,
		Stats:        []StatEntry{},
		CorrectTeams: NewCorrectTeams(),
	}
}

// New returns the hard-coded initial document: one default stage, empty
// library, default presentation settings.
func New() *Document {
	stage := NewStage("", 0)
	doc := &Document{
		SchemaVersion:     SchemaVersion,
		Stages:            []Stage{stage},
		ActiveStageID:     stage.ID,
		Library:           []LibraryAsset{},
		LibraryCategories: []Category{},
	}
	resetDesign(doc)
	doc.AvatarsEnabled = true
	syncCategories(doc)
	return doc
}

func resetDesign(doc *Document) {
	doc.Bg = DefaultBg
	doc.BgImg = ""
	doc.BgScale = DefaultBgScale
	doc.BgPosX = DefaultBgPos
	doc.BgPosY = DefaultBgPos
	doc.VerticalPad = DefaultVerticalPad
	doc.HorizontalPad = DefaultHorizontal
	doc.BorderRadius = 0
	doc.TableOffsetY = 0
}

// Clone deep-copies the document. History snapshots and mutators rely on this
// instead of serialization round-trips.
func (d *Document) Clone() *Document {
	out := *d
	out.Stages = make([]Stage, len(d.Stages))
	for i, stage := range d.Stages {
		out.Stages[i] = stage.Clone()
	}
	out.Library = append([]LibraryAsset(nil), d.Library...)
	out.LibraryCategories = append([]Category(nil), d.LibraryCategories...)
	return &out
}

// Equal reports structural equality of two documents.
func Equal(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}
	return reflect.DeepEqual(*a, *b)
}

// Stage returns the stage with the given id, or nil.
func (d *Document) Stage(id string) *Stage {
	for i := range d.Stages {
		if d.Stages[i].ID == id {
			return &d.Stages[i]
		}
	}
	return nil
}

// ActiveStage returns the stage referenced by ActiveStageID, falling back to
// the first stage if the pointer is stale.
func (d *Document) ActiveStage() *Stage {
	if s := d.Stage(d.ActiveStageID); s != nil {
		return s
	}
	return &d.Stages[0]
}

// syncCategories recomputes the library category projection from the stage
// list. The document is left untouched when the projection already matches,
// so unrelated edits do not invalidate memoized readers.
func syncCategories(doc *Document) {
	next := make([]Category, len(doc.Stages))
	for i, stage := range doc.Stages {
		next[i] = Category{ID: stage.ID, Name: stage.Name}
	}
	if reflect.DeepEqual(next, doc.LibraryCategories) {
		return
	}
	doc.LibraryCategories = next
}
