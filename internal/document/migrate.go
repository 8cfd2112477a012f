package document

import (
	"encoding/json"
	"time"
)

// Migrate accepts any previously-persisted or imported payload and returns a
// document satisfying the current schema. Payloads without a schemaVersion
// (or with an older one) are treated as the legacy single-stage shape and
// upgraded through the version pipeline; current payloads are structurally
// merged against the default document so newly-introduced fields are filled.
// Migrating an already-current document leaves its content unchanged.
func Migrate(raw []byte) (*Document, error) {
	var probe struct {
		SchemaVersion int `json:"schemaVersion"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, formatErrorf("document is not a JSON object")
	}
	if probe.SchemaVersion < SchemaVersion {
		var blob map[string]any
		if err := json.Unmarshal(raw, &blob); err != nil {
			return nil, formatErrorf("document is not a JSON object")
		}
		return upgradeLegacy(blob)
	}
	return decodeCurrent(raw)
}

// upgradeLegacy is the v1 -> v2 transition: a flat single-sheet payload
// becomes a one-stage document. Adding schema version 3 later means adding
// another transition here, composed after this one.
func upgradeLegacy(blob map[string]any) (*Document, error) {
	rowsRaw, hasRows := blob["rows"]
	if hasRows && rowsRaw != nil {
		if _, ok := rowsRaw.([]any); !ok {
			return nil, formatErrorf("rows is not a sequence")
		}
	}

	stage := NewStage("Stage 1 (imported)", 0)
	if list, ok := rowsRaw.([]any); ok {
		stage.Rows = rowsFromAny(list)
		stage.RowCount = len(stage.Rows)
	}
	if list, ok := blob["stats"].([]any); ok {
		stage.Stats = statsFromAny(list)
	}
	if m, ok := blob["correctTeams"].(map[string]any); ok {
		stage.CorrectTeams = correctTeamsFromAny(m)
	}

	doc := New()
	doc.Stages = []Stage{stage}
	doc.ActiveStageID = stage.ID
	doc.Library = libraryFromAny(blob["library"], nil)
	doc.LibraryCategories = nil

	doc.Bg = strOr(blob, "bg", doc.Bg)
	doc.BgImg = strOr(blob, "bgImg", "")
	doc.BgScale = numOr(blob, "bgScale", doc.BgScale)
	doc.BgPosX = numOr(blob, "bgPosX", doc.BgPosX)
	doc.BgPosY = numOr(blob, "bgPosY", doc.BgPosY)
	doc.VerticalPad = numOr(blob, "verticalPad", doc.VerticalPad)
	doc.HorizontalPad = numOr(blob, "horizontalPad", doc.HorizontalPad)
	doc.BorderRadius = numOr(blob, "borderRadius", doc.BorderRadius)
	doc.NickColWidth = numOr(blob, "nickColWidth", doc.NickColWidth)
	doc.TableOffsetY = numOr(blob, "tableOffsetY", doc.TableOffsetY)
	doc.AvatarsEnabled = boolOr(blob, "avatarsEnabled", doc.AvatarsEnabled)
	doc.HighlightPicksEnabled = boolOr(blob, "highlightPicksEnabled", doc.HighlightPicksEnabled)
	doc.PopularitySortEnabled = boolOr(blob, "popularitySortEnabled", doc.PopularitySortEnabled)
	doc.TransparentBackgroundEnabled = boolOr(blob, "transparentBackgroundEnabled", doc.TransparentBackgroundEnabled)

	syncCategories(doc)
	return doc, nil
}

// decodeCurrent merges a current-version payload over the default document,
// then normalizes nested records field-by-field.
func decodeCurrent(raw []byte) (*Document, error) {
	doc := New()
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, formatErrorf("document does not match the current schema: %v", err)
	}
	if err := normalize(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// normalize repairs defaulted and referential fields after a typed decode.
// It is idempotent: normalizing a normalized document changes nothing.
func normalize(doc *Document) error {
	if len(doc.Stages) == 0 {
		return formatErrorf("stages is not a non-empty sequence")
	}
	doc.SchemaVersion = SchemaVersion
	stageIDs := make(map[string]bool, len(doc.Stages))
	for i := range doc.Stages {
		stage := &doc.Stages[i]
		stageIDs[stage.ID] = true
		for j := range stage.Rows {
			normalizeRow(&stage.Rows[j], j)
		}
		stage.RowCount = len(stage.Rows)
		if stage.Stats == nil {
			stage.Stats = []StatEntry{}
		}
		for j := range stage.Stats {
			normalizeRow(&stage.Stats[j].Row, j)
		}
		if stage.CorrectTeams == nil {
			stage.CorrectTeams = NewCorrectTeams()
		}
		for _, area := range Areas {
			if stage.CorrectTeams[area] == nil {
				stage.CorrectTeams[area] = []Ref{}
			}
		}
	}
	if !stageIDs[doc.ActiveStageID] {
		doc.ActiveStageID = doc.Stages[0].ID
	}
	if doc.Library == nil {
		doc.Library = []LibraryAsset{}
	}
	for i := range doc.Library {
		if doc.Library[i].CategoryID != "" && !stageIDs[doc.Library[i].CategoryID] {
			doc.Library[i].CategoryID = ""
		}
	}
	syncCategories(doc)
	return nil
}

func normalizeRow(row *Row, pos int) {
	if row.ID == "" {
		row.ID = NewRow(pos).ID
	}
	if row.Nick == "" {
		row.Nick = DefaultNick(pos)
	}
	if row.AvatarScale <= 0 {
		row.AvatarScale = DefaultAvatarScale
	}
	if row.AvatarPosX <= 0 {
		row.AvatarPosX = DefaultAvatarPos
	}
	if row.AvatarPosY <= 0 {
		row.AvatarPosY = DefaultAvatarPos
	}
	if row.NickFontSize <= 0 {
		row.NickFontSize = DefaultNickFontSize
	}
	row.Three0 = fitRefs(row.Three0, AreaSize(AreaThree0))
	row.Pass = fitRefs(row.Pass, AreaSize(AreaPass))
	row.Out = fitRefs(row.Out, AreaSize(AreaOut))
}

func fitRefs(refs []Ref, size int) []Ref {
	out := make([]Ref, size)
	copy(out, refs)
	return out
}

// refsFromAny coerces an untyped pick array to the area's slot count.
// Extra elements are dropped, missing and non-string elements stay empty.
func refsFromAny(v any, size int) []Ref {
	refs := make([]Ref, size)
	list, ok := v.([]any)
	if !ok {
		return refs
	}
	for i := 0; i < size && i < len(list); i++ {
		if s, ok := list[i].(string); ok {
			refs[i] = Ref(s)
		}
	}
	return refs
}

// ParseRows decodes a rows-only payload: either {"rows": [...]} or a bare
// array. Each row passes the same validation and defaulting as migration.
func ParseRows(raw []byte) ([]Row, error) {
	var wrapper struct {
		Rows []any `json:"rows"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil || wrapper.Rows == nil {
		var bare []any
		if err := json.Unmarshal(raw, &bare); err != nil {
			return nil, formatErrorf("rows is not a sequence")
		}
		wrapper.Rows = bare
	}
	return rowsFromAny(wrapper.Rows), nil
}

// ParseStats decodes a stats-only payload {"stats": [...], "correctTeams": {...}}.
// At least one of the two sections must be present.
func ParseStats(raw []byte) ([]StatEntry, CorrectTeams, error) {
	var blob map[string]any
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, nil, formatErrorf("stats payload is not a JSON object")
	}
	statsRaw, hasStats := blob["stats"].([]any)
	teamsRaw, hasTeams := blob["correctTeams"].(map[string]any)
	if !hasStats && !hasTeams {
		return nil, nil, formatErrorf("stats payload has neither stats nor correctTeams")
	}
	stats := []StatEntry{}
	if hasStats {
		stats = statsFromAny(statsRaw)
	}
	teams := NewCorrectTeams()
	if hasTeams {
		teams = correctTeamsFromAny(teamsRaw)
	}
	return stats, teams, nil
}

// ImportFull decodes a user-supplied whole-document file. Unlike Migrate it
// rejects legacy payloads carrying none of the recognizable top-level fields.
func ImportFull(raw []byte) (*Document, error) {
	var blob map[string]any
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, formatErrorf("document is not a JSON object")
	}
	if _, ok := blob["schemaVersion"]; !ok {
		_, hasRows := blob["rows"]
		_, hasLibrary := blob["library"]
		if !hasRows && !hasLibrary {
			return nil, formatErrorf("document has neither rows nor library")
		}
	}
	return Migrate(raw)
}

func rowsFromAny(list []any) []Row {
	rows := make([]Row, len(list))
	for i, v := range list {
		rows[i] = rowFromAny(v, i)
	}
	return rows
}

func rowFromAny(v any, pos int) Row {
	row := NewRow(pos)
	m, ok := v.(map[string]any)
	if !ok {
		return row
	}
	if s, ok := m["id"].(string); ok && s != "" {
		row.ID = s
	}
	if s, ok := m["nick"].(string); ok && s != "" {
		row.Nick = s
	}
	if s, ok := m["avatar"].(string); ok {
		row.Avatar = s
	}
	row.AvatarScale = numOr(m, "avatarScale", DefaultAvatarScale)
	row.AvatarPosX = numOr(m, "avatarPosX", DefaultAvatarPos)
	row.AvatarPosY = numOr(m, "avatarPosY", DefaultAvatarPos)
	row.NickFontSize = numOr(m, "nickFontSize", DefaultNickFontSize)
	row.Three0 = refsFromAny(m["three0"], AreaSize(AreaThree0))
	row.Pass = refsFromAny(m["pass"], AreaSize(AreaPass))
	row.Out = refsFromAny(m["out"], AreaSize(AreaOut))
	return row
}

func statsFromAny(list []any) []StatEntry {
	stats := make([]StatEntry, len(list))
	for i, v := range list {
		entry := StatEntry{Row: rowFromAny(v, i)}
		if m, ok := v.(map[string]any); ok {
			if score, ok := m["score"].(float64); ok {
				entry.Score = int(score)
			}
			if stamp, ok := m["addedAt"].(string); ok {
				if t, err := time.Parse(time.RFC3339, stamp); err == nil {
					entry.AddedAt = t
				}
			}
		}
		stats[i] = entry
	}
	return stats
}

func correctTeamsFromAny(m map[string]any) CorrectTeams {
	teams := NewCorrectTeams()
	for _, area := range Areas {
		list, ok := m[area].([]any)
		if !ok {
			continue
		}
		refs := make([]Ref, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok && s != "" {
				refs = append(refs, Ref(s))
			}
		}
		teams[area] = refs
	}
	return teams
}

func libraryFromAny(v any, stageIDs map[string]bool) []LibraryAsset {
	list, ok := v.([]any)
	if !ok {
		return []LibraryAsset{}
	}
	assets := make([]LibraryAsset, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		asset := LibraryAsset{}
		asset.ID, _ = m["id"].(string)
		asset.Src, _ = m["src"].(string)
		asset.Name, _ = m["name"].(string)
		if id, ok := m["categoryId"].(string); ok && stageIDs[id] {
			asset.CategoryID = id
		}
		assets = append(assets, asset)
	}
	return assets
}

func numOr(m map[string]any, key string, fallback int) int {
	if v, ok := m[key].(float64); ok && v != 0 {
		return int(v)
	}
	return fallback
}

func strOr(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func boolOr(m map[string]any, key string, fallback bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return fallback
}
