package document

import (
	"fmt"
	"strings"
	"time"
)

// Row count bounds for a stage.
const (
	MinRowCount = 1
	MaxRowCount = 30
)

// Nick font size bounds.
const (
	MinNickFontSize = 8
	MaxNickFontSize = 32
)

// Avatar transform bounds.
const (
	MinAvatarScale = 50
	MaxAvatarScale = 400
)

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// AddStage appends a new stage with the default rows and makes it active.
func AddStage(doc *Document) *Document {
	next := doc.Clone()
	stage := NewStage("", len(next.Stages))
	next.Stages = append(next.Stages, stage)
	next.ActiveStageID = stage.ID
	syncCategories(next)
	return next
}

// DeleteStage removes a stage. Deleting the only stage is refused with
// ErrLastStage. Library assets categorized under the deleted stage fall back
// to uncategorized; the active pointer moves to the first remaining stage.
func DeleteStage(doc *Document, id string) (*Document, error) {
	if doc.Stage(id) == nil {
		return doc, validationErrorf("deleteStage", "unknown stage %q", id)
	}
	if len(doc.Stages) <= 1 {
		return doc, ErrLastStage
	}
	next := doc.Clone()
	stages := next.Stages[:0]
	for _, stage := range next.Stages {
		if stage.ID != id {
			stages = append(stages, stage)
		}
	}
	next.Stages = stages
	if next.ActiveStageID == id {
		next.ActiveStageID = next.Stages[0].ID
	}
	for i := range next.Library {
		if next.Library[i].CategoryID == id {
			next.Library[i].CategoryID = ""
		}
	}
	syncCategories(next)
	return next, nil
}

// RenameStage sets a stage's name. A blank name is an accepted no-op: the
// prior name stays and the same document is returned.
func RenameStage(doc *Document, id, name string) (*Document, error) {
	stage := doc.Stage(id)
	if stage == nil {
		return doc, validationErrorf("renameStage", "unknown stage %q", id)
	}
	if strings.TrimSpace(name) == "" || stage.Name == name {
		return doc, nil
	}
	next := doc.Clone()
	next.Stage(id).Name = name
	syncCategories(next)
	return next, nil
}

// SelectStage moves the active-stage pointer.
func SelectStage(doc *Document, id string) (*Document, error) {
	if doc.Stage(id) == nil {
		return doc, validationErrorf("selectStage", "unknown stage %q", id)
	}
	if doc.ActiveStageID == id {
		return doc, nil
	}
	next := doc.Clone()
	next.ActiveStageID = id
	return next, nil
}

// SetRowCount resizes the active stage to n rows, clamped to [1,30]. Growing
// appends freshly-initialized rows; shrinking truncates from the end.
func SetRowCount(doc *Document, n int) *Document {
	n = clamp(n, MinRowCount, MaxRowCount)
	next := doc.Clone()
	stage := next.ActiveStage()
	for len(stage.Rows) < n {
		stage.Rows = append(stage.Rows, NewRow(len(stage.Rows)))
	}
	stage.Rows = stage.Rows[:n]
	stage.RowCount = n
	return next
}

// MoveRow swaps the row at index with its neighbor in direction (-1 or +1).
// Out-of-range moves leave the document unchanged.
func MoveRow(doc *Document, index, direction int) *Document {
	target := index + direction
	rows := doc.ActiveStage().Rows
	if index < 0 || index >= len(rows) || target < 0 || target >= len(rows) {
		return doc
	}
	next := doc.Clone()
	stage := next.ActiveStage()
	stage.Rows[index], stage.Rows[target] = stage.Rows[target], stage.Rows[index]
	return next
}

// ClearRowPicks resets a row's nickname to the positional default and empties
// every pick slot. The avatar and its transform are left alone.
func ClearRowPicks(doc *Document, index int) (*Document, error) {
	if err := checkRowIndex(doc, "clearRowPicks", index); err != nil {
		return doc, err
	}
	next := doc.Clone()
	row := &next.ActiveStage().Rows[index]
	row.Nick = DefaultNick(index)
	row.Three0 = make([]Ref, AreaSize(AreaThree0))
	row.Pass = make([]Ref, AreaSize(AreaPass))
	row.Out = make([]Ref, AreaSize(AreaOut))
	return next, nil
}

// SetPick writes ref into one pick slot. An empty ref clears the slot. A
// non-empty ref already occupying a different slot of the same area is
// rejected with DuplicatePickError; the caller decides how to surface it.
func SetPick(doc *Document, rowIndex int, area string, slotIndex int, ref Ref) (*Document, error) {
	if err := checkRowIndex(doc, "setPick", rowIndex); err != nil {
		return doc, err
	}
	size := AreaSize(area)
	if size == 0 {
		return doc, validationErrorf("setPick", "unknown area %q", area)
	}
	if slotIndex < 0 || slotIndex >= size {
		return doc, validationErrorf("setPick", "slot %d out of range for area %q", slotIndex, area)
	}
	if ref != "" {
		for i, existing := range doc.ActiveStage().Rows[rowIndex].Area(area) {
			if existing == ref && i != slotIndex {
				return doc, &DuplicatePickError{RowIndex: rowIndex, Area: area, Ref: ref}
			}
		}
	}
	next := doc.Clone()
	next.ActiveStage().Rows[rowIndex].Area(area)[slotIndex] = ref
	return next, nil
}

// SetRowNick renames a row. Blank nicks are kept verbatim so the operator can
// intentionally clear a name.
func SetRowNick(doc *Document, index int, nick string) (*Document, error) {
	if err := checkRowIndex(doc, "setRowNick", index); err != nil {
		return doc, err
	}
	next := doc.Clone()
	next.ActiveStage().Rows[index].Nick = nick
	return next, nil
}

// SetRowNickFontSize sets the nick font size, clamped to [8,32].
func SetRowNickFontSize(doc *Document, index, size int) (*Document, error) {
	if err := checkRowIndex(doc, "setRowNickFontSize", index); err != nil {
		return doc, err
	}
	next := doc.Clone()
	next.ActiveStage().Rows[index].NickFontSize = clamp(size, MinNickFontSize, MaxNickFontSize)
	return next, nil
}

// SetRowAvatar replaces a row's avatar and resets its transform to defaults.
// An empty src removes the avatar.
func SetRowAvatar(doc *Document, index int, src string) (*Document, error) {
	if err := checkRowIndex(doc, "setRowAvatar", index); err != nil {
		return doc, err
	}
	next := doc.Clone()
	row := &next.ActiveStage().Rows[index]
	row.Avatar = src
	row.AvatarScale = DefaultAvatarScale
	row.AvatarPosX = DefaultAvatarPos
	row.AvatarPosY = DefaultAvatarPos
	return next, nil
}

// SetRowAvatarTransform updates the avatar scale and position, clamped.
func SetRowAvatarTransform(doc *Document, index, scale, posX, posY int) (*Document, error) {
	if err := checkRowIndex(doc, "setRowAvatarTransform", index); err != nil {
		return doc, err
	}
	next := doc.Clone()
	row := &next.ActiveStage().Rows[index]
	row.AvatarScale = clamp(scale, MinAvatarScale, MaxAvatarScale)
	row.AvatarPosX = clamp(posX, 0, 100)
	row.AvatarPosY = clamp(posY, 0, 100)
	return next, nil
}

func checkRowIndex(doc *Document, op string, index int) error {
	if index < 0 || index >= len(doc.ActiveStage().Rows) {
		return validationErrorf(op, "row %d out of range", index)
	}
	return nil
}

// AddAssets appends uploaded assets to the library.
func AddAssets(doc *Document, assets ...LibraryAsset) *Document {
	if len(assets) == 0 {
		return doc
	}
	next := doc.Clone()
	next.Library = append(next.Library, assets...)
	return next
}

// RemoveAsset deletes an asset from the library. Picks referencing its src
// keep their value; the reference is opaque and stays renderable.
func RemoveAsset(doc *Document, id string) (*Document, error) {
	if findAsset(doc, id) < 0 {
		return doc, validationErrorf("removeAsset", "unknown asset %q", id)
	}
	next := doc.Clone()
	i := findAsset(next, id)
	next.Library = append(next.Library[:i], next.Library[i+1:]...)
	return next, nil
}

// RenameAsset sets an asset's display name. Blank names are a no-op.
func RenameAsset(doc *Document, id, name string) (*Document, error) {
	i := findAsset(doc, id)
	if i < 0 {
		return doc, validationErrorf("renameAsset", "unknown asset %q", id)
	}
	if strings.TrimSpace(name) == "" || doc.Library[i].Name == name {
		return doc, nil
	}
	next := doc.Clone()
	next.Library[i].Name = name
	return next, nil
}

// MoveAssetToCategory assigns an asset to a stage category. An empty
// categoryID means uncategorized; anything else must be an existing stage id.
func MoveAssetToCategory(doc *Document, id, categoryID string) (*Document, error) {
	i := findAsset(doc, id)
	if i < 0 {
		return doc, validationErrorf("moveAssetToCategory", "unknown asset %q", id)
	}
	if categoryID != "" && doc.Stage(categoryID) == nil {
		return doc, validationErrorf("moveAssetToCategory", "unknown category %q", categoryID)
	}
	next := doc.Clone()
	next.Library[i].CategoryID = categoryID
	return next, nil
}

func findAsset(doc *Document, id string) int {
	for i := range doc.Library {
		if doc.Library[i].ID == id {
			return i
		}
	}
	return -1
}

// ToggleCorrect flips an asset's membership in the active stage's answer key.
func ToggleCorrect(doc *Document, area string, ref Ref) (*Document, error) {
	if AreaSize(area) == 0 {
		return doc, validationErrorf("toggleCorrect", "unknown area %q", area)
	}
	if ref == "" {
		return doc, validationErrorf("toggleCorrect", "empty asset reference")
	}
	next := doc.Clone()
	teams := next.ActiveStage().CorrectTeams
	for i, existing := range teams[area] {
		if existing == ref {
			teams[area] = append(teams[area][:i], teams[area][i+1:]...)
			return next, nil
		}
	}
	teams[area] = append(teams[area], ref)
	return next, nil
}

// AppendStats appends already-scored entries to the active stage's ledger.
// The analytics engine decides which entries to commit; this is the storage
// half of that boundary.
func AppendStats(doc *Document, entries []StatEntry) *Document {
	if len(entries) == 0 {
		return doc
	}
	next := doc.Clone()
	stage := next.ActiveStage()
	for _, entry := range entries {
		stage.Stats = append(stage.Stats, entry.Clone())
	}
	return next
}

// ClearStats drops the active stage's whole stat ledger.
func ClearStats(doc *Document) *Document {
	next := doc.Clone()
	next.ActiveStage().Stats = []StatEntry{}
	return next
}

// DeleteStatEntry removes one ledger entry by id.
func DeleteStatEntry(doc *Document, id string) (*Document, error) {
	if findStat(doc, id) < 0 {
		return doc, validationErrorf("deleteStatEntry", "unknown stat entry %q", id)
	}
	next := doc.Clone()
	stage := next.ActiveStage()
	i := findStat(next, id)
	stage.Stats = append(stage.Stats[:i], stage.Stats[i+1:]...)
	return next, nil
}

// RenameStatEntry updates a ledger entry's nickname in place.
func RenameStatEntry(doc *Document, id, nick string) (*Document, error) {
	if findStat(doc, id) < 0 {
		return doc, validationErrorf("renameStatEntry", "unknown stat entry %q", id)
	}
	next := doc.Clone()
	next.ActiveStage().Stats[findStat(next, id)].Nick = nick
	return next, nil
}

// RestoreRowFromStat copies a ledger entry back into the sheet. It fills the
// first fully-default row; with none free it appends a new row, growing the
// row count.
func RestoreRowFromStat(doc *Document, id string) (*Document, error) {
	i := findStat(doc, id)
	if i < 0 {
		return doc, validationErrorf("restoreRowFromStat", "unknown stat entry %q", id)
	}
	next := doc.Clone()
	stage := next.ActiveStage()
	restored := stage.Stats[i].Row.Clone()

	for j := range stage.Rows {
		if IsDefaultRow(&stage.Rows[j]) {
			restored.ID = stage.Rows[j].ID
			stage.Rows[j] = restored
			return next, nil
		}
	}
	restored.ID = fmt.Sprintf("r-%d", len(stage.Rows))
	stage.Rows = append(stage.Rows, restored)
	stage.RowCount = len(stage.Rows)
	return next, nil
}

func findStat(doc *Document, id string) int {
	stats := doc.ActiveStage().Stats
	for i := range stats {
		if stats[i].ID == id {
			return i
		}
	}
	return -1
}

// IsDefaultRow reports whether the row carries no participation signal at
// all: default positional nick, no avatar, all picks empty.
func IsDefaultRow(row *Row) bool {
	if !strings.HasPrefix(row.Nick, "Player ") || row.Avatar != "" {
		return false
	}
	return PicksEmpty(row)
}

// PicksEmpty reports whether every pick slot of the row is empty.
func PicksEmpty(row *Row) bool {
	for _, area := range Areas {
		for _, ref := range row.Area(area) {
			if ref != "" {
				return false
			}
		}
	}
	return true
}

// NumericSettings maps the settable numeric presentation fields to their
// clamp ranges. Out-of-range input is clamped, never rejected.
var NumericSettings = map[string]struct {
	Min, Max int
}{
	"bgScale":       {50, 200},
	"bgPosX":        {0, 100},
	"bgPosY":        {0, 100},
	"verticalPad":   {0, 200},
	"horizontalPad": {0, 200},
	"borderRadius":  {0, 50},
	"tableOffsetY":  {-300, 300},
	"nickColWidth":  {50, 400},
}

// SetNumericSetting clamps and writes one numeric presentation field.
func SetNumericSetting(doc *Document, key string, value int) (*Document, error) {
	bounds, ok := NumericSettings[key]
	if !ok {
		return doc, validationErrorf("setNumericSetting", "unknown setting %q", key)
	}
	next := doc.Clone()
	value = clamp(value, bounds.Min, bounds.Max)
	switch key {
	case "bgScale":
		next.BgScale = value
	case "bgPosX":
		next.BgPosX = value
	case "bgPosY":
		next.BgPosY = value
	case "verticalPad":
		next.VerticalPad = value
	case "horizontalPad":
		next.HorizontalPad = value
	case "borderRadius":
		next.BorderRadius = value
	case "tableOffsetY":
		next.TableOffsetY = value
	case "nickColWidth":
		next.NickColWidth = value
	}
	return next, nil
}

// SetToggle writes one boolean feature toggle.
func SetToggle(doc *Document, key string, on bool) (*Document, error) {
	next := doc.Clone()
	switch key {
	case "avatarsEnabled":
		next.AvatarsEnabled = on
	case "highlightPicksEnabled":
		next.HighlightPicksEnabled = on
	case "popularitySortEnabled":
		next.PopularitySortEnabled = on
	case "transparentBackgroundEnabled":
		next.TransparentBackgroundEnabled = on
	default:
		return doc, validationErrorf("setToggle", "unknown toggle %q", key)
	}
	return next, nil
}

// SetBackgroundColor sets the sheet background color.
func SetBackgroundColor(doc *Document, color string) *Document {
	next := doc.Clone()
	next.Bg = color
	return next
}

// SetBackgroundImage sets (or clears, with "") the background image source.
func SetBackgroundImage(doc *Document, src string) *Document {
	next := doc.Clone()
	next.BgImg = src
	return next
}

// ResetDesign restores the presentation block to defaults, leaving stages,
// library and toggles untouched.
func ResetDesign(doc *Document) *Document {
	next := doc.Clone()
	resetDesign(next)
	return next
}

// StatEntryID derives a fresh ledger identity for a row committed at position
// i, so an unchanged row copied later gets a distinct entry.
func StatEntryID(rowID string, i int) string {
	return fmt.Sprintf("%s-%d-%d", rowID, time.Now().UnixMilli(), i)
}
