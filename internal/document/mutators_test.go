package document

import (
	"errors"
	"testing"
)

func TestDeleteLastStageRefused(t *testing.T) {
	doc := New()
	_, err := DeleteStage(doc, doc.Stages[0].ID)
	if !errors.Is(err, ErrLastStage) {
		t.Fatalf("expected ErrLastStage, got %v", err)
	}
}

func TestDeleteStageReassignsActiveAndCategories(t *testing.T) {
	doc := AddStage(New())
	first, second := doc.Stages[0].ID, doc.Stages[1].ID
	doc = AddAssets(doc, LibraryAsset{ID: "a1", Src: "x.png", Name: "X", CategoryID: second})

	next, err := DeleteStage(doc, second)
	if err != nil {
		t.Fatalf("DeleteStage failed: %v", err)
	}
	if len(next.Stages) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(next.Stages))
	}
	if next.ActiveStageID != first {
		t.Errorf("active stage not reassigned, got %q", next.ActiveStageID)
	}
	if next.Library[0].CategoryID != "" {
		t.Errorf("asset category not cleared, got %q", next.Library[0].CategoryID)
	}
	if len(next.LibraryCategories) != 1 {
		t.Errorf("categories not resynced, got %d", len(next.LibraryCategories))
	}
	// the input document is untouched
	if len(doc.Stages) != 2 {
		t.Errorf("input document was mutated")
	}
}

func TestRenameStageBlankIsNoOp(t *testing.T) {
	doc := New()
	next, err := RenameStage(doc, doc.Stages[0].ID, "   ")
	if err != nil {
		t.Fatalf("RenameStage failed: %v", err)
	}
	if !Equal(doc, next) {
		t.Errorf("blank rename should leave the document unchanged")
	}
}

func TestSetRowCountClampAndResize(t *testing.T) {
	doc := New()
	doc.Stages[0].Rows[0].Nick = "Keeper"

	grown := SetRowCount(doc, 99)
	if got := len(grown.ActiveStage().Rows); got != MaxRowCount {
		t.Fatalf("expected clamp to %d rows, got %d", MaxRowCount, got)
	}
	if grown.ActiveStage().Rows[0].Nick != "Keeper" {
		t.Errorf("existing rows should survive growth")
	}
	if grown.ActiveStage().Rows[29].Nick != DefaultNick(29) {
		t.Errorf("appended rows should carry positional defaults")
	}

	shrunk := SetRowCount(grown, -5)
	if got := len(shrunk.ActiveStage().Rows); got != MinRowCount {
		t.Fatalf("expected clamp to %d row, got %d", MinRowCount, got)
	}
	if shrunk.ActiveStage().Rows[0].Nick != "Keeper" {
		t.Errorf("shrinking should truncate from the end")
	}
}

func TestMoveRowOutOfRangeIsNoOp(t *testing.T) {
	doc := New()
	if next := MoveRow(doc, 0, -1); !Equal(doc, next) {
		t.Errorf("moving the first row up should change nothing")
	}
	if next := MoveRow(doc, len(doc.ActiveStage().Rows)-1, 1); !Equal(doc, next) {
		t.Errorf("moving the last row down should change nothing")
	}

	next := MoveRow(doc, 0, 1)
	if next.ActiveStage().Rows[1].Nick != DefaultNick(0) {
		t.Errorf("adjacent rows not swapped")
	}
}

func TestSetPickRejectsDuplicateInArea(t *testing.T) {
	doc := New()
	doc, err := SetPick(doc, 0, AreaPass, 0, "team.png")
	if err != nil {
		t.Fatalf("SetPick failed: %v", err)
	}

	_, err = SetPick(doc, 0, AreaPass, 1, "team.png")
	var dup *DuplicatePickError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicatePickError, got %v", err)
	}
	if dup.Area != AreaPass || dup.Ref != "team.png" {
		t.Errorf("unexpected error payload: %+v", dup)
	}

	// rewriting the same slot is fine
	if _, err := SetPick(doc, 0, AreaPass, 0, "team.png"); err != nil {
		t.Errorf("same-slot rewrite should pass: %v", err)
	}
	// the same ref in another area is fine
	if _, err := SetPick(doc, 0, AreaThree0, 0, "team.png"); err != nil {
		t.Errorf("cross-area repeat should pass: %v", err)
	}
	// clearing always passes
	if _, err := SetPick(doc, 0, AreaPass, 0, ""); err != nil {
		t.Errorf("clearing a slot should pass: %v", err)
	}
}

func TestSetPickValidatesTarget(t *testing.T) {
	doc := New()
	if _, err := SetPick(doc, 50, AreaPass, 0, "x"); err == nil {
		t.Errorf("expected error for row out of range")
	}
	if _, err := SetPick(doc, 0, "bogus", 0, "x"); err == nil {
		t.Errorf("expected error for unknown area")
	}
	if _, err := SetPick(doc, 0, AreaOut, 5, "x"); err == nil {
		t.Errorf("expected error for slot out of range")
	}
}

func TestClearRowPicksResetsNick(t *testing.T) {
	doc := New()
	doc, _ = SetRowNick(doc, 2, "Someone")
	doc, _ = SetPick(doc, 2, AreaOut, 0, "x.png")
	doc, _ = SetRowAvatar(doc, 2, "face.png")

	next, err := ClearRowPicks(doc, 2)
	if err != nil {
		t.Fatalf("ClearRowPicks failed: %v", err)
	}
	row := &next.ActiveStage().Rows[2]
	if row.Nick != DefaultNick(2) {
		t.Errorf("nick not reset, got %q", row.Nick)
	}
	if !PicksEmpty(row) {
		t.Errorf("picks not cleared")
	}
	if row.Avatar != "face.png" {
		t.Errorf("avatar should survive a pick clear")
	}
}

func TestSetRowAvatarResetsTransform(t *testing.T) {
	doc := New()
	doc, _ = SetRowAvatarTransform(doc, 0, 300, 10, 90)
	doc, _ = SetRowAvatar(doc, 0, "new.png")

	row := &doc.ActiveStage().Rows[0]
	if row.AvatarScale != DefaultAvatarScale || row.AvatarPosX != DefaultAvatarPos || row.AvatarPosY != DefaultAvatarPos {
		t.Errorf("transform not reset: scale=%d pos=%d/%d", row.AvatarScale, row.AvatarPosX, row.AvatarPosY)
	}
}

func TestSetRowNickFontSizeClamps(t *testing.T) {
	doc := New()
	doc, err := SetRowNickFontSize(doc, 0, 100)
	if err != nil {
		t.Fatalf("SetRowNickFontSize failed: %v", err)
	}
	if doc.ActiveStage().Rows[0].NickFontSize != MaxNickFontSize {
		t.Errorf("size not clamped, got %d", doc.ActiveStage().Rows[0].NickFontSize)
	}
	doc, _ = SetRowNickFontSize(doc, 0, 1)
	if doc.ActiveStage().Rows[0].NickFontSize != MinNickFontSize {
		t.Errorf("size not clamped, got %d", doc.ActiveStage().Rows[0].NickFontSize)
	}
}

func TestSetRowAvatarTransformClamps(t *testing.T) {
	doc := New()
	doc, _ = SetRowAvatarTransform(doc, 0, 1000, -5, 200)
	row := &doc.ActiveStage().Rows[0]
	if row.AvatarScale != MaxAvatarScale {
		t.Errorf("scale not clamped, got %d", row.AvatarScale)
	}
	if row.AvatarPosX != 0 || row.AvatarPosY != 100 {
		t.Errorf("position not clamped, got %d/%d", row.AvatarPosX, row.AvatarPosY)
	}
}

func TestMoveAssetToCategoryValidates(t *testing.T) {
	doc := AddAssets(New(), LibraryAsset{ID: "a1", Src: "x.png", Name: "X"})

	if _, err := MoveAssetToCategory(doc, "a1", "nope"); err == nil {
		t.Errorf("expected error for unknown category")
	}
	next, err := MoveAssetToCategory(doc, "a1", doc.Stages[0].ID)
	if err != nil {
		t.Fatalf("MoveAssetToCategory failed: %v", err)
	}
	if next.Library[0].CategoryID != doc.Stages[0].ID {
		t.Errorf("category not assigned")
	}
	if next, err := MoveAssetToCategory(next, "a1", ""); err != nil || next.Library[0].CategoryID != "" {
		t.Errorf("empty category should mean uncategorized")
	}
}

func TestToggleCorrectFlips(t *testing.T) {
	doc := New()
	doc, err := ToggleCorrect(doc, AreaThree0, "a.png")
	if err != nil {
		t.Fatalf("ToggleCorrect failed: %v", err)
	}
	if len(doc.ActiveStage().CorrectTeams[AreaThree0]) != 1 {
		t.Fatalf("ref not added to answer key")
	}
	doc, _ = ToggleCorrect(doc, AreaThree0, "a.png")
	if len(doc.ActiveStage().CorrectTeams[AreaThree0]) != 0 {
		t.Errorf("second toggle should remove the ref")
	}
	if _, err := ToggleCorrect(doc, AreaThree0, ""); err == nil {
		t.Errorf("empty ref should be rejected")
	}
}

func TestRestoreRowFromStat(t *testing.T) {
	doc := New()
	doc, _ = SetRowNick(doc, 0, "Occupied")
	entry := StatEntry{Row: Row{
		ID:     "entry-1",
		Nick:   "Returning Player",
		Three0: []Ref{"x.png", ""},
		Pass:   make([]Ref, 6),
		Out:    make([]Ref, 2),
	}, Score: 2}
	entry.AvatarScale = DefaultAvatarScale
	entry.AvatarPosX = DefaultAvatarPos
	entry.AvatarPosY = DefaultAvatarPos
	entry.NickFontSize = DefaultNickFontSize
	doc = AppendStats(doc, []StatEntry{entry})

	next, err := RestoreRowFromStat(doc, "entry-1")
	if err != nil {
		t.Fatalf("RestoreRowFromStat failed: %v", err)
	}
	// row 0 is taken, row 1 is the first default row
	row := &next.ActiveStage().Rows[1]
	if row.Nick != "Returning Player" {
		t.Errorf("row not restored, got %q", row.Nick)
	}
	if row.ID != doc.ActiveStage().Rows[1].ID {
		t.Errorf("restored row should keep the slot's id")
	}

	// with no default rows free the sheet grows
	full := SetRowCount(doc, 1)
	grown, err := RestoreRowFromStat(full, "entry-1")
	if err != nil {
		t.Fatalf("RestoreRowFromStat failed: %v", err)
	}
	if len(grown.ActiveStage().Rows) != 2 || grown.ActiveStage().RowCount != 2 {
		t.Errorf("sheet should grow when no default row is free")
	}
	if grown.ActiveStage().Rows[1].Nick != "Returning Player" {
		t.Errorf("appended row not restored")
	}
}

func TestNumericSettingClamp(t *testing.T) {
	doc := New()
	doc, err := SetNumericSetting(doc, "bgScale", 500)
	if err != nil {
		t.Fatalf("SetNumericSetting failed: %v", err)
	}
	if doc.BgScale != 200 {
		t.Errorf("bgScale not clamped, got %d", doc.BgScale)
	}
	doc, _ = SetNumericSetting(doc, "tableOffsetY", -999)
	if doc.TableOffsetY != -300 {
		t.Errorf("tableOffsetY not clamped, got %d", doc.TableOffsetY)
	}
	if _, err := SetNumericSetting(doc, "bogus", 1); err == nil {
		t.Errorf("unknown setting should be rejected")
	}
}

func TestResetDesignKeepsContent(t *testing.T) {
	doc := New()
	doc, _ = SetRowNick(doc, 0, "Keeper")
	doc = SetBackgroundColor(doc, "#ff0000")
	doc, _ = SetNumericSetting(doc, "borderRadius", 25)

	next := ResetDesign(doc)
	if next.Bg != DefaultBg || next.BorderRadius != 0 {
		t.Errorf("design not reset: bg=%q radius=%d", next.Bg, next.BorderRadius)
	}
	if next.ActiveStage().Rows[0].Nick != "Keeper" {
		t.Errorf("content should survive a design reset")
	}
}

func TestIsDefaultRow(t *testing.T) {
	row := NewRow(0)
	if !IsDefaultRow(&row) {
		t.Errorf("fresh row should be default")
	}
	named := NewRow(0)
	named.Nick = "Alice"
	if IsDefaultRow(&named) {
		t.Errorf("renamed row is not default")
	}
	withAvatar := NewRow(0)
	withAvatar.Avatar = "x.png"
	if IsDefaultRow(&withAvatar) {
		t.Errorf("row with avatar is not default")
	}
	withPick := NewRow(0)
	withPick.Pass[0] = "x.png"
	if IsDefaultRow(&withPick) {
		t.Errorf("row with a pick is not default")
	}
}
