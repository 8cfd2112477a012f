package history

import (
	"fmt"
	"testing"

	"picksheet/api/internal/document"
)

// named returns a snapshot whose first row carries nick so successive
// snapshots are structurally distinct.
func named(base *document.Document, nick string) *document.Document {
	next, err := document.SetRowNick(base, 0, nick)
	if err != nil {
		panic(err)
	}
	return next
}

func TestCommitAndUndoRedo(t *testing.T) {
	doc := document.New()
	m := New(doc)

	if m.CanUndo() || m.CanRedo() {
		t.Fatalf("fresh log should have nothing to undo or redo")
	}

	v1 := named(doc, "one")
	if !m.Commit(v1) {
		t.Fatalf("distinct snapshot should be recorded")
	}
	if !m.CanUndo() || m.CanRedo() {
		t.Errorf("after commit: canUndo=%v canRedo=%v", m.CanUndo(), m.CanRedo())
	}

	if !m.Undo() {
		t.Fatalf("undo should succeed")
	}
	if got := m.Current().ActiveStage().Rows[0].Nick; got != document.DefaultNick(0) {
		t.Errorf("undo did not restore the initial snapshot, nick=%q", got)
	}
	if !m.Redo() {
		t.Fatalf("redo should succeed")
	}
	if got := m.Current().ActiveStage().Rows[0].Nick; got != "one" {
		t.Errorf("redo did not restore the newer snapshot, nick=%q", got)
	}

	if m.Redo() {
		t.Errorf("redo at the newest entry should be a no-op")
	}
	m.Undo()
	if m.Undo() {
		t.Errorf("undo at the oldest entry should be a no-op")
	}
}

func TestCommitEqualSnapshotIgnored(t *testing.T) {
	doc := document.New()
	m := New(doc)
	if m.Commit(doc.Clone()) {
		t.Errorf("structurally equal snapshot should not be recorded")
	}
	if m.Len() != 1 {
		t.Errorf("log grew on a no-op commit, len=%d", m.Len())
	}
}

func TestCommitTruncatesRedoBranch(t *testing.T) {
	doc := document.New()
	m := New(doc)
	m.Commit(named(doc, "one"))
	m.Commit(named(doc, "two"))
	m.Undo()
	m.Undo()

	m.Commit(named(doc, "fork"))
	if m.CanRedo() {
		t.Errorf("committing after undos should discard the redo branch")
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 entries after fork, got %d", m.Len())
	}
	if got := m.Current().ActiveStage().Rows[0].Nick; got != "fork" {
		t.Errorf("cursor not at the fork, nick=%q", got)
	}
}

func TestLogIsBounded(t *testing.T) {
	doc := document.New()
	m := New(doc)
	for i := 0; i < MaxEntries+10; i++ {
		m.Commit(named(doc, fmt.Sprintf("edit %d", i)))
	}
	if m.Len() != MaxEntries {
		t.Fatalf("expected %d entries, got %d", MaxEntries, m.Len())
	}

	// walk back to the oldest surviving entry
	for m.Undo() {
	}
	if got := m.Current().ActiveStage().Rows[0].Nick; got != "edit 10" {
		t.Errorf("oldest entries not evicted in order, got %q", got)
	}
}

func TestCommitClonesSnapshot(t *testing.T) {
	doc := document.New()
	m := New(doc)
	v1 := named(doc, "one")
	m.Commit(v1)

	// mutating the committed value must not reach the log
	v1.ActiveStage().Rows[0].Nick = "tampered"
	if got := m.Current().ActiveStage().Rows[0].Nick; got != "one" {
		t.Errorf("log shares memory with the caller, nick=%q", got)
	}
}
