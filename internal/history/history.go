// Package history keeps the bounded, linear undo/redo log of document
// snapshots. Entries are immutable once recorded; the manager is the sole
// owner of the snapshot sequence.
package history

import "picksheet/api/internal/document"

// MaxEntries bounds the log. Once full, committing evicts the oldest entry.
const MaxEntries = 50

// Manager holds the snapshot log and the cursor. It is not safe for
// concurrent use; the command path serializes access.
type Manager struct {
	entries []*document.Document
	index   int
}

// New starts a log whose single entry is a snapshot of initial.
func New(initial *document.Document) *Manager {
	return &Manager{entries: []*document.Document{initial.Clone()}}
}

// Current returns the snapshot at the cursor. Callers must treat it as
// read-only; mutators clone before changing anything.
func (m *Manager) Current() *document.Document {
	return m.entries[m.index]
}

// Commit records next as the newest snapshot and reports whether the log
// changed. A value structurally equal to the current snapshot is dropped so
// no-op edits never pollute the redo stack. Committing after undos discards
// the redo branch: the history is linear, not a tree.
func (m *Manager) Commit(next *document.Document) bool {
	if document.Equal(next, m.Current()) {
		return false
	}
	m.entries = append(m.entries[:m.index+1], next.Clone())
	m.index = len(m.entries) - 1
	if len(m.entries) > MaxEntries {
		m.entries = m.entries[1:]
		m.index--
	}
	return true
}

// Undo moves the cursor one snapshot back. At the oldest entry it is a no-op.
func (m *Manager) Undo() bool {
	if m.index == 0 {
		return false
	}
	m.index--
	return true
}

// Redo moves the cursor one snapshot forward. At the newest entry it is a
// no-op.
func (m *Manager) Redo() bool {
	if m.index == len(m.entries)-1 {
		return false
	}
	m.index++
	return true
}

func (m *Manager) CanUndo() bool { return m.index > 0 }

func (m *Manager) CanRedo() bool { return m.index < len(m.entries)-1 }

// Len returns the number of recorded snapshots.
func (m *Manager) Len() int { return len(m.entries) }

// Index returns the cursor position, 0 <= Index < Len.
func (m *Manager) Index() int { return m.index }
