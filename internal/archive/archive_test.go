package archive

import (
	"bytes"
	"errors"
	"testing"
)

func TestDisabledService(t *testing.T) {
	s := New("")
	if s.Enabled() {
		t.Fatalf("service without a directory should be disabled")
	}
	if _, err := s.Snapshot([]byte("{}"), "a", "m"); !errors.Is(err, ErrDisabled) {
		t.Errorf("Snapshot = %v, want ErrDisabled", err)
	}
	if _, err := s.History(0); !errors.Is(err, ErrDisabled) {
		t.Errorf("History = %v, want ErrDisabled", err)
	}
	if _, _, err := s.GetByHash("abc1234"); !errors.Is(err, ErrDisabled) {
		t.Errorf("GetByHash = %v, want ErrDisabled", err)
	}
	if err := s.Tag("abc1234", "v1"); !errors.Is(err, ErrDisabled) {
		t.Errorf("Tag = %v, want ErrDisabled", err)
	}
}

func TestHistoryOnFreshDirectory(t *testing.T) {
	s := New(t.TempDir())
	items, err := s.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("fresh directory should have no snapshots, got %d", len(items))
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	s := New(t.TempDir())

	payload := []byte(`{"schemaVersion":2}`)
	info, err := s.Snapshot(payload, "Alice Smith", "before finals")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(info.Hash) != 7 {
		t.Errorf("hash should be abbreviated to 7 chars, got %q", info.Hash)
	}
	if info.Author != "Alice Smith" || info.Message != "before finals" {
		t.Errorf("unexpected metadata: %+v", info)
	}

	items, err := s.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(items) != 1 || items[0].Hash != info.Hash {
		t.Fatalf("snapshot not listed: %+v", items)
	}

	got, gotInfo, err := s.GetByHash(info.Hash)
	if err != nil {
		t.Fatalf("GetByHash failed: %v", err)
	}
	if !bytes.Equal(bytes.TrimRight(got, "\n"), payload) {
		t.Errorf("payload mismatch: %q", got)
	}
	if gotInfo.Hash != info.Hash {
		t.Errorf("info mismatch: %+v", gotInfo)
	}
}

func TestHistoryOrderAndLimit(t *testing.T) {
	s := New(t.TempDir())
	for _, msg := range []string{"first", "second", "third"} {
		if _, err := s.Snapshot([]byte(`{"n":"`+msg+`"}`), "", msg); err != nil {
			t.Fatalf("Snapshot %q failed: %v", msg, err)
		}
	}

	items, err := s.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(items))
	}
	if items[0].Message != "third" || items[2].Message != "first" {
		t.Errorf("history not newest-first: %q %q %q", items[0].Message, items[1].Message, items[2].Message)
	}

	limited, err := s.History(2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(limited) != 2 || limited[0].Message != "third" {
		t.Errorf("limit not honored: %+v", limited)
	}
}

func TestSnapshotDefaultMessage(t *testing.T) {
	s := New(t.TempDir())
	info, err := s.Snapshot([]byte("{}"), "", "")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if info.Message != "Quick save" {
		t.Errorf("default message = %q", info.Message)
	}
}

func TestTag(t *testing.T) {
	s := New(t.TempDir())
	info, err := s.Snapshot([]byte("{}"), "a", "m")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if err := s.Tag(info.Hash, "finals"); err != nil {
		t.Fatalf("Tag failed: %v", err)
	}
	// retagging with the same name passes quietly
	if err := s.Tag(info.Hash, "finals"); err != nil {
		t.Errorf("retag should be a no-op, got %v", err)
	}
	if err := s.Tag("0000000", "nope"); err == nil {
		t.Errorf("tagging an unknown revision should fail")
	}
}

func TestSanitizeEmail(t *testing.T) {
	for input, want := range map[string]string{
		"Alice Smith": "Alice.Smith",
		"":            "editor",
		"!!!":         "editor",
		"bob_42":      "bob.42",
	} {
		if got := sanitizeEmail(input); got != want {
			t.Errorf("sanitizeEmail(%q) = %q, want %q", input, got, want)
		}
	}
}
