package persist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"picksheet/api/internal/document"
)

// fakeStore records saves and can be told to fail.
type fakeStore struct {
	mu    sync.Mutex
	saves [][]byte
	fail  bool
}

func (f *fakeStore) Load(ctx context.Context) ([]byte, error) { return nil, nil }

func (f *fakeStore) Save(ctx context.Context, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("store down")
	}
	f.saves = append(f.saves, append([]byte(nil), blob...))
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeStore) last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return nil
	}
	return f.saves[len(f.saves)-1]
}

func (f *fakeStore) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func TestSaverDebounceLatestWins(t *testing.T) {
	store := &fakeStore{}
	saver := NewSaver(store, 30*time.Millisecond)
	defer saver.Close()

	doc := document.New()
	for _, nick := range []string{"one", "two", "three"} {
		next, err := document.SetRowNick(doc, 0, nick)
		if err != nil {
			t.Fatalf("SetRowNick failed: %v", err)
		}
		saver.Schedule(next)
	}

	waitFor(t, func() bool { return store.count() > 0 })
	if store.count() != 1 {
		t.Errorf("expected one write for a burst of edits, got %d", store.count())
	}

	var saved document.Document
	if err := json.Unmarshal(store.last(), &saved); err != nil {
		t.Fatalf("saved blob is not a document: %v", err)
	}
	if saved.ActiveStage().Rows[0].Nick != "three" {
		t.Errorf("newest snapshot did not win, nick=%q", saved.ActiveStage().Rows[0].Nick)
	}
}

func TestSaverRetriesAfterFailure(t *testing.T) {
	store := &fakeStore{}
	store.setFail(true)
	saver := NewSaver(store, 10*time.Millisecond)
	defer saver.Close()

	saver.Schedule(document.New())
	time.Sleep(50 * time.Millisecond)
	if store.count() != 0 {
		t.Fatalf("failing store should not have recorded a save")
	}

	store.setFail(false)
	waitFor(t, func() bool { return store.count() == 1 })
}

func TestSaverFlush(t *testing.T) {
	store := &fakeStore{}
	saver := NewSaver(store, time.Hour)
	defer saver.Close()

	saver.Schedule(document.New())
	if store.count() != 0 {
		t.Fatalf("nothing should be written inside the debounce window")
	}
	if err := saver.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if store.count() != 1 {
		t.Errorf("Flush should write the pending snapshot, count=%d", store.count())
	}

	// a second flush with nothing pending writes nothing
	if err := saver.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if store.count() != 1 {
		t.Errorf("empty Flush should be a no-op, count=%d", store.count())
	}
}

func TestSaverCloseDropsPending(t *testing.T) {
	store := &fakeStore{}
	saver := NewSaver(store, 10*time.Millisecond)
	saver.Schedule(document.New())
	saver.Close()

	time.Sleep(50 * time.Millisecond)
	if store.count() != 0 {
		t.Errorf("closed saver should not write, count=%d", store.count())
	}

	saver.Schedule(document.New())
	time.Sleep(30 * time.Millisecond)
	if store.count() != 0 {
		t.Errorf("schedule after close should be ignored, count=%d", store.count())
	}
}
