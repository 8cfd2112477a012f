package persist

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"picksheet/api/internal/document"
)

// DefaultDebounce is how long the saver waits after the last edit before
// writing. Edits inside the window cancel and restart the pending write.
const DefaultDebounce = 1000 * time.Millisecond

// Saver owns the debounced automatic save. Every committed document is
// scheduled; only the write keyed by the newest edit counter runs, on a
// snapshot taken at fire time. Saving never blocks further edits, and a
// failed write is retried on the next cycle instead of dropping data.
type Saver struct {
	store    Store
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	seq     uint64
	pending *document.Document
	timer   *time.Timer
	closed  bool
}

// NewSaver builds a saver around the store. A non-positive interval falls
// back to DefaultDebounce.
func NewSaver(store Store, interval time.Duration) *Saver {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Saver{store: store, interval: interval, timeout: 10 * time.Second}
}

// Schedule records doc as the state to persist and restarts the debounce
// window. The document must already be an immutable snapshot.
func (s *Saver) Schedule(doc *document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.seq++
	s.pending = doc
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.interval, func() { s.fire(seq) })
}

func (s *Saver) fire(seq uint64) {
	s.mu.Lock()
	if s.closed || seq != s.seq || s.pending == nil {
		// A newer edit superseded this task.
		s.mu.Unlock()
		return
	}
	snapshot := s.pending
	s.mu.Unlock()

	if err := s.write(snapshot); err != nil {
		log.Printf("persist: autosave failed, will retry: %v", err)
		s.mu.Lock()
		if !s.closed && seq == s.seq {
			s.timer = time.AfterFunc(s.interval, func() { s.fire(seq) })
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if seq == s.seq {
		s.pending = nil
	}
	s.mu.Unlock()
}

func (s *Saver) write(doc *document.Document) error {
	blob, err := json.Marshal(doc)
	if err != nil {
		return storageError("encode", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.store.Save(ctx, blob)
}

// Flush writes any pending state synchronously, for shutdown.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	snapshot := s.pending
	s.pending = nil
	s.mu.Unlock()
	if snapshot == nil {
		return nil
	}
	blob, err := json.Marshal(snapshot)
	if err != nil {
		return storageError("encode", err)
	}
	return s.store.Save(ctx, blob)
}

// Close stops the pending timer. Scheduled-but-unfired state is dropped;
// call Flush first when it must survive.
func (s *Saver) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
}
