package risk

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/catrisk/internal/kv"
)

// historyKey names the persisted blob holding the serialized entry sequence.
const historyKey = "catrisk_history"

// maxHistoryEntries caps the log; inserting past the cap evicts from the tail.
const maxHistoryEntries = 50

// History is the append-front, capacity-bounded log of past analyses. The
// in-memory sequence is authoritative for the session; every mutation is
// followed by a best-effort persist to the backing store.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	store   kv.Store
	logger  log.Logger
}

// NewHistory loads the persisted log from store. Missing or unparsable data
// degrades to an empty history; load never fails.
func NewHistory(ctx context.Context, store kv.Store, logger log.Logger) *History {
	if logger == nil {
		logger = log.Nop()
	}
	h := &History{store: store, logger: logger}

	blob, ok, err := store.Get(ctx, historyKey)
	if err != nil {
		logger.Warn(ctx, "history load failed, starting empty", "error", err)
		return h
	}
	if !ok {
		return h
	}
	if err := json.Unmarshal(blob, &h.entries); err != nil {
		logger.Warn(ctx, "history blob unparsable, starting empty", "error", err)
		h.entries = nil
	}
	return h
}

// Len returns the current number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// List returns the entries newest-first. A non-empty query keeps only entries
// whose geography contains it, case-insensitively.
func (h *History) List(query string) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]HistoryEntry, 0, len(h.entries))
	for _, e := range h.entries {
		if q != "" && !strings.Contains(strings.ToLower(e.Geography), q) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Get returns the entry with the given id.
func (h *History) Get(id string) (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.entries {
		if e.ID == id {
			return e, true
		}
	}
	return HistoryEntry{}, false
}

// InsertFront prepends entry and truncates the log to capacity, dropping the
// oldest entries from the tail.
func (h *History) InsertFront(ctx context.Context, entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append([]HistoryEntry{entry}, h.entries...)
	if len(h.entries) > maxHistoryEntries {
		h.entries = h.entries[:maxHistoryEntries]
	}
	h.persistLocked(ctx)
}

// UpdateWhere applies update to every entry satisfying pred, preserving order
// and all other entries. Returns the number of entries updated.
func (h *History) UpdateWhere(ctx context.Context, pred func(*HistoryEntry) bool, update func(*HistoryEntry)) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for i := range h.entries {
		if pred(&h.entries[i]) {
			update(&h.entries[i])
			n++
		}
	}
	if n > 0 {
		h.persistLocked(ctx)
	}
	return n
}

// SetStatus updates the status of exactly the entry with the given id.
// A missing id is a no-op.
func (h *History) SetStatus(ctx context.Context, id string, status Status) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.entries {
		if h.entries[i].ID == id {
			h.entries[i].Status = status
			h.persistLocked(ctx)
			return true
		}
	}
	return false
}

// Remove deletes exactly the entry with the given id. A missing id is a no-op.
func (h *History) Remove(ctx context.Context, id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.entries {
		if h.entries[i].ID == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			h.persistLocked(ctx)
			return true
		}
	}
	return false
}

// persistLocked writes the whole sequence to the backing store. Failures are
// swallowed: the in-memory state stays authoritative for the session.
func (h *History) persistLocked(ctx context.Context) {
	blob, err := json.Marshal(h.entries)
	if err != nil {
		h.logger.Warn(ctx, "history marshal failed, skipping persist", "error", err)
		return
	}
	if err := h.store.Set(ctx, historyKey, blob); err != nil {
		h.logger.Warn(ctx, "history persist failed", "error", err, "entries", len(h.entries))
	}
}
