package dedup

// Window is a bounded recency set over transfer identifiers. The explorer
// feed returns overlapping pages on consecutive polls, so the monitor keeps
// the identifiers it has already handled and filters repeats. When the set
// exceeds its capacity the oldest identifiers are evicted first; the capacity
// only needs to cover a few pages worth of transfers to make re-alerts
// impossible in practice.
//
// A Window is owned by a single monitor goroutine and is not safe for
// concurrent use.
type Window struct {
	capacity int
	seen     map[string]struct{}
	order    []string
	seeded   bool
}

// NewWindow creates a Window holding at most capacity identifiers.
// Non-positive capacities are clamped to 1.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Seeded reports whether the window has absorbed its cold-start snapshot.
func (w *Window) Seeded() bool {
	return w.seeded
}

// Seed marks every identifier in the snapshot as seen without surfacing any
// of them as new. An empty snapshot still seeds the window: an empty feed at
// startup means everything that arrives later is genuinely new.
func (w *Window) Seed(ids []string) {
	for _, id := range ids {
		w.mark(id)
	}
	w.seeded = true
}

// FilterNew returns the identifiers not yet seen, preserving input order.
// An identifier repeated within the batch itself surfaces only once: explorer
// pages can carry duplicate records. It does not mark them; callers mark
// after the poll cycle completes so a failed cycle can retry the same
// transfers.
func (w *Window) FilterNew(ids []string) []string {
	var fresh []string
	batch := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := w.seen[id]; ok {
			continue
		}
		if _, ok := batch[id]; ok {
			continue
		}
		batch[id] = struct{}{}
		fresh = append(fresh, id)
	}
	return fresh
}

// Contains reports whether an identifier has been seen.
func (w *Window) Contains(id string) bool {
	_, ok := w.seen[id]
	return ok
}

// MarkSeen records identifiers as handled, evicting the oldest entries once
// the window is full.
func (w *Window) MarkSeen(ids []string) {
	for _, id := range ids {
		w.mark(id)
	}
}

func (w *Window) mark(id string) {
	if _, ok := w.seen[id]; ok {
		return
	}
	w.seen[id] = struct{}{}
	w.order = append(w.order, id)
	for len(w.order) > w.capacity {
		oldest := w.order[0]
		w.order = w.order[1:]
		delete(w.seen, oldest)
	}
}

// Len returns the number of identifiers currently tracked.
func (w *Window) Len() int {
	return len(w.seen)
}
