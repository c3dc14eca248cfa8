package grid

import (
	"sort"
	"sync"
)

type EventKind int

const (
	// SortChanged fires after a header activation changed the sort.
	SortChanged EventKind = iota
	// RowsUpdated fires after the row set was replaced or grown.
	RowsUpdated
	// LoadFailed fires when the row source returned an error. Aborted loads never fire it.
	LoadFailed
)

func (k EventKind) String() string {
	switch k {
	case SortChanged:
		return "sort-changed"
	case RowsUpdated:
		return "rows-updated"
	case LoadFailed:
		return "load-failed"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers on the grid's loop goroutine.
type Event struct {
	Kind     EventKind
	Sort     SortSpec
	Rows     []Row // full row set on RowsUpdated
	Appended []Row // only the grown page, nil on replace
	Err      error
}

// Subscription is returned by Grid.Subscribe. Close it to stop receiving events.
type Subscription struct {
	hub *hub
	id  int
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.hub.remove(s.id)
}

type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[int]func(Event))}
}

func (h *hub) add(fn func(Event)) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || fn == nil {
		return &Subscription{}
	}
	h.nextID++
	h.subs[h.nextID] = fn
	return &Subscription{hub: h, id: h.nextID}
}

func (h *hub) remove(id int) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// publish calls every subscriber in subscription order, outside the lock so handlers may
// subscribe, unsubscribe or call back into the grid.
func (h *hub) publish(ev Event) {
	h.mu.Lock()
	ids := make([]int, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	sort.Ints(ids)
	for _, id := range ids {
		h.mu.Lock()
		fn, ok := h.subs[id]
		h.mu.Unlock()
		if ok {
			fn(ev)
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	h.closed = true
	h.subs = make(map[int]func(Event))
	h.mu.Unlock()
}
