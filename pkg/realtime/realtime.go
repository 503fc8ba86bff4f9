// Package realtime fans out dataset lifecycle events to live listeners such
// as WebSocket sessions.
//
// Delivery is best effort: each listener owns a buffered channel and a listener
// whose buffer is full misses the event instead of slowing down the refresh
// loop. Nothing is persisted or replayed; a client that connects late asks the
// API for the current state instead.
package realtime

import (
	"sync"
	"time"
)

// Event types.
const (
	TypeDataset = "dataset"
	TypeError   = "error"
)

// DatasetEvent describes a dataset that just became current.
type DatasetEvent struct {
	// SnapshotID identifies the stored snapshot of this dataset, if any.
	SnapshotID string    `json:"snapshot_id,omitempty"`
	Source     string    `json:"source"`
	Count      int       `json:"count"`
	SyncedAt   time.Time `json:"synced_at"`
	// FromSnapshot is true when the source failed and the dataset was
	// restored from the snapshot store.
	FromSnapshot bool `json:"from_snapshot"`
}

// Event is the envelope delivered to listeners.
type Event struct {
	Type    string        `json:"type"`
	Dataset *DatasetEvent `json:"dataset,omitempty"`
	Error   string        `json:"error,omitempty"`
	At      time.Time     `json:"at"`
}

// NewDatasetEvent wraps a DatasetEvent.
func NewDatasetEvent(d DatasetEvent) Event {
	return Event{Type: TypeDataset, Dataset: &d, At: time.Now().UTC()}
}

// NewErrorEvent reports a failed refresh.
func NewErrorEvent(err error) Event {
	return Event{Type: TypeError, Error: err.Error(), At: time.Now().UTC()}
}

// Hub is an in-memory fan-out dispatcher. It is safe for concurrent use.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 16 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a new listener and returns (listenerID, receiveOnlyChannel).
// Callers must later Unregister(id) to release resources.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener with the given id and closes its channel.
// It is safe to call multiple times; unknown ids are ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers an event to every listener, dropping it for listeners
// whose buffer is full. It returns the number of listeners that received it.
func (h *Hub) Broadcast(ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Size returns the current number of active listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
