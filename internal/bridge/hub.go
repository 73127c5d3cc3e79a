package bridge

import (
	"sync"
	"time"
)

// Hub owns the outbox of every live session. A released outbox is closed at
// once but stays reachable for linger, so a client that reconnects after the
// session ended still receives the final events.
type Hub struct {
	mu      sync.Mutex
	boxes   map[string]*Outbox
	backlog int
	linger  time.Duration
}

func NewHub(backlog int, linger time.Duration) *Hub {
	return &Hub{
		boxes:   make(map[string]*Outbox),
		backlog: backlog,
		linger:  linger,
	}
}

// Open returns the outbox of id, creating it on first use.
func (h *Hub) Open(id string) *Outbox {
	h.mu.Lock()
	defer h.mu.Unlock()
	if o, ok := h.boxes[id]; ok {
		return o
	}
	o := NewOutbox(h.backlog)
	h.boxes[id] = o
	return o
}

func (h *Hub) Get(id string) (*Outbox, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.boxes[id]
	return o, ok
}

func (h *Hub) Release(id string) {
	h.mu.Lock()
	o, ok := h.boxes[id]
	h.mu.Unlock()
	if !ok {
		return
	}
	o.Close()

	if h.linger <= 0 {
		h.forget(id, o)
		return
	}
	time.AfterFunc(h.linger, func() { h.forget(id, o) })
}

func (h *Hub) forget(id string, o *Outbox) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.boxes[id] == o {
		delete(h.boxes, id)
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.boxes)
}

// CloseAll closes every outbox, ending all event streams.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	boxes := h.boxes
	h.boxes = make(map[string]*Outbox)
	h.mu.Unlock()

	for _, o := range boxes {
		o.Close()
	}
}
