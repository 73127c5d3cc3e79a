// Package bridge connects an interview session to the browser acting as its
// speech and media terminal. Commands for the client (speak, listen, render)
// are published to an Outbox and streamed as Server-Sent Events; the client
// reports platform events back over plain HTTP.
package bridge

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

type Event struct {
	ID   uint64 `json:"id"`
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// WriteSSE writes the event in text/event-stream framing.
func (e Event) WriteSSE(w io.Writer) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", e.Type, err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.ID, e.Type, data)
	return err
}

const subscriberBuffer = 64

// Outbox fans events out to subscribers and keeps a bounded backlog so a
// reconnecting client can resume from its last event id.
type Outbox struct {
	mu      sync.Mutex
	seq     uint64
	limit   int
	backlog []Event
	subs    map[int]chan Event
	nextSub int
	closed  bool
}

func NewOutbox(limit int) *Outbox {
	if limit <= 0 {
		limit = 256
	}
	return &Outbox{
		limit: limit,
		subs:  make(map[int]chan Event),
	}
}

// Publish never blocks. A subscriber that cannot keep up is dropped and has
// to reconnect with its last event id.
func (o *Outbox) Publish(typ string, data any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	o.seq++
	e := Event{ID: o.seq, Type: typ, Data: data}

	o.backlog = append(o.backlog, e)
	if len(o.backlog) > o.limit {
		o.backlog = o.backlog[len(o.backlog)-o.limit:]
	}

	for id, ch := range o.subs {
		select {
		case ch <- e:
		default:
			close(ch)
			delete(o.subs, id)
		}
	}
}

// Subscribe returns the backlog after lastID and a channel of later events.
// The channel is closed when the outbox closes or the subscriber falls behind.
func (o *Outbox) Subscribe(lastID uint64) ([]Event, <-chan Event, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var missed []Event
	for _, e := range o.backlog {
		if e.ID > lastID {
			missed = append(missed, e)
		}
	}

	ch := make(chan Event, subscriberBuffer)
	if o.closed {
		close(ch)
		return missed, ch, func() {}
	}

	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch

	cancel := func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if c, ok := o.subs[id]; ok {
			close(c)
			delete(o.subs, id)
		}
	}
	return missed, ch, cancel
}

func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	for id, ch := range o.subs {
		close(ch)
		delete(o.subs, id)
	}
}
