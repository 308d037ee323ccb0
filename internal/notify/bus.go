package notify

import (
	"context"
	"sync"
	"time"
)

const defaultMaxEvents = 200

// Event is one progress message with a per-requester sequence number.
type Event struct {
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Bus keeps a bounded in-memory log of recent messages per requester so
// clients can poll with Since.
type Bus struct {
	mu        sync.RWMutex
	maxEvents int
	streams   map[string]*stream
	now       func() time.Time
}

type stream struct {
	nextSeq int64
	events  []Event
}

func NewBus(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = defaultMaxEvents
	}
	return &Bus{maxEvents: maxEvents, streams: make(map[string]*stream), now: time.Now}
}

func (b *Bus) Notify(_ context.Context, requesterID, message string) error {
	b.Publish(requesterID, message)
	return nil
}

// Publish appends a message and assigns its sequence number.
func (b *Bus) Publish(requesterID, message string) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.streams[requesterID]
	if !ok {
		s = &stream{}
		b.streams[requesterID] = s
	}
	s.nextSeq++
	ev := Event{Seq: s.nextSeq, Timestamp: b.now().UTC(), Message: message}
	s.events = append(s.events, ev)
	if len(s.events) > b.maxEvents {
		trim := len(s.events) - b.maxEvents
		s.events = append([]Event(nil), s.events[trim:]...)
	}
	return ev
}

// Since returns the requester's events with sequence strictly greater than seq.
func (b *Bus) Since(requesterID string, seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.streams[requesterID]
	if !ok {
		return nil
	}
	out := make([]Event, 0, len(s.events))
	for _, ev := range s.events {
		if ev.Seq > seq {
			out = append(out, ev)
		}
	}
	return out
}
