package gate

import (
	"errors"
	"sort"
	"sync"
)

// ErrAlreadyBusy is returned when the requester already has an active job.
var ErrAlreadyBusy = errors.New("requester already has an active job")

// Gate admits at most one active job per requester. Every successful
// TryAdmit must be paired with exactly one Release.
type Gate struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func New() *Gate {
	return &Gate{busy: make(map[string]struct{})}
}

// TryAdmit marks the requester busy, or returns ErrAlreadyBusy.
func (g *Gate) TryAdmit(requesterID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.busy[requesterID]; ok {
		return ErrAlreadyBusy
	}
	g.busy[requesterID] = struct{}{}
	return nil
}

// Release removes the requester. Releasing an idle requester is a no-op.
func (g *Gate) Release(requesterID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, requesterID)
}

func (g *Gate) Busy(requesterID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.busy[requesterID]
	return ok
}

// Active returns the busy requesters in sorted order.
func (g *Gate) Active() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0, len(g.busy))
	for id := range g.busy {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
