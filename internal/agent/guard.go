package agent

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MessageGuard remembers which message IDs are being handled or have completed, so a redelivered
// message is processed at most once. Both sets are size- and time-bounded.
type MessageGuard struct {
	mu        sync.Mutex
	completed *expirable.LRU[string, struct{}]
	inFlight  *expirable.LRU[string, struct{}]
}

// NewMessageGuard creates a guard holding at most capacity IDs per set, each for at most ttl.
func NewMessageGuard(capacity int, ttl time.Duration) *MessageGuard {
	return &MessageGuard{
		completed: expirable.NewLRU[string, struct{}](capacity, nil, ttl),
		inFlight:  expirable.NewLRU[string, struct{}](capacity, nil, ttl),
	}
}

// Begin marks id in flight. It returns false when id is already in flight or completed.
func (g *MessageGuard) Begin(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.completed.Contains(id) || g.inFlight.Contains(id) {
		return false
	}
	g.inFlight.Add(id, struct{}{})
	return true
}

// Done clears id from the in-flight set and, when ok, records it as completed.
func (g *MessageGuard) Done(id string, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight.Remove(id)
	if ok {
		g.completed.Add(id, struct{}{})
	}
}

// Len returns the sizes of the in-flight and completed sets.
func (g *MessageGuard) Len() (inFlight, completed int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight.Len(), g.completed.Len()
}
