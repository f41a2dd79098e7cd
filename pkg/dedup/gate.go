package dedup

import "sync"

// Gate prevents the same logical user action from being applied more than
// once concurrently. A user can click a notification toast twice before the
// first mark-read request returns; without the gate the unread counter would
// be decremented twice for one logical read.
//
// All methods are safe for concurrent use.
type Gate struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

// New creates an empty gate.
func New() *Gate {
	return &Gate{
		pending: make(map[string]struct{}),
	}
}

// TryAcquire admits id into the pending set. It returns true exactly once per
// in-flight action: the caller that receives true proceeds with the mutation,
// everyone else must skip both the request and the counter decrement.
func (g *Gate) TryAcquire(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, inFlight := g.pending[id]; inFlight {
		return false
	}
	g.pending[id] = struct{}{}
	return true
}

// Release removes id from the pending set. It must be called when the
// mutation completes, on success or failure, so an id is never stuck in
// flight beyond the mutation's own lifetime. Release is idempotent.
func (g *Gate) Release(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, id)
}

// Len reports how many actions are currently in flight.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
