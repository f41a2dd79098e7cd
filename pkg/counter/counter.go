package counter

import "sync"

// Epoch identifies a point in the store's mutation history. A resynchronization
// captures an epoch before requesting the authoritative value, so a Set that
// arrives after further local mutations can be detected as stale.
type Epoch uint64

// Observer receives the new counter value after every effective mutation.
// Observers are invoked synchronously with the store lock held and must not
// call back into the Store.
type Observer func(value int)

// Store is the single source of truth for the unread notification count. The
// value never goes negative: decrements at zero clamp and are reported as
// no-ops rather than errors, since a resync may legitimately zero the count
// between a user's click and the server confirming the mark-read.
//
// All methods are safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	value     int
	epoch     Epoch
	observers map[int]Observer
	nextObs   int
}

// New creates a store seeded with the given initial value. Negative seeds
// clamp to zero.
func New(initial int) *Store {
	return &Store{
		value:     max(initial, 0),
		observers: make(map[int]Observer),
	}
}

// Value returns the current count.
func (s *Store) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Increment adds one to the count and returns the new value.
func (s *Store) Increment() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value++
	s.epoch++
	s.notifyLocked()
	return s.value
}

// Decrement subtracts one from the count, clamped at zero, and returns the
// new value. A decrement at zero is a no-op: observers are not notified and
// the epoch does not advance.
func (s *Store) Decrement() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.value == 0 {
		return 0
	}
	s.value--
	s.epoch++
	s.notifyLocked()
	return s.value
}

// BeginResync snapshots the current mutation epoch. Capture it before
// requesting the authoritative count from the server, then pass it to Set.
func (s *Store) BeginResync() Epoch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Set replaces the count with a server-authoritative value, but only if no
// mutation has been counted since the given epoch was captured. This resolves
// the race between a resync and a concurrently delivered notification in
// favor of the local deltas: a stale absolute value must never erase an
// increment that happened after the resync was requested.
//
// It reports whether the value was applied. Negative values clamp to zero.
func (s *Store) Set(value int, epoch Epoch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false
	}
	s.value = max(value, 0)
	s.epoch++
	s.notifyLocked()
	return true
}

// Subscribe registers an observer notified on every effective mutation with
// the new value. It returns a cancel function that removes the observer.
// There is no batching: badge updates are cheap and staleness is the concern,
// not update volume.
func (s *Store) Subscribe(obs Observer) (cancel func()) {
	if obs == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = obs
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notifyLocked() {
	for _, obs := range s.observers {
		obs(s.value)
	}
}
