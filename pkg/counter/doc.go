// Package counter owns the unread notification count shown by the
// presentation layer.
//
// The Store guarantees the displayed value is never negative regardless of
// how increments and decrements interleave, and distinguishes per-event
// deltas from wholesale server resynchronization: Set applies an absolute
// value only when no mutation happened since the matching BeginResync epoch
// was captured, so a slow resync response can never swallow a notification
// that arrived while it was in flight.
//
//	store := counter.New(3)
//	cancel := store.Subscribe(func(v int) { badge.Render(v) })
//	defer cancel()
//
//	store.Increment()            // 4
//	epoch := store.BeginResync()
//	// ... fetch authoritative value from the server ...
//	store.Set(7, epoch)          // applied only if still at that epoch
package counter
