// Package dedup provides an in-flight action gate keyed by notification
// identifier.
//
//	gate := dedup.New()
//	if !gate.TryAcquire(id) {
//	    return nil // already in flight, skip the duplicate
//	}
//	defer gate.Release(id)
//	// ... issue the mark-read mutation ...
package dedup
