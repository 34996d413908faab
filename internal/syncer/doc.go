// Package syncer runs sync passes that move upstream schedule data into the
// cache.
//
// A pass walks an explicit state machine:
//
//	Idle → TryingPrimary → Writing → Done
//	Idle → TryingPrimary → TryingFallback → Writing → Done
//	Idle → TryingPrimary → TryingFallback → Failed
//
// The first collection that succeeds picks the pass source. While the pass
// source is the primary, a collection that fails there is retried against
// the fallback exactly once; once the fallback is the pass source the primary
// is not consulted again. Every successful collection is written before the
// next fetch starts, so faculties are durable before any group request is
// issued. Nothing is deleted on failure: a collection that cannot be fetched
// keeps its cached rows.
//
// Concurrent Sync calls for the same request share one pass, and a mutex
// keeps passes for different requests from overlapping.
package syncer
