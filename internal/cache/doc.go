// Package cache persists the schedule catalog and timetables in SQLite.
//
// The store is the engine's only shared mutable resource. Every Replace*
// call runs in a single transaction so a collection is either fully replaced
// or left exactly as it was, and WAL journaling lets readers keep serving the
// previous snapshot while a sync pass writes the next one. Besides the four
// entity tables the store keeps a small key/value table for the sync state,
// per-group schedule stamps, and the bell schedule and department documents.
//
// Writers that hit SQLITE_BUSY are retried with exponential backoff; every
// other error is returned to the caller unchanged.
package cache
