// Package daemon coordinates the long-running timetabled process.
//
// It owns the cache database for the lifetime of the process, enforcing a
// single writer with a flock-based lock file, serves the schedule facade over
// a local chi HTTP API with Prometheus metrics at /metrics, and runs the
// weekly refresh loop that keeps the cache current without any reader
// asking.
//
// Keep orchestration logic here: sync policy lives in the syncer package and
// read-through behaviour in the facade.
package daemon
