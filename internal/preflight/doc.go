// Package preflight provides readiness checks for the filesystem paths and
// upstream schedule sources that timetable depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check. A
//     failing upstream is not fatal because the cache keeps serving.
//   - The CLI "timetable doctor" command renders the same results as a table.
//
// Each upstream check is gated by its config toggle; disabled sources are
// reported as skipped.
package preflight
