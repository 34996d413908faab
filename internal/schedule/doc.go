// Package schedule defines the domain records shared by the cache, the
// upstream sources, the sync orchestrator, and the facade: faculties, groups,
// lessons, exams, bell slots, departments, and the persisted sync state.
//
// Enum parsers are lenient because both upstreams spell values differently
// (English API tokens, Russian website labels); unknown input falls back to a
// documented default rather than failing the record.
package schedule
