package api

import (
	"net/http"
	"time"

	"timetable/internal/facade"
	"timetable/internal/result"
	"timetable/internal/sources"
	"timetable/internal/syncer"
)

// Route paths served by timetabled.
const (
	PathFaculties   = "/api/faculties"
	PathBells       = "/api/bells"
	PathDepartments = "/api/departments"
	PathStatus      = "/api/status"
	PathSync        = "/api/sync"
	PathMetrics     = "/metrics"
)

// FacultyGroupsPath returns the groups endpoint of a faculty.
func FacultyGroupsPath(facultyCode string) string {
	return "/api/faculties/" + escape(facultyCode) + "/groups"
}

// GroupLessonsPath returns the lessons endpoint of a group.
func GroupLessonsPath(groupCode string) string {
	return "/api/groups/" + escape(groupCode) + "/lessons"
}

// GroupExamsPath returns the exams endpoint of a group.
func GroupExamsPath(groupCode string) string {
	return "/api/groups/" + escape(groupCode) + "/exams"
}

// GroupTestsPath returns the pass/fail tests endpoint of a group.
func GroupTestsPath(groupCode string) string {
	return "/api/groups/" + escape(groupCode) + "/tests"
}

// DaemonStatus describes the running daemon process.
type DaemonStatus struct {
	Running      bool      `json:"running"`
	PID          int       `json:"pid"`
	StartedAt    time.Time `json:"started_at"`
	CacheDBPath  string    `json:"cache_db_path"`
	LockFilePath string    `json:"lock_file_path"`
	APIAddress   string    `json:"api_address,omitempty"`
}

// StatusResponse is the payload of PathStatus.
type StatusResponse struct {
	Daemon DaemonStatus                   `json:"daemon"`
	Sync   result.Envelope[facade.Status] `json:"sync"`
}

// SyncResponse is the payload of PathSync.
type SyncResponse = result.Envelope[syncer.Outcome]

// ErrorResponse is returned for requests rejected before reaching the
// facade (bad parameters, authentication).
type ErrorResponse struct {
	Error string `json:"error"`
}

// HTTPStatus maps an envelope to the response status code.
func HTTPStatus[T any](env result.Envelope[T]) int {
	switch env.State {
	case result.StateSuccess:
		return http.StatusOK
	case result.StateLoading:
		return http.StatusAccepted
	}
	switch env.Code {
	case facade.CodeNoData:
		return http.StatusServiceUnavailable
	case sources.CodeSourceUnavailable, sources.CodeSourceEmpty, sources.CodeParseFailure:
		return http.StatusBadGateway
	case sources.CodeValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
