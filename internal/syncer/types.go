package syncer

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"timetable/internal/schedule"
)

// Phase is the state of the orchestrator's pass state machine.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseTryingPrimary
	PhaseTryingFallback
	PhaseWriting
	PhaseDone
	PhaseFailed
)

var phaseNames = [...]string{"idle", "trying_primary", "trying_fallback", "writing", "done", "failed"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "phase(" + strconv.Itoa(int(p)) + ")"
	}
	return phaseNames[p]
}

// MarshalText renders the phase name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Collection names used in outcomes, logs, and metrics.
const (
	CollectionFaculties   = "faculties"
	CollectionGroups      = "groups"
	CollectionLessons     = "lessons"
	CollectionExams       = "exams"
	CollectionBells       = "bells"
	CollectionDepartments = "departments"
)

// CodeStorage classifies a pass that fetched data but could not write it.
const CodeStorage = "storage_failure"

// Request selects what a pass refreshes.
type Request struct {
	// Catalog refreshes faculties and then every faculty's groups.
	Catalog bool `json:"catalog"`
	// Groups lists group codes whose lessons and exams are refreshed.
	Groups []string `json:"groups,omitempty"`
	// Day (0 = whole week) and Parity ("" = every parity) scope the lesson
	// fetch of Groups.
	Day    int             `json:"day,omitempty"`
	Parity schedule.Parity `json:"parity,omitempty"`
	// IncludeReference refreshes the bell schedule and departments.
	IncludeReference bool `json:"include_reference"`
}

// Empty reports whether the request selects nothing.
func (r Request) Empty() bool {
	return !r.Catalog && len(r.Groups) == 0 && !r.IncludeReference
}

// Covers reports whether a pass for r also refreshes everything other asks
// for.
func (r Request) Covers(other Request) bool {
	return other.Without(r).Empty()
}

// Without returns the part of r that a pass for done does not refresh.
func (r Request) Without(done Request) Request {
	out := r
	if done.Catalog {
		out.Catalog = false
	}
	if done.IncludeReference {
		out.IncludeReference = false
	}
	if len(r.Groups) > 0 && done.scopeCovers(r) {
		out.Groups = slices.DeleteFunc(slices.Clone(r.Groups), func(code string) bool {
			return slices.Contains(done.Groups, code)
		})
	}
	return out
}

// Merge returns a request refreshing everything r and other ask for. Group
// fetches with different day or parity scopes widen to the whole week.
func (r Request) Merge(other Request) Request {
	switch {
	case other.Empty():
		return r
	case r.Empty():
		return other
	}
	out := Request{
		Catalog:          r.Catalog || other.Catalog,
		IncludeReference: r.IncludeReference || other.IncludeReference,
		Groups:           normalizeGroups(append(slices.Clone(r.Groups), other.Groups...)),
	}
	switch {
	case len(r.Groups) == 0:
		out.Day, out.Parity = other.Day, other.Parity
	case len(other.Groups) == 0 || (r.Day == other.Day && r.Parity == other.Parity):
		out.Day, out.Parity = r.Day, r.Parity
	}
	return out
}

// scopeCovers reports whether r's lesson scope includes other's.
func (r Request) scopeCovers(other Request) bool {
	if r.Day == 0 && r.Parity == schedule.AnyParity {
		return true
	}
	return r.Day == other.Day && r.Parity == other.Parity
}

// Outcome summarizes one pass.
type Outcome struct {
	PassID     uint64    `json:"pass_id"`
	Phase      Phase     `json:"phase"`
	Source     string    `json:"source,omitempty"`
	Written    []string  `json:"written,omitempty"`
	Skipped    int       `json:"skipped"`
	Errors     []string  `json:"errors,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Wrote reports whether the pass wrote collection (optionally for one group,
// as in "lessons/ИТ-21").
func (o Outcome) Wrote(collection string) bool {
	return slices.Contains(o.Written, collection)
}

// Duration returns how long the pass ran.
func (o Outcome) Duration() time.Duration {
	if o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}
