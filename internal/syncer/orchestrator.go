package syncer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"timetable/internal/logging"
	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/sources"
	"timetable/internal/telemetry"
	"timetable/internal/textutil"
)

// Store is the subset of the cache the orchestrator reads and writes.
type Store interface {
	Faculties(ctx context.Context) ([]schedule.Faculty, error)
	Groups(ctx context.Context, facultyCode string, form schedule.EducationForm, course int) ([]schedule.Group, error)
	ReplaceFaculties(ctx context.Context, faculties []schedule.Faculty) (int, error)
	ReplaceGroups(ctx context.Context, groups []schedule.Group) (int, error)
	ReplaceLessons(ctx context.Context, groupCode string, day int, parity schedule.Parity, lessons []schedule.Lesson) (int, error)
	ReplaceExams(ctx context.Context, groupCode string, exams []schedule.Exam) (int, error)
	ReplaceBellSchedule(ctx context.Context, slots []schedule.BellSlot) error
	ReplaceDepartments(ctx context.Context, departments []schedule.Department) error
	SetSyncState(ctx context.Context, at time.Time, source string) error
	SetScheduleStamp(ctx context.Context, groupCode string, at time.Time) error
}

// Orchestrator runs sync passes against a primary and a fallback source.
// Either source may be nil when disabled.
type Orchestrator struct {
	store    Store
	primary  sources.DataSource
	fallback sources.DataSource
	now      func() time.Time
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	tracked  []string

	flightMu sync.Mutex
	current  *flight
	next     *flight
	phase    atomic.Int32
	passSeq  atomic.Uint64

	mu   sync.RWMutex
	last *Outcome
}

// flight is one pass and the callers waiting for its outcome.
type flight struct {
	req  Request
	done chan struct{}
	env  result.Envelope[Outcome]
}

func newFlight(req Request) *flight {
	return &flight{req: req, done: make(chan struct{})}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock injects the time source used for sync stamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logging.NewComponentLogger(logger, "syncer")
	}
}

// WithMetrics records pass and write metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithTrackedGroups sets the groups whose schedules a full pass refreshes.
func WithTrackedGroups(codes []string) Option {
	return func(o *Orchestrator) {
		o.tracked = normalizeGroups(codes)
	}
}

// New builds an orchestrator.
func New(store Store, primary, fallback sources.DataSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		primary:  primary,
		fallback: fallback,
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Full returns the request for a complete refresh: the catalog, the tracked
// groups' week, and the reference documents.
func (o *Orchestrator) Full() Request {
	return Request{
		Catalog:          true,
		Groups:           append([]string(nil), o.tracked...),
		IncludeReference: true,
	}
}

// Phase reports the state of the pass currently executing, or the final
// state of the last one.
func (o *Orchestrator) Phase() Phase {
	return Phase(o.phase.Load())
}

// LastOutcome returns the outcome of the most recent finished pass.
func (o *Orchestrator) LastOutcome() (Outcome, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.last == nil {
		return Outcome{}, false
	}
	return *o.last, true
}

// Sync runs a pass for req. Passes never overlap. A caller whose request is
// covered by the pass in flight receives that pass's outcome. Anything else
// is folded into a single follow-up pass that starts when the current one
// ends, so concurrent triggers fetch each collection at most once.
func (o *Orchestrator) Sync(ctx context.Context, req Request) result.Envelope[Outcome] {
	req.Groups = normalizeGroups(req.Groups)

	o.flightMu.Lock()
	switch {
	case o.current == nil:
		f := newFlight(req)
		o.current = f
		o.flightMu.Unlock()
		o.fly(ctx, f)
		return f.env
	case o.current.req.Covers(req):
		f := o.current
		o.flightMu.Unlock()
		<-f.done
		return f.env
	case o.next != nil:
		f := o.next
		f.req = f.req.Merge(req.Without(o.current.req))
		o.flightMu.Unlock()
		<-f.done
		return f.env
	default:
		prev := o.current
		f := newFlight(req.Without(prev.req))
		o.next = f
		o.flightMu.Unlock()
		// prev promotes f to current before it signals done.
		<-prev.done
		o.fly(ctx, f)
		return f.env
	}
}

// fly runs f and hands the slot to the queued follow-up, if any.
func (o *Orchestrator) fly(ctx context.Context, f *flight) {
	f.env = o.run(ctx, f.req)
	o.flightMu.Lock()
	o.current = o.next
	o.next = nil
	o.flightMu.Unlock()
	close(f.done)
}

func (o *Orchestrator) setPhase(p Phase) {
	o.phase.Store(int32(p))
}

func (o *Orchestrator) run(ctx context.Context, req Request) result.Envelope[Outcome] {
	id := o.passSeq.Add(1)
	ctx = logging.WithPassID(ctx, id)
	p := &pass{
		orch:   o,
		req:    req,
		logger: logging.WithContext(ctx, o.logger),
		outcome: Outcome{
			PassID:    id,
			StartedAt: o.now(),
		},
	}
	p.logger.Info("sync pass started",
		logging.Bool("catalog", req.Catalog),
		logging.Int("groups", len(req.Groups)),
		logging.Bool("reference", req.IncludeReference),
	)

	env := p.execute(ctx)

	o.mu.Lock()
	final := p.outcome
	o.last = &final
	o.mu.Unlock()
	o.metrics.ObservePass(final.Phase.String(), final.Source, final.Duration())
	return env
}

func normalizeGroups(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = textutil.NormalizeCode(code)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
