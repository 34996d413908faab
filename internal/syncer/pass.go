package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"timetable/internal/course"
	"timetable/internal/logging"
	"timetable/internal/result"
	"timetable/internal/schedule"
	"timetable/internal/sources"
)

// pass holds the state of one execution of the state machine.
type pass struct {
	orch     *Orchestrator
	req      Request
	logger   *slog.Logger
	source   sources.DataSource
	outcome  Outcome
	lastCode string

	// fallbackSlugs maps catalog codes to the fallback site's faculty codes.
	fallbackSlugs map[string]string
}

func (p *pass) execute(ctx context.Context) result.Envelope[Outcome] {
	o := p.orch
	o.setPhase(PhaseIdle)
	if p.req.Empty() {
		return p.finish(ctx)
	}

	// Without a faculty list the pass ends here and the cache stays as is.
	if p.req.Catalog && !p.syncCatalog(ctx) {
		return p.finish(ctx)
	}
	for _, code := range p.req.Groups {
		p.syncGroupSchedule(ctx, code)
	}
	if p.req.IncludeReference {
		p.syncBells(ctx)
		p.syncDepartments(ctx)
	}
	return p.finish(ctx)
}

// fetch runs one collection through the source chain and adopts the first
// source that succeeds as the pass source.
func fetch[T any](p *pass, collection string, call func(sources.DataSource) result.Envelope[T]) (result.Envelope[T], sources.DataSource) {
	o := p.orch
	failure := result.Error[T]("no source enabled", sources.CodeSourceUnavailable)

	if o.primary != nil && (p.source == nil || p.source == o.primary) {
		o.setPhase(PhaseTryingPrimary)
		env := call(o.primary)
		if env.IsSuccess() {
			p.adopt(o.primary)
			return env, o.primary
		}
		p.logger.Info("primary source failed",
			logging.String(logging.FieldSource, o.primary.Name()),
			logging.String("collection", collection),
			logging.String("code", env.Code),
			logging.String("reason", env.Message),
		)
		failure = env
	}
	if o.fallback != nil {
		o.setPhase(PhaseTryingFallback)
		env := call(o.fallback)
		if env.IsSuccess() {
			p.adopt(o.fallback)
			return env, o.fallback
		}
		failure = env
	}

	logging.WarnWithContext(p.logger, "collection unavailable from every source", "sync_collection_failed",
		logging.String("collection", collection),
		logging.String("code", failure.Code),
		logging.String("reason", failure.Message),
		logging.String(logging.FieldErrorHint, "check upstream reachability with `timetable doctor`"),
		logging.String(logging.FieldImpact, "cached data for this collection is kept"),
	)
	p.fail(collection, failure.Message, failure.Code)
	return failure, nil
}

func (p *pass) adopt(ds sources.DataSource) {
	if p.source != nil {
		return
	}
	p.source = ds
	p.outcome.Source = ds.Name()
	p.logger = p.logger.With(logging.String(logging.FieldSource, ds.Name()))
}

func (p *pass) fail(collection, message, code string) {
	p.outcome.Errors = append(p.outcome.Errors, fmt.Sprintf("%s: %s", collection, message))
	if code != "" {
		p.lastCode = code
	}
}

func (p *pass) wrote(collection string, records, skipped int) {
	p.outcome.Written = append(p.outcome.Written, collection)
	p.outcome.Skipped += skipped
	name, _, _ := strings.Cut(collection, "/")
	p.orch.metrics.AddWritten(name, records-skipped)
	p.orch.metrics.AddSkipped(name, skipped)
	if skipped > 0 {
		p.logger.Info("skipped invalid records", logging.String("collection", collection), logging.Int("skipped", skipped))
	}
}

func (p *pass) storageFailed(collection string, err error) {
	logging.ErrorWithContext(p.logger, "cache write failed", "sync_write_failed",
		logging.String("collection", collection),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check disk space and permissions of the data directory"),
	)
	p.fail(collection, err.Error(), CodeStorage)
}

// syncCatalog refreshes faculties and then every faculty's groups. It
// reports whether the faculty list was written.
func (p *pass) syncCatalog(ctx context.Context) bool {
	o := p.orch
	env, ds := fetch(p, CollectionFaculties, func(s sources.DataSource) result.Envelope[[]schedule.Faculty] {
		return s.FetchFaculties(ctx)
	})
	fetched, ok := env.Get()
	if !ok {
		return false
	}

	cached, err := o.store.Faculties(ctx)
	if err != nil {
		p.storageFailed(CollectionFaculties, err)
		return false
	}
	faculties, upstreamCodes := reconcileFaculties(cached, fetched)

	o.setPhase(PhaseWriting)
	skipped, err := o.store.ReplaceFaculties(ctx, faculties)
	if err != nil {
		p.storageFailed(CollectionFaculties, err)
		return false
	}
	p.wrote(CollectionFaculties, len(faculties), skipped)
	p.logger.Info("faculties written", logging.Int("count", len(faculties)-skipped))

	p.syncGroups(ctx, faculties, upstreamCodes, ds)
	return true
}

// syncGroups fetches the groups of every faculty from the source that
// produced the faculty list. A faculty whose groups cannot be fetched keeps
// its cached groups.
func (p *pass) syncGroups(ctx context.Context, faculties []schedule.Faculty, upstreamCodes map[string]string, catalogSource sources.DataSource) {
	o := p.orch
	var (
		all        []schedule.Group
		fetchedAny bool
	)
	for _, faculty := range faculties {
		code := faculty.Code
		if code == "" || strings.TrimSpace(faculty.Name) == "" {
			continue
		}
		env, ds := fetch(p, CollectionGroups+"/"+code, func(s sources.DataSource) result.Envelope[[]schedule.Group] {
			query := code
			switch s {
			case catalogSource:
				query = upstreamCodes[code]
			case o.fallback:
				query = p.fallbackCode(ctx, faculties, code)
			}
			return s.FetchGroupsForFaculty(ctx, query)
		})
		groups, ok := env.Get()
		if !ok {
			carried, err := o.store.Groups(ctx, code, "", 0)
			if err != nil {
				p.storageFailed(CollectionGroups+"/"+code, err)
				continue
			}
			p.logger.Info("keeping cached groups",
				logging.String(logging.FieldFaculty, code),
				logging.Int("count", len(carried)),
			)
			all = append(all, carried...)
			continue
		}
		fetchedAny = true
		for _, g := range groups {
			g.FacultyCode = code
			if !schedule.ValidCourse(g.Course) {
				g.Course = course.Resolve(g.Code)
			}
			all = append(all, g)
		}
		p.logger.Debug("groups fetched",
			logging.String(logging.FieldFaculty, code),
			logging.String(logging.FieldSource, ds.Name()),
			logging.Int("count", len(groups)),
		)
	}
	if !fetchedAny {
		return
	}

	o.setPhase(PhaseWriting)
	skipped, err := o.store.ReplaceGroups(ctx, all)
	if err != nil {
		p.storageFailed(CollectionGroups, err)
		return
	}
	p.wrote(CollectionGroups, len(all), skipped)
	p.logger.Info("groups written", logging.Int("count", len(all)-skipped), logging.Int("skipped", skipped))
}

// fallbackCode maps a catalog code to the code the fallback site uses for
// the same faculty. The site's faculty list is fetched at most once per pass;
// without it the catalog code is used as is.
func (p *pass) fallbackCode(ctx context.Context, faculties []schedule.Faculty, code string) string {
	if p.fallbackSlugs == nil {
		p.fallbackSlugs = map[string]string{}
		if list, ok := p.orch.fallback.FetchFaculties(ctx).Get(); ok {
			_, p.fallbackSlugs = reconcileFaculties(faculties, list)
		} else {
			p.logger.Debug("fallback faculty list unavailable; retrying groups with catalog codes")
		}
	}
	if slug, ok := p.fallbackSlugs[code]; ok && slug != "" {
		return slug
	}
	return code
}

func (p *pass) syncGroupSchedule(ctx context.Context, code string) {
	o := p.orch
	req := p.req
	env, _ := fetch(p, CollectionLessons+"/"+code, func(s sources.DataSource) result.Envelope[schedule.GroupSchedule] {
		return s.FetchScheduleForGroup(ctx, code, req.Day, req.Parity)
	})
	sched, ok := env.Get()
	if !ok {
		return
	}

	o.setPhase(PhaseWriting)
	skipped, err := o.store.ReplaceLessons(ctx, code, req.Day, req.Parity, sched.Lessons)
	if err != nil {
		p.storageFailed(CollectionLessons+"/"+code, err)
		return
	}
	p.wrote(CollectionLessons+"/"+code, len(sched.Lessons), skipped)

	// A day or parity scoped answer may leave the exam session out.
	fullWeek := req.Day == 0 && req.Parity == schedule.AnyParity
	if len(sched.Exams) > 0 || fullWeek {
		skipped, err := o.store.ReplaceExams(ctx, code, sched.Exams)
		if err != nil {
			p.storageFailed(CollectionExams+"/"+code, err)
			return
		}
		p.wrote(CollectionExams+"/"+code, len(sched.Exams), skipped)
	}
	if err := o.store.SetScheduleStamp(ctx, code, o.now()); err != nil {
		p.storageFailed(CollectionLessons+"/"+code, err)
		return
	}
	p.logger.Info("group schedule written",
		logging.String(logging.FieldGroup, code),
		logging.Int("lessons", len(sched.Lessons)),
		logging.Int("exams", len(sched.Exams)),
	)
}

func (p *pass) syncBells(ctx context.Context) {
	env, _ := fetch(p, CollectionBells, func(s sources.DataSource) result.Envelope[[]schedule.BellSlot] {
		return s.FetchBellSchedule(ctx)
	})
	slots, ok := env.Get()
	if !ok {
		return
	}
	p.orch.setPhase(PhaseWriting)
	if err := p.orch.store.ReplaceBellSchedule(ctx, slots); err != nil {
		p.storageFailed(CollectionBells, err)
		return
	}
	p.wrote(CollectionBells, len(slots), 0)
}

func (p *pass) syncDepartments(ctx context.Context) {
	env, _ := fetch(p, CollectionDepartments, func(s sources.DataSource) result.Envelope[[]schedule.Department] {
		return s.FetchDepartments(ctx)
	})
	departments, ok := env.Get()
	if !ok {
		return
	}
	p.orch.setPhase(PhaseWriting)
	if err := p.orch.store.ReplaceDepartments(ctx, departments); err != nil {
		p.storageFailed(CollectionDepartments, err)
		return
	}
	p.wrote(CollectionDepartments, len(departments), 0)
}

// finish settles the final phase, records the sync state when the catalog
// was written, and builds the pass envelope. Group schedules carry their own
// stamps and reference documents follow the catalog, so neither moves the
// weekly refresh.
func (p *pass) finish(ctx context.Context) result.Envelope[Outcome] {
	o := p.orch
	p.outcome.FinishedAt = o.now()

	if len(p.outcome.Written) == 0 && len(p.outcome.Errors) > 0 {
		p.outcome.Phase = PhaseFailed
		o.setPhase(PhaseFailed)
		message := "sync failed: " + strings.Join(p.outcome.Errors, "; ")
		logging.WarnWithContext(p.logger, "sync pass failed", "sync_pass_failed",
			logging.Int("errors", len(p.outcome.Errors)),
			logging.Duration("elapsed", p.outcome.Duration()),
			logging.String(logging.FieldImpact, "serving cached data until the next attempt"),
		)
		return result.Error[Outcome](message, p.lastCode)
	}

	if p.outcome.Wrote(CollectionFaculties) {
		if err := o.store.SetSyncState(ctx, p.outcome.FinishedAt, p.outcome.Source); err != nil {
			p.storageFailed("sync_state", err)
		} else {
			o.metrics.SetLastSuccess(p.outcome.FinishedAt)
		}
	}
	p.outcome.Phase = PhaseDone
	o.setPhase(PhaseDone)
	p.logger.Info("sync pass finished",
		logging.Int("written", len(p.outcome.Written)),
		logging.Int("skipped", p.outcome.Skipped),
		logging.Int("errors", len(p.outcome.Errors)),
		logging.Duration("elapsed", p.outcome.Duration()),
	)
	return result.Success(p.outcome)
}
