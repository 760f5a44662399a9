package timetable

import (
	"context"
	"time"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/logger"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/metrics"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/scraper"
)

// Selector describes the timetable to assemble. PeriodID wins over Period;
// with neither set the current period is used. Either Program or ProgramID
// is required. A zero Group selects the whole course. Zero dates default to
// the period bounds.
type Selector struct {
	Period    Ref
	PeriodID  int
	Program   Ref
	ProgramID int
	Course    int
	Group     int
	StartDate time.Time
	EndDate   time.Time
}

// Validate checks the selector without any I/O.
func (s Selector) Validate() error {
	if s.Course < 1 {
		return invalidOptions("course number must be at least 1, got %d", s.Course)
	}
	if s.Program.IsZero() && s.ProgramID <= 0 {
		return invalidOptions("a program identifier or program id is required")
	}
	if s.Group < 0 {
		return invalidOptions("group number must not be negative, got %d", s.Group)
	}
	if !s.StartDate.IsZero() && !s.EndDate.IsZero() && dayStart(s.EndDate, time.UTC).Before(dayStart(s.StartDate, time.UTC)) {
		return invalidOptions("start date %s is after end date %s", s.StartDate.Format(time.DateOnly), s.EndDate.Format(time.DateOnly))
	}
	return nil
}

// Service resolves selections and assembles schedules.
type Service struct {
	discovery *Discovery
	resolver  *Resolver
	events    EventSource
	loc       *time.Location
	now       func() time.Time
	log       logger.Logger
	metrics   metrics.Recorder
}

// NewService wires Discovery and Resolver over the given collaborators.
func NewService(catalog CatalogSource, parser CatalogParser, events EventSource, opts Options) *Service {
	opts = opts.withDefaults()
	discovery := NewDiscovery(catalog, parser, opts)
	return &Service{
		discovery: discovery,
		resolver:  NewResolver(discovery, events, opts.Logger),
		events:    events,
		loc:       opts.Location,
		now:       opts.Now,
		log:       opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Resolver exposes the underlying resolver.
func (s *Service) Resolver() *Resolver { return s.resolver }

// Location is the time zone schedules are computed in.
func (s *Service) Location() *time.Location { return s.loc }

// GetPeriods lists every period.
func (s *Service) GetPeriods(ctx context.Context) ([]Period, error) {
	return s.discovery.DiscoverPeriods(ctx)
}

// GetCurrentPeriod returns the current period, or nil if the catalog is empty.
func (s *Service) GetCurrentPeriod(ctx context.Context) (*Period, error) {
	return s.discovery.DiscoverCurrentPeriod(ctx)
}

// GetPrograms lists the programs of a period; a zero ref means the current
// period.
func (s *Service) GetPrograms(ctx context.Context, period Ref) ([]Program, error) {
	p, err := s.resolvePeriod(ctx, 0, period)
	if err != nil {
		return nil, err
	}
	return s.discovery.DiscoverPrograms(ctx, p.ID)
}

// GetCourses lists the courses of a program.
func (s *Service) GetCourses(ctx context.Context, period, program Ref) ([]Course, error) {
	p, err := s.resolvePeriod(ctx, 0, period)
	if err != nil {
		return nil, err
	}
	prog, err := s.resolver.ResolveProgram(ctx, program, p.ID)
	if err != nil {
		return nil, err
	}
	return s.resolver.GetCourses(ctx, p.ID, prog.ID)
}

// GetGroups lists the groups of a course.
func (s *Service) GetGroups(ctx context.Context, period, program Ref, course int) ([]Group, error) {
	p, err := s.resolvePeriod(ctx, 0, period)
	if err != nil {
		return nil, err
	}
	prog, err := s.resolver.ResolveProgram(ctx, program, p.ID)
	if err != nil {
		return nil, err
	}
	c, err := s.resolver.ResolveCourse(ctx, course, p.ID, prog.ID)
	if err != nil {
		return nil, err
	}
	return s.resolver.GetGroups(ctx, p.ID, prog.ID, c.ID)
}

// selection is a fully resolved Selector.
type selection struct {
	period   Period
	program  Program
	course   Course
	group    *Group
	fetchKey int
}

func (s *Service) resolve(ctx context.Context, sel Selector) (selection, error) {
	var out selection
	var err error
	if out.period, err = s.resolvePeriod(ctx, sel.PeriodID, sel.Period); err != nil {
		return out, err
	}

	program := sel.Program
	if sel.ProgramID > 0 {
		program = RefID(sel.ProgramID)
	}
	if out.program, err = s.resolver.ResolveProgram(ctx, program, out.period.ID); err != nil {
		return out, err
	}
	if out.course, err = s.resolver.ResolveCourse(ctx, sel.Course, out.period.ID, out.program.ID); err != nil {
		return out, err
	}

	out.fetchKey = out.course.ID
	if sel.Group > 0 {
		g, err := s.resolver.ResolveGroup(ctx, sel.Group, out.period.ID, out.program.ID, out.course.ID)
		if err != nil {
			return out, err
		}
		out.group = &g
		out.fetchKey = g.SemesterProgramID
	}
	return out, nil
}

func (s *Service) resolvePeriod(ctx context.Context, id int, ref Ref) (Period, error) {
	switch {
	case id > 0:
		return s.resolver.ResolvePeriod(ctx, RefID(id))
	case !ref.IsZero():
		return s.resolver.ResolvePeriod(ctx, ref)
	}
	current, err := s.discovery.DiscoverCurrentPeriod(ctx)
	if err != nil {
		return Period{}, err
	}
	if current == nil {
		return Period{}, notFound(KindPeriodNotFound, "current period", nil)
	}
	return *current, nil
}

// GetSchedule resolves sel and assembles its schedule. Resolution failures
// abort the call; a month whose events cannot be fetched is logged and
// contributes no entries.
func (s *Service) GetSchedule(ctx context.Context, sel Selector) (*Schedule, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	res, err := s.resolve(ctx, sel)
	if err != nil {
		return nil, err
	}

	from, to := res.period.StartDate, res.period.EndDate
	if !sel.StartDate.IsZero() {
		from = sel.StartDate
	}
	if !sel.EndDate.IsZero() {
		to = sel.EndDate
	}
	windowStart := dayStart(from, s.loc)
	windowEnd := dayEnd(to, s.loc)

	months := monthsBetween(windowStart, windowEnd)
	results := s.fetchMonths(ctx, res.fetchKey, months)

	var events []scraper.RawEvent
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			continue
		}
		events = append(events, r.events...)
	}
	if failed > 0 && failed == len(results) {
		s.log.Warnf("all %d months failed for key %d, returning an empty schedule", failed, res.fetchKey)
	}

	entries := make([]ScheduleEntry, 0, len(events))
	for _, ev := range dedupeEvents(events) {
		e := TransformEvent(ev, s.loc)
		if e.Date.Before(windowStart) || e.Date.After(windowEnd) {
			continue
		}
		entries = append(entries, e)
	}
	sortByStart(entries)

	return NewSchedule(entries, ScheduleInfo{
		Period:    res.period,
		Program:   res.program,
		Course:    res.course,
		Group:     res.group,
		StartDate: windowStart,
		EndDate:   windowEnd,
		FetchedAt: s.now(),
	}), nil
}

type yearMonth struct {
	year  int
	month time.Month
}

// monthsBetween lists the calendar months overlapping [from, to] in order.
func monthsBetween(from, to time.Time) []yearMonth {
	if to.Before(from) {
		return nil
	}
	var months []yearMonth
	cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(last) {
		months = append(months, yearMonth{year: cur.Year(), month: cur.Month()})
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

type monthResult struct {
	month  yearMonth
	events []scraper.RawEvent
	err    error
}

// fetchMonths fetches each month in turn. Failures are kept per month so the
// caller can skip them.
func (s *Service) fetchMonths(ctx context.Context, key int, months []yearMonth) []monthResult {
	results := make([]monthResult, 0, len(months))
	for _, m := range months {
		events, err := s.events.FetchEvents(ctx, key, m.year, int(m.month))
		if err != nil {
			s.log.Warnf("skipping %d-%02d for key %d: %v", m.year, m.month, key, err)
			s.metrics.MonthFetchFailed(key)
		}
		results = append(results, monthResult{month: m, events: events, err: err})
	}
	return results
}

// dedupeEvents keeps the first event for every id.
func dedupeEvents(events []scraper.RawEvent) []scraper.RawEvent {
	seen := make(map[int]bool, len(events))
	unique := make([]scraper.RawEvent, 0, len(events))
	for _, ev := range events {
		if !seen[ev.EventDateID] {
			seen[ev.EventDateID] = true
			unique = append(unique, ev)
		}
	}
	return unique
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func dayEnd(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, loc)
}

// IsSchedulePublished resolves the selection and asks whether its timetable
// is public. A zero group checks the whole course.
func (s *Service) IsSchedulePublished(ctx context.Context, period, program Ref, course, group int) (bool, error) {
	sel := Selector{Period: period, Program: program, Course: course, Group: group}
	if err := sel.Validate(); err != nil {
		return false, err
	}
	res, err := s.resolve(ctx, sel)
	if err != nil {
		return false, err
	}
	return s.events.CheckPublished(ctx, res.fetchKey)
}

// ClearCache drops the catalog and event caches.
func (s *Service) ClearCache() {
	s.discovery.ClearCache()
	s.events.ClearCache()
}

// Refresh forces the next call to refetch everything.
func (s *Service) Refresh() {
	s.log.Infof("clearing timetable caches")
	s.ClearCache()
}
