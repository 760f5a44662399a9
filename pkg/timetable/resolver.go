package timetable

import (
	"context"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/logger"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/scraper"
)

// EventSource fetches events and the course/group catalogs.
type EventSource interface {
	FetchEvents(ctx context.Context, semesterProgramID, year, month int) ([]scraper.RawEvent, error)
	FetchCourses(ctx context.Context, semesterID, programID int) ([]scraper.RawCourse, error)
	FetchGroups(ctx context.Context, courseID, semesterID, programID int) ([]scraper.RawGroup, error)
	CheckPublished(ctx context.Context, semesterProgramID int) (bool, error)
	ClearCache()
}

// Resolver maps user-facing identifiers to catalog records.
type Resolver struct {
	discovery *Discovery
	events    EventSource
	log       logger.Logger
}

// NewResolver creates a Resolver.
func NewResolver(discovery *Discovery, events EventSource, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Resolver{discovery: discovery, events: events, log: log}
}

// ResolvePeriod finds a period by id, code, season/year keywords or name.
func (r *Resolver) ResolvePeriod(ctx context.Context, ref Ref) (Period, error) {
	if ref.IsZero() {
		return Period{}, notFound(KindPeriodNotFound, "period", ref.String())
	}
	periods, err := r.discovery.DiscoverPeriods(ctx)
	if err != nil {
		return Period{}, err
	}
	p, how, ok := firstMatch(periods, periodStrategies(ref))
	if !ok {
		return Period{}, notFound(KindPeriodNotFound, "period", refInput(ref))
	}
	r.log.Debugw("period resolved", map[string]any{"input": ref.String(), "strategy": how, "id": p.ID})
	return p, nil
}

// ResolveProgram finds a program of a period by id, code, full name, name or
// search tokens.
func (r *Resolver) ResolveProgram(ctx context.Context, ref Ref, periodID int) (Program, error) {
	if ref.IsZero() {
		return Program{}, notFound(KindProgramNotFound, "program", ref.String())
	}
	programs, err := r.discovery.DiscoverPrograms(ctx, periodID)
	if err != nil {
		return Program{}, err
	}
	p, how, ok := firstMatch(programs, programStrategies(ref))
	if !ok {
		return Program{}, notFound(KindProgramNotFound, "program", refInput(ref))
	}
	r.log.Debugw("program resolved", map[string]any{"input": ref.String(), "strategy": how, "id": p.ID})
	return p, nil
}

// ResolveCourse finds the course with the given number.
func (r *Resolver) ResolveCourse(ctx context.Context, number, periodID, programID int) (Course, error) {
	courses, err := r.GetCourses(ctx, periodID, programID)
	if err != nil {
		return Course{}, err
	}
	c, how, ok := firstMatch(courses, courseStrategies(number))
	if !ok {
		return Course{}, notFound(KindCourseNotFound, "course", number)
	}
	r.log.Debugw("course resolved", map[string]any{"input": number, "strategy": how, "id": c.ID})
	return c, nil
}

// ResolveGroup finds the group with the given number.
func (r *Resolver) ResolveGroup(ctx context.Context, number, periodID, programID, courseID int) (Group, error) {
	groups, err := r.GetGroups(ctx, periodID, programID, courseID)
	if err != nil {
		return Group{}, err
	}
	g, how, ok := firstMatch(groups, groupStrategies(number))
	if !ok {
		return Group{}, notFound(KindGroupNotFound, "group", number)
	}
	r.log.Debugw("group resolved", map[string]any{"input": number, "strategy": how, "id": g.ID})
	return g, nil
}

// GetCourses returns every course of a program.
func (r *Resolver) GetCourses(ctx context.Context, periodID, programID int) ([]Course, error) {
	raw, err := r.events.FetchCourses(ctx, periodID, programID)
	if err != nil {
		return nil, err
	}
	courses := make([]Course, 0, len(raw))
	for _, c := range raw {
		number := firstInt(c.Name)
		if number == 0 {
			number = c.Semester
		}
		courses = append(courses, Course{ID: c.ID, Number: number, Name: c.Name, Semester: c.Semester})
	}
	return courses, nil
}

// GetGroups returns every group of a course.
func (r *Resolver) GetGroups(ctx context.Context, periodID, programID, courseID int) ([]Group, error) {
	raw, err := r.events.FetchGroups(ctx, courseID, periodID, programID)
	if err != nil {
		return nil, err
	}
	groups := make([]Group, 0, len(raw))
	for _, g := range raw {
		groups = append(groups, Group{
			ID:                g.ID,
			Number:            firstInt(g.Name),
			Name:              g.Name,
			StudentCount:      g.StudentCount,
			SemesterProgramID: g.ID,
		})
	}
	return groups, nil
}

func refInput(ref Ref) any {
	if ref.IsNumeric() {
		return ref.ID
	}
	return ref.Text
}
