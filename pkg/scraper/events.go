package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/cache"
)

// EventSource fetches timetable events and the course/group catalogs behind
// them. Responses are cached for the configured TTL.
type EventSource struct {
	client    *Client
	events    *cache.Cache[[]RawEvent]
	courses   *cache.Cache[[]RawCourse]
	groups    *cache.Cache[[]RawGroup]
	published *cache.Cache[bool]
}

// NewEventSource creates an event source whose responses live for ttl.
func NewEventSource(client *Client, ttl time.Duration, opts ...cache.Option) *EventSource {
	return &EventSource{
		client:    client,
		events:    cache.New[[]RawEvent]("events", ttl, opts...),
		courses:   cache.New[[]RawCourse]("courses", ttl, opts...),
		groups:    cache.New[[]RawGroup]("groups", ttl, opts...),
		published: cache.New[bool]("published", ttl, opts...),
	}
}

// FetchEvents returns the events of one month for a semester program.
func (s *EventSource) FetchEvents(ctx context.Context, semesterProgramID, year, month int) ([]RawEvent, error) {
	if err := positive("semester program id", semesterProgramID); err != nil {
		return nil, err
	}
	if year < 2000 || year > 2100 {
		return nil, fmt.Errorf("%w: year %d", ErrInvalidParameter, year)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d", ErrInvalidParameter, month)
	}

	key := fmt.Sprintf("events:%d:%d:%d", semesterProgramID, year, month)
	return s.events.Get(ctx, key, func(ctx context.Context) ([]RawEvent, error) {
		form := url.Values{
			"semesterProgramId": {strconv.Itoa(semesterProgramID)},
			"year":              {strconv.Itoa(year)},
			"month":             {strconv.Itoa(month)},
		}
		var events []RawEvent
		if err := s.client.postJSON(ctx, "getSemesterProgEventList", form, &events); err != nil {
			return nil, err
		}
		return events, nil
	})
}

// FetchCourses returns the courses (years of study) of a program.
func (s *EventSource) FetchCourses(ctx context.Context, semesterID, programID int) ([]RawCourse, error) {
	if err := positive("semester id", semesterID); err != nil {
		return nil, err
	}
	if err := positive("program id", programID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("courses:%d:%d", semesterID, programID)
	return s.courses.Get(ctx, key, func(ctx context.Context) ([]RawCourse, error) {
		form := url.Values{
			"semesterId": {strconv.Itoa(semesterID)},
			"programId":  {strconv.Itoa(programID)},
		}
		var courses []RawCourse
		if err := s.client.postJSON(ctx, "findCourseByProgramId", form, &courses); err != nil {
			return nil, err
		}
		return courses, nil
	})
}

// FetchGroups returns the groups of a course.
func (s *EventSource) FetchGroups(ctx context.Context, courseID, semesterID, programID int) ([]RawGroup, error) {
	if err := positive("course id", courseID); err != nil {
		return nil, err
	}
	if err := positive("semester id", semesterID); err != nil {
		return nil, err
	}
	if err := positive("program id", programID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("groups:%d:%d:%d", courseID, semesterID, programID)
	return s.groups.Get(ctx, key, func(ctx context.Context) ([]RawGroup, error) {
		form := url.Values{
			"courseId":   {strconv.Itoa(courseID)},
			"semesterId": {strconv.Itoa(semesterID)},
			"programId":  {strconv.Itoa(programID)},
		}
		var groups []RawGroup
		if err := s.client.postJSON(ctx, "findGroupByCourseId", form, &groups); err != nil {
			return nil, err
		}
		return groups, nil
	})
}

// CheckPublished reports whether the timetable of a semester program is public.
func (s *EventSource) CheckPublished(ctx context.Context, semesterProgramID int) (bool, error) {
	if err := positive("semester program id", semesterProgramID); err != nil {
		return false, err
	}

	key := fmt.Sprintf("published:%d", semesterProgramID)
	return s.published.Get(ctx, key, func(ctx context.Context) (bool, error) {
		form := url.Values{"semesterProgramId": {strconv.Itoa(semesterProgramID)}}
		var published bool
		if err := s.client.postJSON(ctx, "isSemesterProgramPublished", form, &published); err != nil {
			return false, err
		}
		return published, nil
	})
}

// ClearCache drops all cached responses.
func (s *EventSource) ClearCache() {
	s.events.Clear()
	s.courses.Clear()
	s.groups.Clear()
	s.published.Clear()
}

func positive(name string, v int) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidParameter, name, v)
	}
	return nil
}
