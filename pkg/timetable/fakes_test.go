package timetable

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/metrics"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/scraper"
)

var testLoc = time.FixedZone("EET", 2*60*60)

func ms(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 0, 0, 0, 0, testLoc).UnixMilli()
}

// fakeCatalog serves canned catalog data. The markup it returns is just the
// requested semester id; fakeParser ignores it.
type fakeCatalog struct {
	mu        sync.Mutex
	calls     int
	meta      map[int]scraper.SemesterMetadata
	metaErr   map[int]error
	err       error
	started   chan struct{}
	gate      chan struct{}
	startOnce sync.Once
}

func (f *fakeCatalog) FetchCatalog(ctx context.Context, semesterID int) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprint(semesterID), nil
}

func (f *fakeCatalog) FetchSemesterMetadata(_ context.Context, semesterID int) (scraper.SemesterMetadata, error) {
	if err := f.metaErr[semesterID]; err != nil {
		return scraper.SemesterMetadata{}, err
	}
	return f.meta[semesterID], nil
}

func (f *fakeCatalog) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeParser struct {
	semesters []scraper.RawSemester
	faculties []scraper.RawFaculty
}

func (p fakeParser) ParseSemesters(string) []scraper.RawSemester { return p.semesters }
func (p fakeParser) ParsePrograms(string) []scraper.RawFaculty   { return p.faculties }

type fetchCall struct {
	key, year, month int
}

type fakeEvents struct {
	mu         sync.Mutex
	courses    []scraper.RawCourse
	groups     []scraper.RawGroup
	events     map[string][]scraper.RawEvent
	failMonths map[string]bool
	published  bool
	calls      []fetchCall
	cleared    int
}

func monthKey(year, month int) string { return fmt.Sprintf("%d-%02d", year, month) }

func (f *fakeEvents) FetchEvents(_ context.Context, key, year, month int) ([]scraper.RawEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{key, year, month})
	if f.failMonths[monthKey(year, month)] {
		return nil, errors.New("upstream unavailable")
	}
	return f.events[monthKey(year, month)], nil
}

func (f *fakeEvents) FetchCourses(context.Context, int, int) ([]scraper.RawCourse, error) {
	return f.courses, nil
}

func (f *fakeEvents) FetchGroups(context.Context, int, int, int) ([]scraper.RawGroup, error) {
	return f.groups, nil
}

func (f *fakeEvents) CheckPublished(context.Context, int) (bool, error) { return f.published, nil }

func (f *fakeEvents) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeEvents) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.calls...)
}

type countingRecorder struct {
	metrics.NopRecorder
	mu     sync.Mutex
	failed []int
}

func (r *countingRecorder) MonthFetchFailed(key int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, key)
}

func rawEvent(id int, y int, m time.Month, d, startHour, endHour int, name string) scraper.RawEvent {
	return scraper.RawEvent{
		EventDateID:      id,
		EventID:          id * 10,
		EventDate:        ms(y, m, d),
		CustomStart:      scraper.TimeOfDay{Hour: startHour, Minute: 15},
		CustomEnd:        scraper.TimeOfDay{Hour: endHour, Minute: 50},
		EventTempName:    name,
		RoomInfoText:     "Ķīpsalas 6A-101",
		LecturerInfoText: "J. Kalns",
	}
}

var fixedNow = time.Date(2025, 10, 15, 12, 0, 0, 0, testLoc)

type fixture struct {
	catalog  *fakeCatalog
	parser   fakeParser
	events   *fakeEvents
	recorder *countingRecorder
}

func newFixture() *fixture {
	return &fixture{
		catalog: &fakeCatalog{
			meta: map[int]scraper.SemesterMetadata{
				1: {StartDate: ms(2025, time.September, 1), EndDate: ms(2026, time.January, 31)},
				2: {StartDate: ms(2026, time.February, 2), EndDate: ms(2026, time.June, 30)},
			},
		},
		parser: fakeParser{
			semesters: []scraper.RawSemester{
				{ID: 1, Name: "2025/2026 Rudens semestris (25/26-R)", Selected: true},
				{ID: 2, Name: "2025/2026 Pavasara semestris (25/26-P)"},
			},
			faculties: []scraper.RawFaculty{
				{
					Name: "Datorzinātnes, informācijas tehnoloģijas un enerģētikas fakultāte (DITEF)",
					Programs: []scraper.RawProgram{
						{ID: 100, Name: "Datorsistēmas (RDBD0)", Tokens: "datorsistemas computer systems"},
						{ID: 101, Name: "Informācijas tehnoloģija (RDBI0)"},
					},
				},
			},
		},
		events: &fakeEvents{
			courses: []scraper.RawCourse{
				{ID: 500, Name: "1. kurss", Semester: 1},
				{ID: 501, Name: "2. kurss", Semester: 3},
			},
			groups: []scraper.RawGroup{
				{ID: 9001, Name: "1. grupa", StudentCount: 30},
				{ID: 9002, Name: "2. grupa", StudentCount: 28},
			},
			events:     map[string][]scraper.RawEvent{},
			failMonths: map[string]bool{},
		},
		recorder: &countingRecorder{},
	}
}

func (f *fixture) options() Options {
	return Options{
		Location: testLoc,
		Metrics:  f.recorder,
		Now:      func() time.Time { return fixedNow },
	}
}

func (f *fixture) service() *Service {
	return NewService(f.catalog, f.parser, f.events, f.options())
}

func (f *fixture) discovery() *Discovery {
	return NewDiscovery(f.catalog, f.parser, f.options())
}
