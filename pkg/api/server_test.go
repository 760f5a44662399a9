package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/metrics"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/timetable"
)

type fakeTimetable struct {
	periods   []timetable.Period
	err       error
	selector  timetable.Selector
	schedule  *timetable.Schedule
	published bool
	refreshed int
}

func (f *fakeTimetable) GetPeriods(context.Context) ([]timetable.Period, error) {
	return f.periods, f.err
}

func (f *fakeTimetable) GetCurrentPeriod(context.Context) (*timetable.Period, error) {
	if f.err != nil || len(f.periods) == 0 {
		return nil, f.err
	}
	return &f.periods[0], nil
}

func (f *fakeTimetable) GetPrograms(_ context.Context, period timetable.Ref) ([]timetable.Program, error) {
	if period.ID == 999 {
		return nil, &timetable.Error{Kind: timetable.KindPeriodNotFound, Input: 999, Message: "period not found"}
	}
	return []timetable.Program{{ID: 100, Code: "RDBD0"}}, f.err
}

func (f *fakeTimetable) GetCourses(context.Context, timetable.Ref, timetable.Ref) ([]timetable.Course, error) {
	return []timetable.Course{{ID: 500, Number: 1}}, f.err
}

func (f *fakeTimetable) GetGroups(context.Context, timetable.Ref, timetable.Ref, int) ([]timetable.Group, error) {
	return []timetable.Group{{ID: 9001, Number: 1}}, f.err
}

func (f *fakeTimetable) GetSchedule(_ context.Context, sel timetable.Selector) (*timetable.Schedule, error) {
	f.selector = sel
	if f.err != nil {
		return nil, f.err
	}
	return f.schedule, nil
}

func (f *fakeTimetable) IsSchedulePublished(context.Context, timetable.Ref, timetable.Ref, int, int) (bool, error) {
	return f.published, f.err
}

func (f *fakeTimetable) Refresh() { f.refreshed++ }

var loc = time.FixedZone("EET", 2*60*60)

func newTestServer(t *testing.T, tt *fakeTimetable) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewPromRecorder(reg)
	require.NoError(t, err)
	rec.MonthFetchFailed(1)
	return httptest.NewServer(NewServer(tt, Options{Gatherer: reg, Location: loc}).Handler())
}

func testSchedule() *timetable.Schedule {
	day := time.Date(2025, 10, 6, 0, 0, 0, 0, loc)
	entries := []timetable.ScheduleEntry{
		{ID: 1, Date: day, StartDateTime: day.Add(8 * time.Hour), Type: timetable.TypeLecture, Subject: timetable.Subject{Name: "Algoritmi"}},
		{ID: 2, Date: day, StartDateTime: day.Add(10 * time.Hour), Type: timetable.TypeLab, Subject: timetable.Subject{Name: "Ķīmija"}},
	}
	return timetable.NewSchedule(entries, timetable.ScheduleInfo{Course: timetable.Course{ID: 500, Number: 1}, StartDate: day, EndDate: day})
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf strings.Builder
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, []byte(buf.String())
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeTimetable{})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestPeriods(t *testing.T) {
	srv := newTestServer(t, &fakeTimetable{periods: []timetable.Period{{ID: 1, Code: "25/26-R"}}})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/periods")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var periods []timetable.Period
	require.NoError(t, json.Unmarshal(body, &periods))
	assert.Equal(t, "25/26-R", periods[0].Code)

	resp, _ = get(t, srv.URL+"/api/periods/current")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCurrentPeriodEmptyCatalog(t *testing.T) {
	srv := newTestServer(t, &fakeTimetable{})
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/api/periods/current")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t, &fakeTimetable{})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/programs?period=999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "period not found")

	resp, _ = get(t, srv.URL+"/api/courses")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "program is required")

	resp, _ = get(t, srv.URL+"/api/groups?program=RDBD0&course=first")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/api/schedule?program=RDBD0&course=1&from=06.10.2025")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	upstream := newTestServer(t, &fakeTimetable{err: errors.New("connection reset")})
	defer upstream.Close()
	resp, _ = get(t, upstream.URL+"/api/periods")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	invalid := newTestServer(t, &fakeTimetable{err: &timetable.Error{Kind: timetable.KindInvalidOptions}})
	defer invalid.Close()
	resp, _ = get(t, invalid.URL+"/api/schedule?program=RDBD0&course=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSchedule(t *testing.T) {
	tt := &fakeTimetable{schedule: testSchedule()}
	srv := newTestServer(t, tt)
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/schedule?period=25/26-R&program=RDBD0&course=1&group=2&from=2025-10-01&to=2025-10-31&type=Lab")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, timetable.RefText("25/26-R"), tt.selector.Period)
	assert.Equal(t, timetable.RefText("RDBD0"), tt.selector.Program)
	assert.Equal(t, 1, tt.selector.Course)
	assert.Equal(t, 2, tt.selector.Group)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, loc), tt.selector.StartDate)
	assert.Equal(t, time.Date(2025, 10, 31, 0, 0, 0, 0, loc), tt.selector.EndDate)

	var decoded struct {
		Count   int `json:"count"`
		Entries []struct {
			ID int `json:"id"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, 1, decoded.Count)
	assert.Equal(t, 2, decoded.Entries[0].ID)
}

func TestScheduleICS(t *testing.T) {
	srv := newTestServer(t, &fakeTimetable{schedule: testSchedule()})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/schedule.ics?program=RDBD0&course=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/calendar")
	assert.Equal(t, 2, strings.Count(string(body), "BEGIN:VEVENT"))
}

func TestPublishedAndRefresh(t *testing.T) {
	tt := &fakeTimetable{published: true}
	srv := newTestServer(t, tt)
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/published?program=RDBD0&course=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"published": true}`, string(body))

	resp, err := http.Post(srv.URL+"/api/refresh", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, tt.refreshed)

	resp, _ = get(t, srv.URL+"/api/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeTimetable{})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "timetable_month_fetch_failures_total 1")
}
