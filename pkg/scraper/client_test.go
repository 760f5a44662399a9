package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second, UserAgent: "test-agent"}, nil)
}

func TestClient_GetSendsUserAgent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "lv", r.URL.Query().Get("lang"))
		assert.Equal(t, "27", r.URL.Query().Get("semesterId"))
		w.Write([]byte("<html></html>"))
	})

	markup, err := NewCatalogSource(client, "").FetchCatalog(context.Background(), 27)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", markup)
}

func TestClient_StatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := NewCatalogSource(client, "lv").FetchCatalog(context.Background(), 0)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestCatalogSource_FetchSemesterMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/getChousenSemesterStartEndDate", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "27", r.PostForm.Get("semesterId"))
		w.Write([]byte(`{"startDate":1756674000000,"endDate":1769810400000}`))
	})

	meta, err := NewCatalogSource(client, "lv").FetchSemesterMetadata(context.Background(), 27)
	require.NoError(t, err)
	assert.False(t, meta.IsEmpty())
	assert.Equal(t, int64(1756674000000), meta.StartDate)
	assert.True(t, meta.End().After(meta.Start()))
}

func TestEventSource_FetchEventsIsCached(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/getSemesterProgEventList", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "25000", r.PostForm.Get("semesterProgramId"))
		assert.Equal(t, "2025", r.PostForm.Get("year"))
		assert.Equal(t, "9", r.PostForm.Get("month"))
		w.Write([]byte(`[{"eventDateId":1,"eventId":10,"eventDate":1757289600000,
			"customStart":{"hour":8,"minute":15,"second":0},
			"customEnd":{"hour":9,"minute":50,"second":0},
			"eventTempName":"Lekc. Algoritmi, J. Kalns",
			"roomInfoText":"A-101","lecturerInfoText":"J. Kalns"}]`))
	})
	src := NewEventSource(client, time.Minute)

	events, err := src.FetchEvents(context.Background(), 25000, 2025, 9)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].EventDateID)
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 50}, events[0].CustomEnd)
	assert.Equal(t, "Lekc. Algoritmi, J. Kalns", events[0].EventTempName)

	_, err = src.FetchEvents(context.Background(), 25000, 2025, 9)
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())

	src.ClearCache()
	_, err = src.FetchEvents(context.Background(), 25000, 2025, 9)
	require.NoError(t, err)
	assert.Equal(t, int32(2), requests.Load())
}

func TestEventSource_ValidatesBeforeRequest(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`[]`))
	})
	src := NewEventSource(client, time.Minute)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
	}{
		{"zero key", func() error { _, err := src.FetchEvents(ctx, 0, 2025, 9); return err }},
		{"bad month", func() error { _, err := src.FetchEvents(ctx, 1, 2025, 13); return err }},
		{"bad year", func() error { _, err := src.FetchEvents(ctx, 1, 1999, 1); return err }},
		{"courses", func() error { _, err := src.FetchCourses(ctx, -1, 5); return err }},
		{"groups", func() error { _, err := src.FetchGroups(ctx, 1, 2, 0); return err }},
		{"published", func() error { _, err := src.CheckPublished(ctx, 0); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, errors.Is(tc.call(), ErrInvalidParameter))
		})
	}
	assert.Equal(t, int32(0), requests.Load())
}

func TestEventSource_CoursesGroupsPublished(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case "/findCourseByProgramId":
			assert.Equal(t, "1166", r.PostForm.Get("programId"))
			w.Write([]byte(`[{"id":501,"name":"1. kurss","semester":1},{"id":502,"name":"2. kurss","semester":3}]`))
		case "/findGroupByCourseId":
			assert.Equal(t, "501", r.PostForm.Get("courseId"))
			w.Write([]byte(`[{"id":25001,"group":"1. grupa","studentCount":28}]`))
		case "/isSemesterProgramPublished":
			w.Write([]byte(`true`))
		default:
			http.NotFound(w, r)
		}
	})
	src := NewEventSource(client, time.Minute)
	ctx := context.Background()

	courses, err := src.FetchCourses(ctx, 27, 1166)
	require.NoError(t, err)
	assert.Equal(t, []RawCourse{{ID: 501, Name: "1. kurss", Semester: 1}, {ID: 502, Name: "2. kurss", Semester: 3}}, courses)

	groups, err := src.FetchGroups(ctx, 501, 27, 1166)
	require.NoError(t, err)
	assert.Equal(t, []RawGroup{{ID: 25001, Name: "1. grupa", StudentCount: 28}}, groups)

	published, err := src.CheckPublished(ctx, 25001)
	require.NoError(t, err)
	assert.True(t, published)
}

func TestEventSource_DecodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})
	_, err := NewEventSource(client, time.Minute).FetchEvents(context.Background(), 1, 2025, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode getSemesterProgEventList response")
}
