// Package api serves the timetable over HTTP as JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/exporter"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/logger"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/timetable"
)

// Timetable is the part of timetable.Service the server needs.
type Timetable interface {
	GetPeriods(ctx context.Context) ([]timetable.Period, error)
	GetCurrentPeriod(ctx context.Context) (*timetable.Period, error)
	GetPrograms(ctx context.Context, period timetable.Ref) ([]timetable.Program, error)
	GetCourses(ctx context.Context, period, program timetable.Ref) ([]timetable.Course, error)
	GetGroups(ctx context.Context, period, program timetable.Ref, course int) ([]timetable.Group, error)
	GetSchedule(ctx context.Context, sel timetable.Selector) (*timetable.Schedule, error)
	IsSchedulePublished(ctx context.Context, period, program timetable.Ref, course, group int) (bool, error)
	Refresh()
}

// Options configures a Server. Zero fields take defaults.
type Options struct {
	Logger logger.Logger
	// Gatherer backs /metrics; nil disables the route.
	Gatherer prometheus.Gatherer
	// Location is used to parse from/to dates.
	Location *time.Location
}

// Server exposes a Timetable over HTTP.
type Server struct {
	tt  Timetable
	log logger.Logger
	loc *time.Location
	mux *http.ServeMux
}

// NewServer constructs a Server with its routes registered.
func NewServer(tt Timetable, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.NopLogger{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	s := &Server{tt: tt, log: opts.Logger, loc: opts.Location, mux: http.NewServeMux()}
	s.registerRoutes(opts.Gatherer)
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/periods", s.handlePeriods)
	s.mux.HandleFunc("GET /api/periods/current", s.handleCurrentPeriod)
	s.mux.HandleFunc("GET /api/programs", s.handlePrograms)
	s.mux.HandleFunc("GET /api/courses", s.handleCourses)
	s.mux.HandleFunc("GET /api/groups", s.handleGroups)
	s.mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	s.mux.HandleFunc("GET /api/schedule.ics", s.handleScheduleICS)
	s.mux.HandleFunc("GET /api/published", s.handlePublished)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	if gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("server shutdown: %v", err)
		}
	}()
	s.log.Infof("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := s.tt.GetPeriods(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	p, err := s.tt.GetCurrentPeriod(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "no periods available")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.tt.GetPrograms(r.Context(), timetable.ParsePeriodRef(r.URL.Query().Get("period")))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	program, ok := requiredRef(w, q.Get("program"), "program")
	if !ok {
		return
	}
	courses, err := s.tt.GetCourses(r.Context(), timetable.ParsePeriodRef(q.Get("period")), program)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	program, ok := requiredRef(w, q.Get("program"), "program")
	if !ok {
		return
	}
	course, err := intParam(q.Get("course"), "course")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	groups, err := s.tt.GetGroups(r.Context(), timetable.ParsePeriodRef(q.Get("period")), program, course)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// selector builds a timetable.Selector from the query string.
func (s *Server) selector(r *http.Request) (timetable.Selector, error) {
	q := r.URL.Query()
	sel := timetable.Selector{
		Period:  timetable.ParsePeriodRef(q.Get("period")),
		Program: timetable.ParseRef(q.Get("program")),
	}
	var err error
	if sel.Course, err = intParam(q.Get("course"), "course"); err != nil {
		return sel, err
	}
	if v := q.Get("group"); v != "" {
		if sel.Group, err = intParam(v, "group"); err != nil {
			return sel, err
		}
	}
	if sel.StartDate, err = s.dateParam(q.Get("from"), "from"); err != nil {
		return sel, err
	}
	if sel.EndDate, err = s.dateParam(q.Get("to"), "to"); err != nil {
		return sel, err
	}
	return sel, nil
}

func (s *Server) schedule(w http.ResponseWriter, r *http.Request) (*timetable.Schedule, bool) {
	sel, err := s.selector(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	schedule, err := s.tt.GetSchedule(r.Context(), sel)
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	if types := r.URL.Query().Get("type"); types != "" {
		var want []timetable.EntryType
		for _, t := range strings.Split(types, ",") {
			want = append(want, timetable.EntryType(strings.ToLower(strings.TrimSpace(t))))
		}
		schedule = schedule.FilterByType(want...)
	}
	return schedule, true
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if schedule, ok := s.schedule(w, r); ok {
		writeJSON(w, http.StatusOK, schedule)
	}
}

func (s *Server) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	schedule, ok := s.schedule(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	if err := exporter.GenerateICS(schedule, w); err != nil {
		s.log.Errorf("failed to write calendar: %v", err)
	}
}

func (s *Server) handlePublished(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selector(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	published, err := s.tt.IsSchedulePublished(r.Context(), sel.Period, sel.Program, sel.Course, sel.Group)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"published": published})
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.tt.Refresh()
	w.WriteHeader(http.StatusNoContent)
}

func requiredRef(w http.ResponseWriter, v, name string) (timetable.Ref, bool) {
	ref := timetable.ParseRef(v)
	if ref.IsZero() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("missing %s parameter", name))
		return ref, false
	}
	return ref, true
}

func intParam(v, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, v)
	}
	return n, nil
}

func (s *Server) dateParam(v, name string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date, got %q", name, v)
	}
	return t, nil
}

// statusFor maps timetable errors to HTTP status codes.
func statusFor(err error) int {
	var terr *timetable.Error
	switch {
	case timetable.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &terr) && terr.Kind == timetable.KindInvalidOptions:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorf("request failed: %v", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
