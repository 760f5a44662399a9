package exporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/timetable"
)

// uidNamespace scopes event UIDs so re-exports of the same entry update
// the existing calendar event instead of duplicating it.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://nodarbibas.rtu.lv"))

// EventUID returns the stable calendar UID of an entry.
func EventUID(e timetable.ScheduleEntry) string {
	return uuid.NewSHA1(uidNamespace, []byte(strconv.Itoa(e.ID))).String() + "@nodarbibas.rtu.lv"
}

// CalendarName describes the selection a schedule was built for.
func CalendarName(s *timetable.Schedule) string {
	parts := []string{s.Program().Code, fmt.Sprintf("%d. kurss", s.Course().Number)}
	if g := s.Group(); g != nil {
		parts = append(parts, g.Name)
	}
	if code := s.Period().Code; code != "" {
		parts = append(parts, code)
	}
	return strings.Join(parts, " ")
}

// GenerateICS writes the schedule as an iCalendar feed to w.
func GenerateICS(s *timetable.Schedule, w io.Writer) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(CalendarName(s))

	stamp := s.FetchedAt()
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, e := range s.Entries() {
		event := cal.AddEvent(EventUID(e))
		event.SetCreatedTime(stamp)
		event.SetDtStampTime(stamp)
		event.SetModifiedAt(stamp)
		event.SetStartAt(e.StartDateTime)
		event.SetEndAt(e.EndDateTime)
		event.SetSummary(summary(e))
		if e.Location != "" {
			event.SetLocation(e.Location)
		}
		event.SetDescription(description(e))
	}

	return cal.SerializeTo(w)
}

func summary(e timetable.ScheduleEntry) string {
	if e.TypeRaw == "" {
		return e.Subject.Name
	}
	return fmt.Sprintf("%s (%s)", e.Subject.Name, e.TypeRaw)
}

func description(e timetable.ScheduleEntry) string {
	lines := []string{"Type: " + string(e.Type)}
	if e.Lecturer != "" {
		lines = append(lines, "Lecturer: "+e.Lecturer)
	}
	if e.Room != "" {
		lines = append(lines, fmt.Sprintf("Building: %s, room %s", e.Building, e.Room))
	}
	return strings.Join(lines, "\n")
}
