package exporter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/scraper"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/timetable"
)

var riga = time.FixedZone("EEST", 3*60*60)

func testSchedule() *timetable.Schedule {
	entry := timetable.TransformEvent(scraper.RawEvent{
		EventDateID:      42,
		EventDate:        time.Date(2025, 10, 6, 0, 0, 0, 0, riga).UnixMilli(),
		CustomStart:      scraper.TimeOfDay{Hour: 10, Minute: 15},
		CustomEnd:        scraper.TimeOfDay{Hour: 11, Minute: 50},
		EventTempName:    "Lekc. Algoritmi, J. Kalns",
		RoomInfoText:     "A-101",
		LecturerInfoText: "J. Kalns",
	}, riga)
	return timetable.NewSchedule([]timetable.ScheduleEntry{entry}, timetable.ScheduleInfo{
		Period:    timetable.Period{Code: "25/26-R"},
		Program:   timetable.Program{Code: "RDBD0"},
		Course:    timetable.Course{Number: 1},
		Group:     &timetable.Group{Name: "2. grupa"},
		FetchedAt: time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
	})
}

func TestGenerateICS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateICS(testSchedule(), &buf))
	output := buf.String()

	assert.Contains(t, output, "SUMMARY:Algoritmi (Lekc)")
	assert.Contains(t, output, "LOCATION:A-101")
	// 06-Oct-2025 10:15 Riga summer time is 07:15 UTC.
	assert.Contains(t, output, "DTSTART:20251006T071500Z")
	assert.Contains(t, output, "DTEND:20251006T085000Z")
	assert.Contains(t, output, "X-WR-CALNAME:RDBD0 1. kurss 2. grupa 25/26-R")
	assert.Equal(t, 1, strings.Count(output, "BEGIN:VEVENT"))
}

func TestEventUIDIsStable(t *testing.T) {
	e := testSchedule().Entries()[0]
	assert.Equal(t, EventUID(e), EventUID(e))
	assert.True(t, strings.HasSuffix(EventUID(e), "@nodarbibas.rtu.lv"))

	other := e
	other.ID = 43
	assert.NotEqual(t, EventUID(e), EventUID(other))

	var a, b bytes.Buffer
	require.NoError(t, GenerateICS(testSchedule(), &a))
	require.NoError(t, GenerateICS(testSchedule(), &b))
	assert.Equal(t, a.String(), b.String())
}

func TestGenerateICSEmptySchedule(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateICS(timetable.NewSchedule(nil, timetable.ScheduleInfo{}), &buf))
	assert.Contains(t, buf.String(), "BEGIN:VCALENDAR")
	assert.NotContains(t, buf.String(), "BEGIN:VEVENT")
}
