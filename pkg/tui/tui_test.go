package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/config"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/timetable"
)

func TestOptions(t *testing.T) {
	periods := periodOptions([]timetable.Period{
		{ID: 1, Name: "2025/2026 Rudens semestris (25/26-R)", IsSelected: true},
		{ID: 2, Name: "2025/2026 Pavasara semestris (25/26-P)"},
	})
	assert.Len(t, periods, 2)
	assert.Equal(t, 1, periods[0].Value)
	assert.True(t, strings.HasSuffix(periods[0].Key, "★"))

	groups := groupOptions([]timetable.Group{{Number: 1, Name: "1. grupa", StudentCount: 30}})
	assert.Len(t, groups, 2)
	assert.Equal(t, 0, groups[0].Value, "the whole course comes first")
	assert.Equal(t, "1. grupa (30 students)", groups[1].Key)

	programs := programOptions([]timetable.Program{{ID: 100, FullName: "Datorsistēmas (RDBD0)", Faculty: timetable.Faculty{Code: "DITEF"}}})
	assert.Equal(t, "Datorsistēmas (RDBD0) · DITEF", programs[0].Key)
}

func TestDefaultProgramID(t *testing.T) {
	programs := []timetable.Program{{ID: 100, Code: "RDBD0"}, {ID: 101, Code: "RDBI0"}}
	assert.Equal(t, 101, defaultProgramID(programs, "rdbi0"))
	assert.Equal(t, 100, defaultProgramID(programs, "100"))
	assert.Equal(t, 0, defaultProgramID(programs, "RDBX0"))
	assert.Equal(t, 0, defaultProgramID(programs, ""))
}

func TestWeekBounds(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)
	monday, sunday := weekBounds(time.Date(2025, 10, 9, 15, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2025, 10, 6, 0, 0, 0, 0, loc), monday)
	assert.Equal(t, time.Date(2025, 10, 12, 0, 0, 0, 0, loc), sunday)

	monday, _ = weekBounds(time.Date(2025, 10, 12, 9, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2025, 10, 6, 0, 0, 0, 0, loc), monday, "Sunday belongs to the week before")
}

func TestRenderSchedule(t *testing.T) {
	day := time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC)
	s := timetable.NewSchedule([]timetable.ScheduleEntry{{
		ID:              1,
		Date:            day,
		DayName:         "Monday",
		StartTime:       "10:15",
		EndTime:         "11:50",
		TypeRaw:         "Lekc",
		Subject:         timetable.Subject{Name: "Algoritmi"},
		Location:        "A-101",
		Lecturer:        "J. Kalns",
		DurationMinutes: 95,
	}}, timetable.ScheduleInfo{})

	out := RenderSchedule(s)
	assert.Contains(t, out, "Monday 2025-10-06")
	assert.Contains(t, out, "10:15-11:50")
	assert.Contains(t, out, "Algoritmi")
	assert.Contains(t, out, "@ A-101")
	assert.Contains(t, out, "1 classes")

	assert.Contains(t, RenderSchedule(timetable.NewSchedule(nil, timetable.ScheduleInfo{})), "No classes")
}

func TestDescribeConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Defaults.Program = "RDBD0"
	out := DescribeConfig(cfg, "/tmp/x.yaml")
	assert.Contains(t, out, "/tmp/x.yaml")
	assert.Contains(t, out, "Default program: RDBD0")
	assert.Contains(t, out, "Default course:  Not set")
}

func TestValidHex(t *testing.T) {
	assert.NoError(t, validHex("#00A3E0"))
	assert.Error(t, validHex("00A3E0"))
	assert.Error(t, validHex("#GGGGGG"))
}
