package scraper

import "time"

// RawSemester is one <option> of the semester selector.
type RawSemester struct {
	ID       int
	Name     string // "2025/2026 Rudens semestris (25/26-R)"
	Selected bool
}

// SemesterMetadata holds the start and end of a semester as epoch milliseconds.
type SemesterMetadata struct {
	StartDate int64 `json:"startDate"`
	EndDate   int64 `json:"endDate"`
}

// IsEmpty reports whether the site returned no dates.
func (m SemesterMetadata) IsEmpty() bool {
	return m.StartDate == 0 && m.EndDate == 0
}

// Start returns the start date, or the zero time if unknown.
func (m SemesterMetadata) Start() time.Time {
	if m.StartDate == 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.StartDate)
}

// End returns the end date, or the zero time if unknown.
func (m SemesterMetadata) End() time.Time {
	if m.EndDate == 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.EndDate)
}

// RawFaculty is one <optgroup> of the program selector.
type RawFaculty struct {
	Name     string // "Datorzinātnes, informācijas tehnoloģijas un enerģētikas fakultāte (DITEF)"
	Programs []RawProgram
}

// RawProgram is one <option> of the program selector.
type RawProgram struct {
	ID     int
	Name   string // "Datorsistēmas (RDBD0)"
	Tokens string // free text from data-tokens
}

// RawCourse is one record of findCourseByProgramId.
type RawCourse struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Semester int    `json:"semester"`
}

// RawGroup is one record of findGroupByCourseId.
type RawGroup struct {
	ID           int    `json:"id"`
	Name         string `json:"group"`
	StudentCount int    `json:"studentCount"`
}

// TimeOfDay is a wall-clock time as sent by the event list endpoint.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// RawEvent is one occurrence returned by getSemesterProgEventList.
type RawEvent struct {
	EventDateID      int       `json:"eventDateId"`
	EventID          int       `json:"eventId"`
	EventDate        int64     `json:"eventDate"` // epoch milliseconds
	CustomStart      TimeOfDay `json:"customStart"`
	CustomEnd        TimeOfDay `json:"customEnd"`
	EventTempName    string    `json:"eventTempName"`    // "Lekc. Algoritmi, J. Kalns"
	RoomInfoText     string    `json:"roomInfoText"`     // "Ķīpsalas 6A - 101"
	LecturerInfoText string    `json:"lecturerInfoText"` // "J. Kalns, A. Bērziņa"
}
