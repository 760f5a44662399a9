package timetable

import "time"

// Season of an academic period.
type Season string

const (
	SeasonAutumn Season = "autumn"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
)

// Period is a semester of the timetable catalog.
type Period struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`         // "25/26-R"
	AcademicYear string    `json:"academicYear"` // "2025/2026"
	Season       Season    `json:"season"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	IsSelected   bool      `json:"isSelected"`
}

// Faculty owns a set of programs.
type Faculty struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Program is a study program offered in a period.
type Program struct {
	ID       int     `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	FullName string  `json:"fullName"`
	Faculty  Faculty `json:"faculty"`
	Tokens   string  `json:"tokens,omitempty"`
}

// Course is a year of study within a program.
type Course struct {
	ID       int    `json:"id"`
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Semester int    `json:"semester,omitempty"`
}

// Group is a cohort within a course.
type Group struct {
	ID           int    `json:"id"`
	Number       int    `json:"number"`
	Name         string `json:"name"`
	StudentCount int    `json:"studentCount"`
	// SemesterProgramID is the key events are fetched by. The site uses the
	// group id for it.
	SemesterProgramID int `json:"semesterProgramId"`
}

// EntryType classifies a timetable entry.
type EntryType string

const (
	TypeLecture      EntryType = "lecture"
	TypePractical    EntryType = "practical"
	TypeLab          EntryType = "lab"
	TypeSeminar      EntryType = "seminar"
	TypeConsultation EntryType = "consultation"
	TypeExam         EntryType = "exam"
	TypeTest         EntryType = "test"
	TypeOther        EntryType = "other"
)

// Subject of an entry. Code is not provided by the site.
type Subject struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// ScheduleEntry is one class occurrence.
type ScheduleEntry struct {
	ID              int       `json:"id"`
	Subject         Subject   `json:"subject"`
	Date            time.Time `json:"date"`
	StartTime       string    `json:"startTime"`
	EndTime         string    `json:"endTime"`
	StartDateTime   time.Time `json:"startDateTime"`
	EndDateTime     time.Time `json:"endDateTime"`
	DurationMinutes int       `json:"durationMinutes"`
	Location        string    `json:"location"`
	Building        string    `json:"building"`
	Room            string    `json:"room,omitempty"`
	Lecturer        string    `json:"lecturer"`
	Lecturers       []string  `json:"lecturers"`
	Type            EntryType `json:"type"`
	TypeRaw         string    `json:"typeRaw"`
	Group           string    `json:"group,omitempty"`
	Groups          []string  `json:"groups"`
	WeekNumber      int       `json:"weekNumber"`
	DayOfWeek       int       `json:"dayOfWeek"`
	DayName         string    `json:"dayName"`
}

// clone returns a copy that shares no slices with e.
func (e ScheduleEntry) clone() ScheduleEntry {
	e.Lecturers = append([]string{}, e.Lecturers...)
	e.Groups = append([]string{}, e.Groups...)
	return e
}
