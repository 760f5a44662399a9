package timetable

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/scraper"
)

// typePrefixRe matches one or more leading dotted abbreviations such as
// "Lekc." or "Pr.d." and captures them together with the remaining text.
var typePrefixRe = regexp.MustCompile(`^((?:\p{L}{1,6}(?:\.\p{L}{1,6})*\.\s*)+)(.*)$`)

// roomRe captures the last run of digits, optionally followed by one letter,
// preceded by a space or hyphen.
var roomRe = regexp.MustCompile(`^(.*)[ -](\d+\p{L}?)$`)

var typeAliases = map[string]EntryType{
	"lekc":                TypeLecture,
	"lekcija":             TypeLecture,
	"lekcijas":            TypeLecture,
	"lecture":             TypeLecture,
	"lect":                TypeLecture,
	"pr.d":                TypePractical,
	"pr":                  TypePractical,
	"prakt":               TypePractical,
	"praktiskais darbs":   TypePractical,
	"practical":           TypePractical,
	"practice":            TypePractical,
	"lab":                 TypeLab,
	"lab.d":               TypeLab,
	"laboratorijas darbs": TypeLab,
	"laboratory":          TypeLab,
	"sem":                 TypeSeminar,
	"seminārs":            TypeSeminar,
	"seminars":            TypeSeminar,
	"seminar":             TypeSeminar,
	"kons":                TypeConsultation,
	"konsultācija":        TypeConsultation,
	"konsultacija":        TypeConsultation,
	"consultation":        TypeConsultation,
	"eks":                 TypeExam,
	"eksāmens":            TypeExam,
	"eksamens":            TypeExam,
	"exam":                TypeExam,
	"iesk":                TypeTest,
	"ieskaite":            TypeTest,
	"kontroldarbs":        TypeTest,
	"test":                TypeTest,
}

// classifyType maps a raw type abbreviation to an EntryType.
func classifyType(raw string) EntryType {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	return TypeOther
}

// parseSubject splits "Lekc. Algoritmi, J. Kalns" into the raw type
// ("Lekc"), its classification and the subject name ("Algoritmi").
// Chained prefixes are looked up as one key, so "Lekc. Pr.d" is other.
func parseSubject(composite string) (typeRaw string, typ EntryType, name string) {
	rest := strings.TrimSpace(composite)
	if m := typePrefixRe.FindStringSubmatch(rest); m != nil {
		typeRaw = strings.TrimSuffix(strings.TrimSpace(m[1]), ".")
		rest = m[2]
	}
	if i := strings.Index(rest, ","); i >= 0 {
		rest = rest[:i]
	}
	name = strings.TrimSpace(rest)
	if typeRaw == "" {
		return "", TypeOther, name
	}
	return typeRaw, classifyType(typeRaw), name
}

// splitLocation splits "A-101" into building "A" and room "101". Without a
// trailing room number the whole string is the building.
func splitLocation(location string) (building, room string) {
	location = strings.TrimSpace(location)
	m := roomRe.FindStringSubmatch(location)
	if m == nil {
		return location, ""
	}
	building = strings.TrimRight(m[1], " -")
	if building == "" {
		return location, ""
	}
	return building, m[2]
}

// splitLecturers splits a raw lecturer list on commas and semicolons.
func splitLecturers(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	lecturers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			lecturers = append(lecturers, p)
		}
	}
	return lecturers
}

// isoDayOfWeek returns 1 for Monday through 7 for Sunday.
func isoDayOfWeek(t time.Time) int {
	d := int(t.Weekday())
	if d == 0 {
		return 7
	}
	return d
}

func clock(t scraper.TimeOfDay) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// TransformEvent converts a raw event into a ScheduleEntry with dates in loc.
func TransformEvent(ev scraper.RawEvent, loc *time.Location) ScheduleEntry {
	if loc == nil {
		loc = time.Local
	}
	at := time.UnixMilli(ev.EventDate).In(loc)
	y, mo, d := at.Date()
	date := time.Date(y, mo, d, 0, 0, 0, 0, loc)
	start := time.Date(y, mo, d, ev.CustomStart.Hour, ev.CustomStart.Minute, ev.CustomStart.Second, 0, loc)
	end := time.Date(y, mo, d, ev.CustomEnd.Hour, ev.CustomEnd.Minute, ev.CustomEnd.Second, 0, loc)

	typeRaw, typ, subject := parseSubject(ev.EventTempName)
	building, room := splitLocation(ev.RoomInfoText)
	_, week := date.ISOWeek()

	return ScheduleEntry{
		ID:              ev.EventDateID,
		Subject:         Subject{Name: subject},
		Date:            date,
		StartTime:       clock(ev.CustomStart),
		EndTime:         clock(ev.CustomEnd),
		StartDateTime:   start,
		EndDateTime:     end,
		DurationMinutes: (ev.CustomEnd.Hour*60 + ev.CustomEnd.Minute) - (ev.CustomStart.Hour*60 + ev.CustomStart.Minute),
		Location:        strings.TrimSpace(ev.RoomInfoText),
		Building:        building,
		Room:            room,
		Lecturer:        strings.TrimSpace(ev.LecturerInfoText),
		Lecturers:       splitLecturers(ev.LecturerInfoText),
		Type:            typ,
		TypeRaw:         typeRaw,
		Groups:          []string{},
		WeekNumber:      week,
		DayOfWeek:       isoDayOfWeek(date),
		DayName:         date.Weekday().String(),
	}
}
