package timetable

import (
	"encoding/json"
	"slices"
	"sort"
	"strings"
	"time"
)

// ScheduleInfo describes what a Schedule was assembled for.
type ScheduleInfo struct {
	Period    Period
	Program   Program
	Course    Course
	Group     *Group
	StartDate time.Time
	EndDate   time.Time
	FetchedAt time.Time
}

// Schedule is an immutable list of entries together with the selection it
// belongs to. Every derived view is a new Schedule.
type Schedule struct {
	entries []ScheduleEntry
	info    ScheduleInfo
}

// NewSchedule copies entries into a new Schedule.
func NewSchedule(entries []ScheduleEntry, info ScheduleInfo) *Schedule {
	if info.Group != nil {
		g := *info.Group
		info.Group = &g
	}
	return &Schedule{entries: cloneEntries(entries), info: info}
}

func cloneEntries(entries []ScheduleEntry) []ScheduleEntry {
	out := make([]ScheduleEntry, len(entries))
	for i, e := range entries {
		out[i] = e.clone()
	}
	return out
}

func (s *Schedule) derive(entries []ScheduleEntry) *Schedule {
	return &Schedule{entries: entries, info: s.info}
}

// Entries returns a copy of the entries.
func (s *Schedule) Entries() []ScheduleEntry { return cloneEntries(s.entries) }

func (s *Schedule) Count() int     { return len(s.entries) }
func (s *Schedule) IsEmpty() bool  { return len(s.entries) == 0 }
func (s *Schedule) Period() Period { return s.info.Period }

func (s *Schedule) Program() Program { return s.info.Program }
func (s *Schedule) Course() Course   { return s.info.Course }

// Group returns the selected group, or nil when the whole course was fetched.
func (s *Schedule) Group() *Group {
	if s.info.Group == nil {
		return nil
	}
	g := *s.info.Group
	return &g
}

func (s *Schedule) FetchedAt() time.Time { return s.info.FetchedAt }
func (s *Schedule) StartDate() time.Time { return s.info.StartDate }
func (s *Schedule) EndDate() time.Time   { return s.info.EndDate }

// Filter keeps the entries pred accepts.
func (s *Schedule) Filter(pred func(ScheduleEntry) bool) *Schedule {
	var kept []ScheduleEntry
	for _, e := range s.entries {
		if pred(e) {
			kept = append(kept, e.clone())
		}
	}
	return s.derive(kept)
}

func (s *Schedule) FilterByType(types ...EntryType) *Schedule {
	return s.Filter(func(e ScheduleEntry) bool { return slices.Contains(types, e.Type) })
}

// FilterByDay keeps entries on the given ISO weekdays (1 = Monday).
func (s *Schedule) FilterByDay(days ...int) *Schedule {
	return s.Filter(func(e ScheduleEntry) bool { return slices.Contains(days, e.DayOfWeek) })
}

// FilterByDateRange keeps entries whose date lies in [from, to], compared by
// calendar day.
func (s *Schedule) FilterByDateRange(from, to time.Time) *Schedule {
	lo, hi := dateKey(from), dateKey(to)
	return s.Filter(func(e ScheduleEntry) bool {
		d := dateKey(e.Date)
		return d >= lo && d <= hi
	})
}

// FilterBySubject keeps entries whose subject contains name, ignoring case
// and diacritics.
func (s *Schedule) FilterBySubject(name string) *Schedule {
	return s.Filter(func(e ScheduleEntry) bool { return containsNormalized(e.Subject.Name, name) })
}

func (s *Schedule) FilterByLecturer(name string) *Schedule {
	return s.Filter(func(e ScheduleEntry) bool { return containsNormalized(e.Lecturer, name) })
}

func (s *Schedule) FilterByBuilding(building string) *Schedule {
	return s.Filter(func(e ScheduleEntry) bool { return equalNormalized(e.Building, building) })
}

// SortBy returns a stably sorted copy.
func (s *Schedule) SortBy(less func(a, b ScheduleEntry) bool) *Schedule {
	sorted := cloneEntries(s.entries)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return s.derive(sorted)
}

func sortByStart(entries []ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartDateTime.Before(entries[j].StartDateTime)
	})
}

func dateKey(t time.Time) string { return t.Format(time.DateOnly) }

func groupBy[K comparable](s *Schedule, key func(ScheduleEntry) K) map[K]*Schedule {
	buckets := make(map[K][]ScheduleEntry)
	for _, e := range s.entries {
		k := key(e)
		buckets[k] = append(buckets[k], e.clone())
	}
	out := make(map[K]*Schedule, len(buckets))
	for k, entries := range buckets {
		out[k] = s.derive(entries)
	}
	return out
}

// GroupByDate buckets entries by "2006-01-02" date.
func (s *Schedule) GroupByDate() map[string]*Schedule {
	return groupBy(s, func(e ScheduleEntry) string { return dateKey(e.Date) })
}

// GroupByWeek buckets entries by ISO week number.
func (s *Schedule) GroupByWeek() map[int]*Schedule {
	return groupBy(s, func(e ScheduleEntry) int { return e.WeekNumber })
}

func (s *Schedule) GroupBySubject() map[string]*Schedule {
	return groupBy(s, func(e ScheduleEntry) string { return e.Subject.Name })
}

func (s *Schedule) GroupByType() map[EntryType]*Schedule {
	return groupBy(s, func(e ScheduleEntry) EntryType { return e.Type })
}

// Subjects lists the distinct subject names, sorted.
func (s *Schedule) Subjects() []string {
	seen := map[string]bool{}
	var names []string
	for _, e := range s.entries {
		if e.Subject.Name != "" && !seen[e.Subject.Name] {
			seen[e.Subject.Name] = true
			names = append(names, e.Subject.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Lecturers lists the distinct lecturers, sorted.
func (s *Schedule) Lecturers() []string {
	seen := map[string]bool{}
	var names []string
	for _, e := range s.entries {
		for _, l := range e.Lecturers {
			l = strings.TrimSpace(l)
			if l != "" && !seen[l] {
				seen[l] = true
				names = append(names, l)
			}
		}
	}
	sort.Strings(names)
	return names
}

func (s *Schedule) TotalMinutes() int {
	total := 0
	for _, e := range s.entries {
		total += e.DurationMinutes
	}
	return total
}

func (s *Schedule) CountByType() map[EntryType]int {
	counts := make(map[EntryType]int)
	for _, e := range s.entries {
		counts[e.Type]++
	}
	return counts
}

// First returns the earliest entry in schedule order.
func (s *Schedule) First() (ScheduleEntry, bool) {
	if len(s.entries) == 0 {
		return ScheduleEntry{}, false
	}
	return s.entries[0].clone(), true
}

// Last returns the final entry in schedule order.
func (s *Schedule) Last() (ScheduleEntry, bool) {
	if len(s.entries) == 0 {
		return ScheduleEntry{}, false
	}
	return s.entries[len(s.entries)-1].clone(), true
}

type scheduleJSON struct {
	Period    Period          `json:"period"`
	Program   Program         `json:"program"`
	Course    Course          `json:"course"`
	Group     *Group          `json:"group,omitempty"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Count     int             `json:"count"`
	Entries   []ScheduleEntry `json:"entries"`
}

func (s *Schedule) MarshalJSON() ([]byte, error) {
	entries := s.entries
	if entries == nil {
		entries = []ScheduleEntry{}
	}
	return json.Marshal(scheduleJSON{
		Period:    s.info.Period,
		Program:   s.info.Program,
		Course:    s.info.Course,
		Group:     s.info.Group,
		StartDate: dateKey(s.info.StartDate),
		EndDate:   dateKey(s.info.EndDate),
		FetchedAt: s.info.FetchedAt,
		Count:     len(s.entries),
		Entries:   entries,
	})
}
