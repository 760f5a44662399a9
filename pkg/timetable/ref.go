package timetable

import (
	"strconv"
	"strings"
)

// Ref identifies a period or program either by numeric id or by text
// (code, name or keywords).
type Ref struct {
	ID   int
	Text string
}

// RefID returns a numeric reference.
func RefID(id int) Ref { return Ref{ID: id} }

// RefText returns a text reference.
func RefText(s string) Ref { return Ref{Text: s} }

// ParseRef turns user input into a Ref: all-digit input becomes a numeric
// reference, anything else is matched as text.
func ParseRef(s string) Ref {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}
	}
	if id, err := strconv.Atoi(s); err == nil && id > 0 {
		return Ref{ID: id}
	}
	return Ref{Text: s}
}

// ParsePeriodRef is ParseRef for periods, except that a bare year such as
// "2025" is matched as text against the academic years instead of being
// taken as an id.
func ParsePeriodRef(s string) Ref {
	ref := ParseRef(s)
	if ref.IsNumeric() && len(strings.TrimSpace(s)) == 4 && ref.ID >= 1990 && ref.ID <= 2100 {
		return Ref{Text: strings.TrimSpace(s)}
	}
	return ref
}

// IsZero reports whether nothing was referenced.
func (r Ref) IsZero() bool { return r.ID == 0 && strings.TrimSpace(r.Text) == "" }

// IsNumeric reports whether r references an id.
func (r Ref) IsNumeric() bool { return r.ID != 0 }

func (r Ref) String() string {
	if r.IsNumeric() {
		return strconv.Itoa(r.ID)
	}
	return r.Text
}
