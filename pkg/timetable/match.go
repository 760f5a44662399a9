package timetable

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalize case-folds s and strips diacritics, so "Pavasarī" and
// "pavasari" compare equal.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(cases.Fold().String(out))
}

var (
	trailingParens = regexp.MustCompile(`\(([^()]*)\)\s*$`)
	academicYearRe = regexp.MustCompile(`^\s*(\d{4}/\d{4})`)
	firstIntRe     = regexp.MustCompile(`\d+`)

	queryCodeRe     = regexp.MustCompile(`\b(\d{2})\s*/\s*(\d{2})\s*-\s*([rpv])\b`)
	queryFullYearRe = regexp.MustCompile(`\b(\d{4})\s*/\s*(\d{4})\b`)
	queryYearRe     = regexp.MustCompile(`\b(\d{4})\b`)
)

// splitTrailingCode splits "Name (CODE)" into "Name" and "CODE".
func splitTrailingCode(s string) (name, code string) {
	m := trailingParens.FindStringSubmatchIndex(s)
	if m == nil {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:m[0]]), strings.TrimSpace(s[m[2]:m[3]])
}

// academicYear returns the leading "YYYY/YYYY" of a period name.
func academicYear(name string) string {
	m := academicYearRe.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

// firstInt returns the first integer embedded in s, or 0.
func firstInt(s string) int {
	m := firstIntRe.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

type seasonPattern struct {
	season Season
	re     *regexp.Regexp
}

// Season detection tiers, tried in order on normalized text. Within a tier
// autumn is checked before spring and summer.
var seasonTiers = [][]seasonPattern{
	{
		{SeasonAutumn, regexp.MustCompile(`\b(rudens\w*|autumn|fall)\b`)},
		{SeasonSpring, regexp.MustCompile(`\b(pavasar\w*|spring)\b`)},
		{SeasonSummer, regexp.MustCompile(`\b(vasar\w*|summer)\b`)},
	},
	{
		{SeasonAutumn, regexp.MustCompile(`-\s*r\b`)},
		{SeasonSpring, regexp.MustCompile(`-\s*p\b`)},
		{SeasonSummer, regexp.MustCompile(`-\s*v\b`)},
	},
	{
		{SeasonAutumn, regexp.MustCompile(`(^|[^a-z])r$`)},
		{SeasonSpring, regexp.MustCompile(`(^|[^a-z])p$`)},
		{SeasonSummer, regexp.MustCompile(`(^|[^a-z])v$`)},
	},
}

// detectSeason looks for a season keyword, a code suffix such as "-R", or a
// bare trailing season letter, in that order.
func detectSeason(text string) (Season, bool) {
	n := normalize(text)
	for _, tier := range seasonTiers {
		for _, p := range tier {
			if p.re.MatchString(n) {
				return p.season, true
			}
		}
	}
	return "", false
}

// periodSeason is the season of a catalog period, autumn when undetected.
func periodSeason(name, code string) Season {
	if s, ok := detectSeason(name + " " + code); ok {
		return s
	}
	return SeasonAutumn
}

// periodQuery holds the dimensions extracted from a free-text period query.
type periodQuery struct {
	year      string // "2025/2026" or "2025"
	season    Season
	hasSeason bool
}

func codeLetterSeason(letter string) Season {
	switch letter {
	case "p":
		return SeasonSpring
	case "v":
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// parsePeriodQuery extracts a year and/or a season from text. ok is false
// when neither was found.
func parsePeriodQuery(text string) (q periodQuery, ok bool) {
	n := normalize(text)
	if m := queryCodeRe.FindStringSubmatch(n); m != nil {
		q.year = "20" + m[1] + "/20" + m[2]
		q.season = codeLetterSeason(m[3])
		q.hasSeason = true
		return q, true
	}
	if m := queryFullYearRe.FindStringSubmatch(n); m != nil {
		q.year = m[1] + "/" + m[2]
	} else if m := queryYearRe.FindStringSubmatch(n); m != nil {
		q.year = m[1]
	}
	q.season, q.hasSeason = detectSeason(n)
	return q, q.year != "" || q.hasSeason
}

func (q periodQuery) matches(p Period) bool {
	if q.year != "" && !strings.Contains(p.AcademicYear, q.year) {
		return false
	}
	if q.hasSeason && p.Season != q.season {
		return false
	}
	return true
}

func containsNormalized(haystack, needle string) bool {
	n := normalize(needle)
	return n != "" && strings.Contains(normalize(haystack), n)
}

func equalNormalized(a, b string) bool {
	na := normalize(a)
	return na != "" && na == normalize(b)
}

func find[T any](items []T, pred func(T) bool) (T, bool) {
	for _, it := range items {
		if pred(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// strategy is one named matching rule. Strategies are tried in slice order
// and the first match wins.
type strategy[T any] struct {
	name  string
	match func(items []T) (T, bool)
}

func firstMatch[T any](items []T, strategies []strategy[T]) (T, string, bool) {
	for _, s := range strategies {
		if it, ok := s.match(items); ok {
			return it, s.name, true
		}
	}
	var zero T
	return zero, "", false
}

func periodStrategies(ref Ref) []strategy[Period] {
	if ref.IsNumeric() {
		return []strategy[Period]{
			{"id", func(ps []Period) (Period, bool) {
				return find(ps, func(p Period) bool { return p.ID == ref.ID })
			}},
		}
	}
	text := ref.Text
	return []strategy[Period]{
		{"code", func(ps []Period) (Period, bool) {
			return find(ps, func(p Period) bool { return equalNormalized(p.Code, text) })
		}},
		{"season-year", func(ps []Period) (Period, bool) {
			q, ok := parsePeriodQuery(text)
			if !ok {
				return Period{}, false
			}
			return find(ps, q.matches)
		}},
		{"name", func(ps []Period) (Period, bool) {
			return find(ps, func(p Period) bool { return containsNormalized(p.Name, text) })
		}},
	}
}

func programStrategies(ref Ref) []strategy[Program] {
	if ref.IsNumeric() {
		return []strategy[Program]{
			{"id", func(ps []Program) (Program, bool) {
				return find(ps, func(p Program) bool { return p.ID == ref.ID })
			}},
		}
	}
	text := ref.Text
	return []strategy[Program]{
		{"code", func(ps []Program) (Program, bool) {
			return find(ps, func(p Program) bool { return equalNormalized(p.Code, text) })
		}},
		{"full-name", func(ps []Program) (Program, bool) {
			return find(ps, func(p Program) bool { return equalNormalized(p.FullName, text) })
		}},
		{"name", func(ps []Program) (Program, bool) {
			return find(ps, func(p Program) bool {
				return containsNormalized(p.Name, text) || containsNormalized(p.FullName, text)
			})
		}},
		{"tokens", func(ps []Program) (Program, bool) {
			return find(ps, func(p Program) bool { return containsNormalized(p.Tokens, text) })
		}},
	}
}

func courseStrategies(number int) []strategy[Course] {
	digits := strconv.Itoa(number)
	return []strategy[Course]{
		{"number", func(cs []Course) (Course, bool) {
			return find(cs, func(c Course) bool { return c.Number == number })
		}},
		{"semester", func(cs []Course) (Course, bool) {
			return find(cs, func(c Course) bool { return c.Semester == number })
		}},
		{"name", func(cs []Course) (Course, bool) {
			return find(cs, func(c Course) bool { return strings.Contains(c.Name, digits) })
		}},
	}
}

func groupStrategies(number int) []strategy[Group] {
	digits := strconv.Itoa(number)
	return []strategy[Group]{
		{"number", func(gs []Group) (Group, bool) {
			return find(gs, func(g Group) bool { return g.Number == number })
		}},
		{"name", func(gs []Group) (Group, bool) {
			return find(gs, func(g Group) bool { return strings.Contains(g.Name, digits) })
		}},
	}
}
