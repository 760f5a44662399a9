package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLParser extracts catalog records from the timetable site markup.
// It never fails: malformed or missing markup yields empty lists.
type HTMLParser struct{}

// ParseSemesters reads the semester selector, <select id="semester-id">.
func (HTMLParser) ParseSemesters(markup string) []RawSemester {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var semesters []RawSemester
	doc.Find("select#semester-id option").Each(func(i int, sel *goquery.Selection) {
		id, ok := optionID(sel)
		if !ok {
			return
		}
		_, selected := sel.Attr("selected")
		semesters = append(semesters, RawSemester{
			ID:       id,
			Name:     cleanText(sel.Text()),
			Selected: selected,
		})
	})
	return semesters
}

// ParsePrograms reads the program selector, <select id="program-id">, where
// programs are grouped by faculty in <optgroup label="..."> elements.
func (HTMLParser) ParsePrograms(markup string) []RawFaculty {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var faculties []RawFaculty
	doc.Find("select#program-id optgroup").Each(func(i int, group *goquery.Selection) {
		faculty := RawFaculty{Name: cleanText(group.AttrOr("label", ""))}
		group.Find("option").Each(func(j int, sel *goquery.Selection) {
			id, ok := optionID(sel)
			if !ok {
				return
			}
			faculty.Programs = append(faculty.Programs, RawProgram{
				ID:     id,
				Name:   cleanText(sel.Text()),
				Tokens: cleanText(sel.AttrOr("data-tokens", "")),
			})
		})
		if len(faculty.Programs) > 0 {
			faculties = append(faculties, faculty)
		}
	})
	return faculties
}

// optionID returns the positive integer value of an <option>.
func optionID(sel *goquery.Selection) (int, bool) {
	val, exists := sel.Attr("value")
	if !exists {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// cleanText collapses runs of whitespace. strings.Fields also splits on the
// non-breaking spaces the site uses for indentation.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
