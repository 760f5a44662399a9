package tui

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/exporter"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/timetable"
)

func periodOptions(periods []timetable.Period) []huh.Option[int] {
	opts := make([]huh.Option[int], 0, len(periods))
	for _, p := range periods {
		label := p.Name
		if p.IsSelected {
			label += " ★"
		}
		opts = append(opts, huh.NewOption(label, p.ID))
	}
	return opts
}

func programOptions(programs []timetable.Program) []huh.Option[int] {
	opts := make([]huh.Option[int], 0, len(programs))
	for _, p := range programs {
		label := p.FullName
		if p.Faculty.Code != "" {
			label = fmt.Sprintf("%s · %s", p.FullName, p.Faculty.Code)
		}
		opts = append(opts, huh.NewOption(label, p.ID))
	}
	return opts
}

func courseOptions(courses []timetable.Course) []huh.Option[int] {
	opts := make([]huh.Option[int], 0, len(courses))
	for _, c := range courses {
		opts = append(opts, huh.NewOption(c.Name, c.Number))
	}
	return opts
}

func groupOptions(groups []timetable.Group) []huh.Option[int] {
	opts := []huh.Option[int]{huh.NewOption("Whole course", 0)}
	for _, g := range groups {
		label := g.Name
		if g.StudentCount > 0 {
			label = fmt.Sprintf("%s (%d students)", g.Name, g.StudentCount)
		}
		opts = append(opts, huh.NewOption(label, g.Number))
	}
	return opts
}

// defaultProgramID finds the program a saved default refers to, by id or
// code. It returns 0 when nothing matches.
func defaultProgramID(programs []timetable.Program, def string) int {
	def = strings.TrimSpace(def)
	if def == "" {
		return 0
	}
	for _, p := range programs {
		if strconv.Itoa(p.ID) == def || strings.EqualFold(p.Code, def) {
			return p.ID
		}
	}
	return 0
}

// withSpinner runs fn behind a spinner and returns its error.
func withSpinner(title string, fn func() error) error {
	var err error
	if serr := spinner.New().Title(title).Action(func() { err = fn() }).Run(); serr != nil {
		return serr
	}
	return err
}

// pickSelection walks the user through period, program, course and group.
func (a *App) pickSelection(ctx context.Context) (timetable.Selector, error) {
	var sel timetable.Selector

	var periods []timetable.Period
	var current *timetable.Period
	err := withSpinner("Fetching study periods from nodarbibas.rtu.lv...", func() error {
		var err error
		if periods, err = a.Timetable.GetPeriods(ctx); err != nil {
			return err
		}
		current, err = a.Timetable.GetCurrentPeriod(ctx)
		return err
	})
	if err != nil {
		return sel, fmt.Errorf("failed to fetch periods: %w", err)
	}
	if len(periods) == 0 {
		return sel, fmt.Errorf("no study periods are published")
	}
	if current != nil {
		sel.PeriodID = current.ID
	}
	if a.Config != nil && a.Config.Defaults.Period != "" {
		if id, err := strconv.Atoi(a.Config.Defaults.Period); err == nil {
			sel.PeriodID = id
		}
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title("Study period").
			Options(periodOptions(periods)...).
			Value(&sel.PeriodID),
	)).WithTheme(a.Theme()).RunWithContext(ctx); err != nil {
		return sel, err
	}

	var programs []timetable.Program
	err = withSpinner("Fetching study programs...", func() error {
		var err error
		programs, err = a.Timetable.GetPrograms(ctx, timetable.RefID(sel.PeriodID))
		return err
	})
	if err != nil {
		return sel, fmt.Errorf("failed to fetch programs: %w", err)
	}
	if a.Config != nil {
		sel.ProgramID = defaultProgramID(programs, a.Config.Defaults.Program)
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title("Study program").
			Description("Start typing to filter.").
			Options(programOptions(programs)...).
			Value(&sel.ProgramID).
			Filterable(true).
			Height(12),
	)).WithTheme(a.Theme()).RunWithContext(ctx); err != nil {
		return sel, err
	}

	period, program := timetable.RefID(sel.PeriodID), timetable.RefID(sel.ProgramID)
	var courses []timetable.Course
	err = withSpinner("Fetching courses...", func() error {
		var err error
		courses, err = a.Timetable.GetCourses(ctx, period, program)
		return err
	})
	if err != nil {
		return sel, fmt.Errorf("failed to fetch courses: %w", err)
	}
	if len(courses) == 0 {
		return sel, fmt.Errorf("the program has no courses in this period")
	}
	sel.Course = courses[0].Number
	if a.Config != nil && a.Config.Defaults.Course > 0 {
		sel.Course = a.Config.Defaults.Course
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title("Course").
			Options(courseOptions(courses)...).
			Value(&sel.Course),
	)).WithTheme(a.Theme()).RunWithContext(ctx); err != nil {
		return sel, err
	}

	var groups []timetable.Group
	err = withSpinner("Fetching groups...", func() error {
		var err error
		groups, err = a.Timetable.GetGroups(ctx, period, program, sel.Course)
		return err
	})
	if err != nil {
		return sel, fmt.Errorf("failed to fetch groups: %w", err)
	}
	if a.Config != nil {
		sel.Group = a.Config.Defaults.Group
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title("Group").
			Options(groupOptions(groups)...).
			Value(&sel.Group),
	)).WithTheme(a.Theme()).RunWithContext(ctx); err != nil {
		return sel, err
	}

	sel.Program = program
	return sel, nil
}

func typeOptions() []huh.Option[timetable.EntryType] {
	types := []timetable.EntryType{
		timetable.TypeLecture, timetable.TypePractical, timetable.TypeLab, timetable.TypeSeminar,
		timetable.TypeConsultation, timetable.TypeExam, timetable.TypeTest, timetable.TypeOther,
	}
	opts := make([]huh.Option[timetable.EntryType], 0, len(types))
	for _, t := range types {
		opts = append(opts, huh.NewOption(string(t), t).Selected(true))
	}
	return opts
}

// RunExport picks a selection and writes its timetable to an .ics file.
func (a *App) RunExport(ctx context.Context) error {
	sel, err := a.pickSelection(ctx)
	if err != nil {
		return err
	}

	var types []timetable.EntryType
	outputFile := "schedule.ics"
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[timetable.EntryType]().
				Title("Entry types to export").
				Description("Space = toggle, Enter = confirm").
				Options(typeOptions()...).
				Value(&types),
			huh.NewInput().
				Title("Output file name").
				Value(&outputFile).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("file name cannot be empty")
					}
					return nil
				}),
		),
	).WithTheme(a.Theme())
	if err := form.RunWithContext(ctx); err != nil {
		return err
	}
	if !strings.HasSuffix(outputFile, ".ics") {
		outputFile += ".ics"
	}

	var schedule *timetable.Schedule
	err = withSpinner("Assembling timetable...", func() error {
		var err error
		schedule, err = a.Timetable.GetSchedule(ctx, sel)
		return err
	})
	if err != nil {
		return err
	}
	schedule = schedule.FilterByType(types...)
	if schedule.IsEmpty() {
		fmt.Println(errorStyle.Render("No classes found for this selection!"))
		return nil
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := exporter.GenerateICS(schedule, file); err != nil {
		return fmt.Errorf("failed to generate ICS: %w", err)
	}

	fmt.Println(accentStyle.Render(fmt.Sprintf("\nSuccess! Exported %d events to %s", schedule.Count(), outputFile)))
	return nil
}

// weekBounds returns Monday and Sunday of the week containing t.
func weekBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// RunWeekView picks a selection and prints the current week.
func (a *App) RunWeekView(ctx context.Context) error {
	sel, err := a.pickSelection(ctx)
	if err != nil {
		return err
	}
	sel.StartDate, sel.EndDate = weekBounds(time.Now())

	var schedule *timetable.Schedule
	err = withSpinner("Assembling timetable...", func() error {
		var err error
		schedule, err = a.Timetable.GetSchedule(ctx, sel)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Println(RenderSchedule(schedule))
	return nil
}

// RenderSchedule formats a schedule day by day for the terminal.
func RenderSchedule(s *timetable.Schedule) string {
	if s.IsEmpty() {
		return mutedStyle.Render("No classes in this period.")
	}

	days := s.GroupByDate()
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		entries := days[k].Entries()
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(accentStyle.Render(fmt.Sprintf("%s %s", entries[0].DayName, k)))
		b.WriteString("\n")
		for _, e := range entries {
			line := fmt.Sprintf("  %s-%s  %-6s %s", e.StartTime, e.EndTime, e.TypeRaw, e.Subject.Name)
			if e.Location != "" {
				line += "  @ " + e.Location
			}
			if e.Lecturer != "" {
				line += mutedStyle.Render("  " + e.Lecturer)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d classes, %.1f hours", s.Count(), float64(s.TotalMinutes())/60)))
	return b.String()
}
