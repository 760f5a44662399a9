package tui

import (
	"context"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/config"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/timetable"
)

// DefaultAccent is the RTU blue used when no accent color is configured.
const DefaultAccent = "#00A3E0"

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(DefaultAccent))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Timetable is the part of timetable.Service the interactive flows use.
type Timetable interface {
	GetPeriods(ctx context.Context) ([]timetable.Period, error)
	GetCurrentPeriod(ctx context.Context) (*timetable.Period, error)
	GetPrograms(ctx context.Context, period timetable.Ref) ([]timetable.Program, error)
	GetCourses(ctx context.Context, period, program timetable.Ref) ([]timetable.Course, error)
	GetGroups(ctx context.Context, period, program timetable.Ref, course int) ([]timetable.Group, error)
	GetSchedule(ctx context.Context, sel timetable.Selector) (*timetable.Schedule, error)
}

// App carries what the interactive flows share.
type App struct {
	Timetable  Timetable
	Config     *config.Config
	ConfigPath string
}

// Theme builds the form theme from the configured accent color.
func (a *App) Theme() *huh.Theme {
	baseColor := DefaultAccent
	if a.Config != nil && a.Config.AccentColor != "" {
		baseColor = a.Config.AccentColor
	}
	// Plain prints share the accent with the forms.
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(baseColor))
	return CustomTheme(baseColor)
}

// CustomTheme returns a huh.Theme in the given lipgloss color. Used for live
// previews before a color is saved.
func CustomTheme(baseColor string) *huh.Theme {
	t := huh.ThemeCharm()
	p := lipgloss.Color(baseColor)

	t.Focused.Title = t.Focused.Title.Foreground(p).Bold(true)
	t.Focused.Base = t.Focused.Base.Border(lipgloss.RoundedBorder()).BorderForeground(p).Padding(0, 1)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(p)
	t.Focused.MultiSelectSelector = t.Focused.MultiSelectSelector.Foreground(p)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(p)
	t.Focused.SelectedPrefix = t.Focused.SelectedPrefix.Foreground(p)
	t.Focused.UnselectedPrefix = t.Focused.UnselectedPrefix.Foreground(lipgloss.AdaptiveColor{Light: "", Dark: "235"})
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(p)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(p)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Foreground(lipgloss.Color("0")).Background(p)

	t.Blurred.Base = t.Blurred.Base.Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	return t
}

// Run launches the main menu.
func (a *App) Run(ctx context.Context) error {
	for {
		var action string
		menu := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("What would you like to do?").
					Options(
						huh.NewOption("📅 View this week", "week"),
						huh.NewOption("📤 Export timetable (.ics)", "export"),
						huh.NewOption("⚙️ Settings", "config"),
						huh.NewOption("Quit", "quit"),
					).
					Value(&action),
			),
		).WithTheme(a.Theme())

		if err := menu.RunWithContext(ctx); err != nil {
			return err
		}

		var err error
		switch action {
		case "week":
			err = a.RunWeekView(ctx)
		case "export":
			err = a.RunExport(ctx)
		case "config":
			err = a.RunConfig(ctx)
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}
