package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/config"
)

// RunConfig launches the settings menu.
func (a *App) RunConfig(ctx context.Context) error {
	if a.Config == nil {
		a.Config = config.Default()
	}
	for {
		var action string
		menu := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Configuration Settings").
					Options(
						huh.NewOption("Set Accent Color (Theme)", "theme"),
						huh.NewOption("Set Default Selection", "defaults"),
						huh.NewOption("View Current Config", "view"),
						huh.NewOption("Back to Main Menu", "back"),
					).
					Value(&action),
			),
		).WithTheme(a.Theme())

		if err := menu.RunWithContext(ctx); err != nil {
			return err
		}

		var err error
		switch action {
		case "theme":
			err = a.runSetTheme(ctx)
		case "defaults":
			err = a.runSetDefaults(ctx)
		case "view":
			fmt.Println(DescribeConfig(a.Config, a.ConfigPath))
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// DescribeConfig renders the settings for display.
func DescribeConfig(cfg *config.Config, path string) string {
	if path == "" {
		path = "~/.nodarbibas.yaml"
	}
	orNotSet := func(s string) string {
		if s == "" {
			return "Not set"
		}
		return s
	}
	lines := []string{
		accentStyle.Render(fmt.Sprintf("--- Current Configuration (%s) ---", path)),
		"Site:            " + cfg.BaseURL,
		"Timezone:        " + cfg.Timezone,
		fmt.Sprintf("Cache timeout:   %s", cfg.CacheTTL()),
		"Default period:  " + orNotSet(cfg.Defaults.Period),
		"Default program: " + orNotSet(cfg.Defaults.Program),
		"Default course:  " + orNotSet(intOrEmpty(cfg.Defaults.Course)),
		"Default group:   " + orNotSet(intOrEmpty(cfg.Defaults.Group)),
		"Accent color:    " + orNotSet(cfg.AccentColor),
	}
	return strings.Join(lines, "\n") + "\n"
}

func intOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func (a *App) save() error {
	if err := config.Save(a.ConfigPath, a.Config); err != nil {
		return err
	}
	return nil
}

func (a *App) runSetDefaults(ctx context.Context) error {
	sel, err := a.pickSelection(ctx)
	if err != nil {
		return err
	}
	a.Config.Defaults = config.Defaults{
		Period:  strconv.Itoa(sel.PeriodID),
		Program: strconv.Itoa(sel.ProgramID),
		Course:  sel.Course,
		Group:   sel.Group,
	}
	if err := a.save(); err != nil {
		return err
	}
	fmt.Println(accentStyle.Render("\n✅ Default selection saved.\n"))
	return nil
}

func colorBlock(color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("██")
}

// validHex accepts "#RRGGBB".
func validHex(s string) error {
	if len(s) != 7 || !strings.HasPrefix(s, "#") {
		return fmt.Errorf("must be a valid 6-character hex code starting with #")
	}
	if _, err := strconv.ParseUint(s[1:], 16, 32); err != nil {
		return fmt.Errorf("must be a valid 6-character hex code starting with #")
	}
	return nil
}

func (a *App) runSetTheme(ctx context.Context) error {
	var input string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose an Accent Color").
				Description("Select a curated style or choose Custom to enter your own Hex.").
				Options(
					huh.NewOption(fmt.Sprintf("%s RTU Blue", colorBlock(DefaultAccent)), DefaultAccent),
					huh.NewOption(fmt.Sprintf("%s Riga Red", colorBlock("#9E3039")), "#9E3039"),
					huh.NewOption(fmt.Sprintf("%s Amber", colorBlock("214")), "214"),
					huh.NewOption(fmt.Sprintf("%s Forest Green", colorBlock("42")), "42"),
					huh.NewOption("✨ Custom Hex Code", "custom"),
				).
				Value(&input),
		),
	).WithTheme(a.Theme())
	if err := form.RunWithContext(ctx); err != nil {
		return err
	}

	if input == "custom" {
		var hexInput string
		hexForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Enter a Hex Color Code").
					Description("Include the `#` symbol. Example: #FF00FF").
					Placeholder("#").
					Value(&hexInput).
					Validate(validHex),
			),
		).WithTheme(a.Theme())
		if err := hexForm.RunWithContext(ctx); err != nil {
			return err
		}
		input = hexInput
	}

	a.Config.AccentColor = input
	if err := a.save(); err != nil {
		return err
	}
	a.Theme()
	fmt.Println(accentStyle.Render("\n✅ The theme color is now saved.\n"))
	return nil
}
