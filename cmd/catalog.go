package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/timetable"
)

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "List study periods",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		var periods []timetable.Period
		err = fetch("Fetching study periods...", func() error {
			periods, err = e.service.GetPeriods(cmd.Context())
			return err
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), periods)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Study periods"))
		for _, p := range periods {
			marker := "  "
			if p.IsSelected {
				marker = "★ "
			}
			fmt.Fprintf(out, "%s%-6d %-10s %s %s\n", marker, p.ID, p.Code, p.Name,
				mutedStyle.Render(fmt.Sprintf("%s – %s", p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"))))
		}
		return nil
	},
}

var programsFlags selectionFlags

var programsCmd = &cobra.Command{
	Use:   "programs",
	Short: "List the study programs of a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		if programsFlags.period == "" {
			programsFlags.period = e.cfg.Defaults.Period
		}
		var programs []timetable.Program
		err = fetch("Fetching study programs...", func() error {
			programs, err = e.service.GetPrograms(cmd.Context(), timetable.ParsePeriodRef(programsFlags.period))
			return err
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), programs)
		}

		out := cmd.OutOrStdout()
		faculty := ""
		for _, p := range programs {
			if p.Faculty.Name != faculty {
				faculty = p.Faculty.Name
				fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s (%s)", p.Faculty.Name, p.Faculty.Code)))
			}
			fmt.Fprintf(out, "  %-6d %-8s %s\n", p.ID, p.Code, p.Name)
		}
		return nil
	},
}

var coursesFlags selectionFlags

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the courses of a program",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		coursesFlags.applyDefaults(e.cfg.Defaults)
		if err := coursesFlags.requireProgram(); err != nil {
			return err
		}
		var courses []timetable.Course
		err = fetch("Fetching courses...", func() error {
			courses, err = e.service.GetCourses(cmd.Context(), timetable.ParsePeriodRef(coursesFlags.period), timetable.ParseRef(coursesFlags.program))
			return err
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), courses)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Courses"))
		for _, c := range courses {
			fmt.Fprintf(out, "  %-3d %s %s\n", c.Number, c.Name, mutedStyle.Render(fmt.Sprintf("(id %d)", c.ID)))
		}
		return nil
	},
}

var groupsFlags selectionFlags

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the groups of a course",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		groupsFlags.applyDefaults(e.cfg.Defaults)
		if err := groupsFlags.requireProgram(); err != nil {
			return err
		}
		var groups []timetable.Group
		err = fetch("Fetching groups...", func() error {
			groups, err = e.service.GetGroups(cmd.Context(), timetable.ParsePeriodRef(groupsFlags.period), timetable.ParseRef(groupsFlags.program), groupsFlags.course)
			return err
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), groups)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Groups"))
		for _, g := range groups {
			fmt.Fprintf(out, "  %-3d %s %s\n", g.Number, g.Name, mutedStyle.Render(fmt.Sprintf("(%d students, key %d)", g.StudentCount, g.SemesterProgramID)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(periodsCmd, programsCmd, coursesCmd, groupsCmd)
	programsCmd.Flags().StringVarP(&programsFlags.period, "period", "p", "", "Period id, code, year or keywords; defaults to the current period")
	coursesFlags.register(coursesCmd, false, false, false)
	groupsFlags.register(groupsCmd, true, false, false)
}
