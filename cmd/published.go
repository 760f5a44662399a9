package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/timetable"
)

var publishedFlags selectionFlags

var publishedCmd = &cobra.Command{
	Use:   "published",
	Short: "Check whether a timetable has been published",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		publishedFlags.applyDefaults(e.cfg.Defaults)
		if err := publishedFlags.requireProgram(); err != nil {
			return err
		}

		var published bool
		err = fetch("Checking publication status...", func() error {
			published, err = e.service.IsSchedulePublished(cmd.Context(),
				timetable.ParsePeriodRef(publishedFlags.period), timetable.ParseRef(publishedFlags.program),
				publishedFlags.course, publishedFlags.group)
			return err
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]bool{"published": published})
		}
		if published {
			fmt.Fprintln(cmd.OutOrStdout(), "✅ The timetable is published.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Render("The timetable is not published yet."))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishedCmd)
	publishedFlags.register(publishedCmd, true, true, false)
}
