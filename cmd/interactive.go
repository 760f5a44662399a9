package cmd

import (
	"github.com/spf13/cobra"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/tui"
)

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i"},
	Short:   "Launch the interactive TUI",
	Long:    `Launch the Text User Interface to pick a program, course and group, browse the week and export timetables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		app := &tui.App{Timetable: e.service, Config: e.cfg, ConfigPath: configPath}
		return app.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
