package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/exporter"
)

var (
	exportFlags  selectionFlags
	exportTypes  []string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Directly export a timetable to an ICS file",
	Long:  `Export the timetable of a course or group to an ICS file without using the interactive TUI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		schedule, err := loadSchedule(cmd, e, &exportFlags, exportTypes, false)
		if err != nil {
			return err
		}
		if schedule.IsEmpty() {
			return fmt.Errorf("no classes found for %s course %d", exportFlags.program, exportFlags.course)
		}

		output := exportOutput
		if !strings.HasSuffix(output, ".ics") {
			output += ".ics"
		}
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()

		if err := exporter.GenerateICS(schedule, file); err != nil {
			return fmt.Errorf("failed to generate ICS: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Successfully exported %d events to %s\n", schedule.Count(), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportFlags.register(exportCmd, true, true, true)
	exportCmd.Flags().StringSliceVarP(&exportTypes, "type", "t", nil, "Only these entry types")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "schedule.ics", "Output file path")
}
