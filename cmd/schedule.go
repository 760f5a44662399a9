package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/timetable"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/tui"
)

var (
	scheduleFlags selectionFlags
	scheduleTypes []string
	scheduleWeek  bool
)

// loadSchedule resolves the flags and assembles the schedule. An empty
// schedule whose timetable is not public yet is reported as such.
func loadSchedule(cmd *cobra.Command, e *env, f *selectionFlags, types []string, week bool) (*timetable.Schedule, error) {
	f.applyDefaults(e.cfg.Defaults)
	if err := f.requireProgram(); err != nil {
		return nil, err
	}
	sel, err := f.selector(e.service.Location())
	if err != nil {
		return nil, err
	}
	if week {
		sel.StartDate, sel.EndDate = currentWeek(time.Now().In(e.service.Location()))
	}

	var schedule *timetable.Schedule
	err = fetch("Assembling timetable...", func() error {
		schedule, err = e.service.GetSchedule(cmd.Context(), sel)
		if err != nil || !schedule.IsEmpty() {
			return err
		}
		published, perr := e.service.IsSchedulePublished(cmd.Context(), sel.Period, sel.Program, sel.Course, sel.Group)
		if perr != nil {
			e.log.Warnf("could not check whether the schedule is published: %v", perr)
			return nil
		}
		if !published {
			return timetable.NotPublished(fmt.Sprintf("%s course %d", sel.Program, sel.Course))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(types) > 0 {
		var want []timetable.EntryType
		for _, t := range types {
			want = append(want, timetable.EntryType(strings.ToLower(strings.TrimSpace(t))))
		}
		schedule = schedule.FilterByType(want...)
	}
	return schedule, nil
}

func currentWeek(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	monday := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	return monday, monday.AddDate(0, 0, 6)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show the timetable of a course or group",
	Example: `  nodarbibas schedule --program RDBD0 --course 1 --group 2 --week
  nodarbibas schedule -p "pavasaris 2026" -P RDBD0 -c 1 --from 2026-02-02 --to 2026-02-08 --type lecture,lab`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		schedule, err := loadSchedule(cmd, e, &scheduleFlags, scheduleTypes, scheduleWeek)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), schedule)
		}

		out := cmd.OutOrStdout()
		title := fmt.Sprintf("%s · %d. kurss", schedule.Program().FullName, schedule.Course().Number)
		if g := schedule.Group(); g != nil {
			title += " · " + g.Name
		}
		fmt.Fprintln(out, titleStyle.Render(title))
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%s – %s", schedule.StartDate().Format(time.DateOnly), schedule.EndDate().Format(time.DateOnly))))
		fmt.Fprintln(out, tui.RenderSchedule(schedule))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleFlags.register(scheduleCmd, true, true, true)
	scheduleCmd.Flags().StringSliceVarP(&scheduleTypes, "type", "t", nil, "Only these entry types (lecture, practical, lab, seminar, consultation, exam, test, other)")
	scheduleCmd.Flags().BoolVarP(&scheduleWeek, "week", "w", false, "Only the current week")
}
