package cmd

import (
	"github.com/spf13/cobra"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the timetable as a JSON API",
	Long: `Serve periods, programs, courses, groups and schedules over HTTP.
Prometheus metrics are exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		srv := api.NewServer(e.service, api.Options{
			Logger:   e.log,
			Gatherer: e.registry,
			Location: e.service.Location(),
		})
		return srv.Run(cmd.Context(), serveAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "Listen address")
}
