package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/config"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/tui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage nodarbibas configuration",
	Long:  "View or edit your local configuration settings. Without a subcommand the interactive settings menu opens.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		app := &tui.App{Timetable: e.service, Config: e.cfg, ConfigPath: configPath}
		return app.RunConfig(cmd.Context())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), cfg)
		}
		path := configPath
		if path == "" {
			path, _ = config.DefaultPath()
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.DescribeConfig(cfg, path))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Set one configuration value",
	Example:   "  nodarbibas config set defaults.program RDBD0\n  nodarbibas config set timezone Europe/Riga",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := config.Save(configPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s saved.\n", args[0])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd, configPathCmd)
}
