package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/cache"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/config"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/logger"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/metrics"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/scraper"
	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/timetable"
)

var (
	configPath string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "nodarbibas",
	Short: "A CLI, TUI and JSON API for RTU timetables",
	Long: `nodarbibas resolves study periods, programs, courses and groups on
nodarbibas.rtu.lv and assembles their timetables for the terminal, .ics
calendars or a local JSON API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.nodarbibas.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of formatted text")
}

// env is everything a command needs to talk to the timetable site.
type env struct {
	cfg      *config.Config
	log      logger.Logger
	registry *prometheus.Registry
	service  *timetable.Service
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger.SetLevel(level)
	return cfg, nil
}

// setup loads the config and wires scraper, caches, metrics and the
// timetable service together.
func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New("nodarbibas")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewPromRecorder(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Warnf("%v, falling back to the local time zone", err)
		loc = time.Local
	}

	client := scraper.NewClient(scraper.Config{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.TimeoutDuration(),
		UserAgent: cfg.UserAgent,
	}, rec)
	events := scraper.NewEventSource(client, cfg.CacheTTL(), cache.WithLogger(log), cache.WithMetrics(rec))
	service := timetable.NewService(scraper.NewCatalogSource(client, "lv"), scraper.HTMLParser{}, events, timetable.Options{
		Location:     loc,
		DiscoveryTTL: cfg.DiscoveryTTL(),
		Logger:       log,
		Metrics:      rec,
	})

	return &env{cfg: cfg, log: log, registry: registry, service: service}, nil
}
