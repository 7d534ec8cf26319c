package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"thermo-monitor-backend/config"
	"thermo-monitor-backend/internal/alerting"
	"thermo-monitor-backend/internal/db"
	"thermo-monitor-backend/internal/logger"
	"thermo-monitor-backend/internal/store"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "thermod",
		Short: "Temperature monitoring backend",
		Long: `thermod records device temperature readings, raises alerts when they leave
the configured bands and flags devices that stopped reporting.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_PATH or ./config/config.yaml)")
	rootCmd.AddCommand(serveCmd, checkOfflineCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "./config/config.yaml"
}

// bootstrap loads configuration, sets up logging and opens the store.
func bootstrap() (*config.Config, store.Store, error) {
	path := configPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration from %s: %w", path, err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	logger.Logger.Info().Str("path", path).Msg("configuration loaded")

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize database: %w", err)
	}
	return cfg, store.NewGormStore(gormDB), nil
}

func thresholdsFrom(cfg *config.Config) alerting.Thresholds {
	t := cfg.Sensors.Temperature
	return alerting.Thresholds{
		WarningMin:            t.Min,
		WarningMax:            t.Max,
		CriticalMin:           t.CriticalMin,
		CriticalMax:           t.CriticalMax,
		OfflineTimeoutMinutes: cfg.Sensors.AlertTimeoutMinutes,
	}
}
