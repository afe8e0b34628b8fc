package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"issue-tracker/internal/config"
	"issue-tracker/internal/database"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "issuetracker",
	Short: "Issue tracker web application",
	Long: `issuetracker serves a small issue tracking site and its JSON API.

Settings come from the environment, a .env file and an optional
config.yaml. Use --config to point at another file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the entry point called from main.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./config.yaml)")
}

// initConfig hands --config to the loader, which reads CONFIG_FILE.
func initConfig() {
	if configFile != "" {
		_ = os.Setenv("CONFIG_FILE", configFile)
	}
}

// newLogger builds the process logger from the log settings.
func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		log.Warnf("unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// setup loads the configuration and opens a migrated database pool.
func setup(cmd *cobra.Command) (*config.Config, *logrus.Logger, *database.DatabasePool, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.Log)

	pool, err := database.NewDatabasePool(database.PoolConfigFromConfig(cfg, log))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Migrate(cmd.Context()); err != nil {
		_ = pool.Close()
		return nil, nil, nil, err
	}
	return cfg, log, pool, nil
}
