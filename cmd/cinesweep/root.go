package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JustinTDCT/CineSweep/internal/config"
	"github.com/JustinTDCT/CineSweep/internal/db"
	"github.com/JustinTDCT/CineSweep/internal/logger"
	"github.com/JustinTDCT/CineSweep/internal/version"
)

var (
	flagLogLevel    string
	flagLogFormat   string
	flagVersionFile string
)

var rootCmd = &cobra.Command{
	Use:   "cinesweep",
	Short: "CineSweep - retention engine for media libraries",
	Long: `CineSweep finds media nobody has touched in a while, stages it in
"<Library> - Leaving Soon" and "<Library> - To Delete" collections and,
where configured, deletes it.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format override (json, console)")
	rootCmd.PersistentFlags().StringVar(&flagVersionFile, "version-file", "version.json", "path to version.json")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// app holds what every database-backed command needs.
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *db.DB
	ver version.Info
}

// bootstrap loads configuration, connects to Postgres, applies migrations
// and overlays stored settings. Flags win over both.
func bootstrap(ctx context.Context) (*app, error) {
	cfg := config.Load()
	applyFlags(cfg)

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database.DB, log); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	level := cfg.LogLevel
	cfg.MergeFromDB(ctx, database.DB, log)
	applyFlags(cfg)
	if cfg.LogLevel != level {
		if l, err := logger.New(cfg.LogLevel, cfg.LogFormat); err == nil {
			log = l
		}
	}
	zap.ReplaceGlobals(log)

	return &app{cfg: cfg, log: log, db: database, ver: version.Load(flagVersionFile)}, nil
}

func applyFlags(cfg *config.Config) {
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
}

func (a *app) close() {
	a.db.Close()
	_ = a.log.Sync()
}
