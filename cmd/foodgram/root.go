package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/config"
	"github.com/tbourn/foodgram-backend/internal/repo"
	"github.com/tbourn/foodgram-backend/internal/sysutil"
)

// app carries what every subcommand needs after PersistentPreRunE.
type app struct {
	envFile string
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "foodgram",
		Short:         "Foodgram recipe-sharing API",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment (optional)")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newImportCmd(a, "import-ingredients", "Import ingredients from a .csv or .json file"),
		newImportCmd(a, "import-tags", "Import tags from a .csv or .json file"),
	)
	return root
}

// load reads the dotenv file (if any), the configuration and sets up logging.
func (a *app) load() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	setupLogging(cfg)
	return nil
}

func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", cfg.OTEL.ServiceName).Logger()
	}
	zerolog.DefaultContextLogger = &log.Logger
	sysutil.SetLogLevel(cfg.LogLevel)
}

// openDB connects and migrates the schema.
func (a *app) openDB(ctx context.Context) (*gorm.DB, func(), error) {
	db, err := repo.Open(a.cfg.DB.Driver, a.cfg.DB.DSN, a.cfg.DB.Trace)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", a.cfg.DB.Driver, err)
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := repo.AutoMigrate(db.WithContext(ctx)); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return db, closeFn, nil
}
