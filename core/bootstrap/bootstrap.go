// Package bootstrap brings up the infrastructure a bot needs before its
// handlers are wired: logging, the schema and the database pool.
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/schoolbot/core/config"
	coredatabase "github.com/m3rciful/schoolbot/core/database"
	"github.com/m3rciful/schoolbot/core/logger"
)

// DefaultMigrationsDir is where *.sql files live inside Options.Migrations.
const DefaultMigrationsDir = "migrations"

// Options for Run. The function fields replace the real steps in tests.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	// Migrations holds the embedded schema; nil skips the migrate step.
	Migrations    fs.FS
	MigrationsDir string

	LoggerInit func(*coreconfig.Config) error
	Migrate    func(coredatabase.Config, fs.FS, string) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
}

func (o *Options) fill() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.MigrationsDir == "" {
		o.MigrationsDir = DefaultMigrationsDir
	}
}

type step struct {
	name string
	run  func() error
}

// Run initializes the logger, migrates the schema and opens the pool, in
// that order, stopping at the first failure.
func Run(opts Options) (*sqlx.DB, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.fill()

	var db *sqlx.DB
	steps := []step{
		{"logger", func() error { return opts.LoggerInit(opts.Config) }},
		{"migrations", func() error {
			if opts.Migrations == nil {
				return nil
			}
			return opts.Migrate(opts.Database, opts.Migrations, opts.MigrationsDir)
		}},
		{"database", func() (err error) {
			db, err = opts.Connect(opts.Database)
			return err
		}},
	}
	for _, s := range steps {
		start := time.Now()
		err := s.run()
		logger.Debug(logger.Background(), "app", "bootstrap.step",
			slog.String("step", s.name),
			slog.String("status", logger.Status(err)),
			slog.Duration("duration", logger.Took(start)),
		)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %s failed: %w", s.name, err)
		}
	}
	return db, nil
}
