// Package app assembles the school bot from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/schoolbot/core/bootstrap"
	corecmd "github.com/m3rciful/schoolbot/core/cmd"
	coredatabase "github.com/m3rciful/schoolbot/core/database"
	"github.com/m3rciful/schoolbot/core/health"
	"github.com/m3rciful/schoolbot/core/logger"
	tg "github.com/m3rciful/schoolbot/core/telegram"
	"github.com/m3rciful/schoolbot/core/telegram/router"
	"github.com/m3rciful/schoolbot/core/telegram/state"
	"github.com/m3rciful/schoolbot/internal/assistant"
	"github.com/m3rciful/schoolbot/internal/config"
	"github.com/m3rciful/schoolbot/internal/digest"
	"github.com/m3rciful/schoolbot/internal/leads"
	"github.com/m3rciful/schoolbot/internal/notify"
	"github.com/m3rciful/schoolbot/internal/school"
)

// App is the wired bot. It implements corecmd.TelegramApp and corecmd.ServiceApp.
type App struct {
	cfg *config.Config
	db  *sqlx.DB

	store    *leads.Store
	states   state.Manager
	registry *tg.Registry

	tgSink   *notify.TelegramSink
	amqpSink *notify.AMQPSink
	digest   *digest.Digest
}

// LoadConfig adapts config.Load to the core runner.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap runs migrations, connects to the database and builds the App.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	db, err := bootstrap.Run(bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: leads.Migrations,
	})
	if err != nil {
		return nil, err
	}
	a, err := New(context.Background(), cfg, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

var dialAMQP = notify.DialAMQP

// New wires every component on top of an open database.
// The database stays open on error; the caller owns it.
func New(ctx context.Context, cfg *config.Config, db *sqlx.DB) (_ *App, err error) {
	a := &App{
		cfg:      cfg,
		db:       db,
		store:    leads.NewStore(db),
		states:   state.NewMemoryManager(),
		registry: tg.NewRegistry(),
	}

	asst, err := buildAssistant(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.tgSink = notify.NewTelegramSink(cfg.Telegram.AdminID)
	a.amqpSink, err = dialAMQP(cfg.Notify.AMQP)
	if err != nil {
		// The event sink is optional; leads are still saved and sent to the admin.
		logger.LogEvent(ctx, logger.SVCNotify, slog.LevelWarn, "notify.amqp.dial",
			slog.String("status", "fail"),
			logger.Err(err),
		)
		a.amqpSink = nil
	}
	defer func() {
		if err != nil {
			_ = a.amqpSink.Close()
		}
	}()
	notifier := notify.New(a.tgSink, notify.NewMailSink(cfg.Notify.Mail, cfg.School.Name), a.amqpSink)
	logger.LogEvent(ctx, logger.SVCNotify, slog.LevelInfo, "notify.sinks",
		slog.Any("sinks", notifier.Sinks()),
	)

	opts := school.Options{
		SchoolName: cfg.School.Name,
		Timezone:   cfg.School.Timezone,
		Store:      a.store,
		Notifier:   notifier,
		States:     a.states,
	}
	if asst != nil {
		opts.Assistant = asst
	}
	bot, err := school.New(opts)
	if err != nil {
		return nil, err
	}
	if err := bot.Register(a.registry); err != nil {
		return nil, err
	}

	if cfg.Digest.Cron != "" {
		if a.tgSink == nil {
			logger.LogEvent(ctx, logger.Digest, slog.LevelWarn, "digest.skip",
				slog.String("reason", "no_admin"),
			)
		} else {
			a.digest, err = digest.New(cfg.Digest.Cron, cfg.Location(), a.store, a.tgSink)
			if err != nil {
				return nil, err
			}
		}
	}
	return a, nil
}

func buildAssistant(ctx context.Context, cfg *config.Config) (*assistant.Service, error) {
	if !cfg.AssistantEnabled() {
		return nil, nil
	}
	ac := cfg.Assistant
	system, err := assistant.LoadSystemPrompt(ac.SystemPromptFile, cfg.School.Name)
	if err != nil {
		return nil, err
	}
	opts := assistant.Options{
		Memory:       assistant.NewMemory(ac.MemoryTurns),
		SystemPrompt: system,
		Timeout:      cfg.AssistantTimeout(),
		Workers:      ac.Workers,
		Model:        ac.Model,
	}
	if ac.APIKey != "" {
		gen, err := assistant.NewGeminiGenerator(ctx, ac.APIKey, ac.Model)
		if err != nil {
			return nil, err
		}
		opts.Generator = gen
	}
	svc := assistant.NewService(opts)
	logger.LogEvent(ctx, logger.SVCAssistant, slog.LevelInfo, "assistant.mode",
		slog.String("mode", ac.Mode),
		slog.Bool("configured", svc.Configured()),
		slog.String("model", ac.Model),
	)
	return svc, nil
}

// TelegramRunOptions implements corecmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{AdminID: core.Telegram.AdminID})
	routes = append(routes, router.TextRoutes(a.states, a.registry, router.TextOptions{})...)

	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			if a.tgSink != nil && rt.Bot != nil {
				a.tgSink.Bind(rt.Bot)
			}
			return nil
		},
	}, nil
}

// Services implements corecmd.ServiceApp.
func (a *App) Services() []corecmd.Service {
	h := a.cfg.Health
	srv := health.NewServer(health.Options{Listen: h.Listen, Port: h.Port, Metrics: h.Metrics})
	svcs := []corecmd.Service{{Name: "health", Run: srv.Run}}
	if a.digest != nil {
		svcs = append(svcs, corecmd.Service{Name: "digest", Run: a.digest.Run})
	}
	return svcs
}

// Close releases the event sink connection and the database.
func (a *App) Close() error {
	var errs []error
	if err := a.amqpSink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close amqp: %w", err))
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Migrate applies the embedded schema without starting the bot.
func Migrate(cfg *config.Config) error {
	return coredatabase.RunMigrations(cfg.Database, leads.Migrations, bootstrap.DefaultMigrationsDir)
}

// CountLeads opens the database and returns the number of stored leads.
func CountLeads(ctx context.Context, cfg *config.Config) (int, error) {
	db, err := coredatabase.Connect(cfg.Database)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return leads.NewStore(db).Count(ctx)
}
