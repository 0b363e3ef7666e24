package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/schoolbot/core/config"
	coretelegram "github.com/m3rciful/schoolbot/core/telegram"
)

type fakeConfig struct{ core *coreconfig.Config }

func (f fakeConfig) CoreConfig() *coreconfig.Config { return f.core }

type fakeApp struct {
	services []Service
}

func (fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a fakeApp) Services() []Service { return a.services }

func baseOptions(app TelegramApp) Options {
	return Options{
		LoadConfig: func(string) (ConfigCarrier, error) {
			return fakeConfig{core: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
	}
}

func TestRunStopsServicesWhenBotExits(t *testing.T) {
	stopped := make(chan struct{})
	app := fakeApp{services: []Service{{
		Name: "health",
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return nil
		},
	}}}
	opts := baseOptions(app)
	var started bool
	opts.RunTelegram = func(ctx context.Context, ro coretelegram.RunOptions) error {
		started = true
		return ro.OnStart(ctx, coretelegram.Runtime{})
	}

	require.NoError(t, Run(context.Background(), opts))
	assert.True(t, started)
	<-stopped
}

func TestRunPropagatesServiceError(t *testing.T) {
	app := fakeApp{services: []Service{{
		Name: "health",
		Run:  func(context.Context) error { return errors.New("address in use") },
	}}}
	opts := baseOptions(app)
	opts.RunTelegram = func(ctx context.Context, _ coretelegram.RunOptions) error {
		<-ctx.Done()
		return nil
	}

	err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health: address in use")
}

type closingApp struct {
	fakeApp
	events *[]string
	err    error
}

func (a closingApp) Close() error {
	*a.events = append(*a.events, "close")
	return a.err
}

func TestRunClosesAppAfterServicesReturn(t *testing.T) {
	var events []string
	app := closingApp{events: &events}
	app.services = []Service{{
		Name: "digest",
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			events = append(events, "digest stopped")
			return nil
		},
	}}
	opts := baseOptions(app)
	opts.RunTelegram = func(context.Context, coretelegram.RunOptions) error {
		events = append(events, "bot stopped")
		return nil
	}

	require.NoError(t, Run(context.Background(), opts))
	assert.Equal(t, []string{"bot stopped", "digest stopped", "close"}, events)
}

func TestRunReportsCloseError(t *testing.T) {
	var events []string
	app := closingApp{events: &events, err: errors.New("database is locked")}
	opts := baseOptions(app)
	opts.RunTelegram = func(context.Context, coretelegram.RunOptions) error { return nil }

	err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close app: database is locked")
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("SCHOOLBOT_CONFIG", "/etc/schoolbot.yaml")
	assert.Equal(t, "a.yaml", ResolveConfigPath("a.yaml", "SCHOOLBOT_CONFIG"))
	assert.Equal(t, "/etc/schoolbot.yaml", ResolveConfigPath("", "SCHOOLBOT_CONFIG"))
}
