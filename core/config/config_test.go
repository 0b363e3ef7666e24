package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: " 123:abc ", RunMode: "polling"}}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, DefaultHealthPort, cfg.Health.Port)
	assert.Equal(t, "0.0.0.0", cfg.Health.Listen)
}

func TestNormalizeWebhook(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: "WEBHOOK"}}
	err := Normalize(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook.url, webhook.listen, webhook.port required")

	cfg.Webhook = WebhookConfig{URL: "https://x/hook", Listen: "0.0.0.0", Port: DefaultHealthPort}
	assert.ErrorContains(t, Normalize(cfg), "collides")

	cfg.Webhook.Port = 8443
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)
}

func TestNormalizeRejects(t *testing.T) {
	assert.Error(t, Normalize(nil))
	assert.ErrorContains(t, Normalize(&Config{}), "BOT_TOKEN")
	assert.ErrorContains(t, Normalize(&Config{Telegram: TelegramConfig{Token: "t", RunMode: "push"}}), "invalid telegram.run_mode")
	assert.ErrorContains(t, Normalize(&Config{Telegram: TelegramConfig{Token: "t"}, Health: HealthConfig{Port: -1}}), "health.port")
}

func TestNormalizeRateLimitExclusions(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "t"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Message ", "", "callback"}},
	}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, []string{"message", "callback"}, cfg.RateLimit.ExcludeUpdates)

	cfg.RateLimit.ExcludeUpdates = []string{"poll"}
	assert.ErrorContains(t, Normalize(cfg), `"poll"`)
}
