// Package config holds the school bot configuration on top of the core config.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	coreconfig "github.com/m3rciful/schoolbot/core/config"
	coredatabase "github.com/m3rciful/schoolbot/core/database"
	"github.com/m3rciful/schoolbot/internal/assistant"
	"github.com/m3rciful/schoolbot/internal/notify"
)

const (
	DefaultSchoolName = "English School"
	DefaultTimezone   = "Asia/Aqtobe"
)

// Assistant modes.
const (
	AssistantAuto = "auto"
	AssistantOn   = "on"
	AssistantOff  = "off"
)

type SchoolConfig struct {
	Name     string `yaml:"name" envconfig:"SCHOOL_NAME"`
	Timezone string `yaml:"timezone" envconfig:"TIMEZONE"`
}

// AssistantConfig selects the free-text fallback. Mode "auto" turns the
// assistant on only when an API key is present.
type AssistantConfig struct {
	Mode             string `yaml:"mode" envconfig:"ASSISTANT_MODE"`
	APIKey           string `yaml:"api_key" envconfig:"GEMINI_API_KEY"`
	Model            string `yaml:"model" envconfig:"GEMINI_MODEL"`
	SystemPromptFile string `yaml:"system_prompt_file" envconfig:"SYSTEM_PROMPT_FILE"`
	TimeoutSeconds   int    `yaml:"timeout_seconds" envconfig:"ASSISTANT_TIMEOUT_SECONDS"`
	Workers          int    `yaml:"workers" envconfig:"ASSISTANT_WORKERS"`
	MemoryTurns      int    `yaml:"memory_turns" envconfig:"ASSISTANT_MEMORY_TURNS"`
}

type NotifyConfig struct {
	Mail notify.MailConfig `yaml:"mail"`
	AMQP notify.AMQPConfig `yaml:"amqp"`
}

// DigestConfig enables the admin digest when Cron is set (six fields, seconds first).
type DigestConfig struct {
	Cron string `yaml:"cron" envconfig:"DIGEST_CRON"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	School    SchoolConfig        `yaml:"school"`
	Assistant AssistantConfig     `yaml:"assistant"`
	Notify    NotifyConfig        `yaml:"notify"`
	Database  coredatabase.Config `yaml:"database"`
	Digest    DigestConfig        `yaml:"digest"`

	location *time.Location
}

// Load reads the YAML file at path (optional) and the environment, then validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core part and fills application defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	c.School.Name = strings.TrimSpace(c.School.Name)
	if c.School.Name == "" {
		c.School.Name = DefaultSchoolName
	}
	c.School.Timezone = strings.TrimSpace(c.School.Timezone)
	if c.School.Timezone == "" {
		c.School.Timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(c.School.Timezone)
	if err != nil {
		return fmt.Errorf("invalid school.timezone %q: %w", c.School.Timezone, err)
	}
	c.location = loc

	a := &c.Assistant
	a.Mode = strings.ToLower(strings.TrimSpace(a.Mode))
	switch a.Mode {
	case "":
		a.Mode = AssistantAuto
	case AssistantAuto, AssistantOn, AssistantOff:
	default:
		return fmt.Errorf("invalid assistant.mode %q; allowed: auto, on, off", a.Mode)
	}
	a.APIKey = strings.TrimSpace(a.APIKey)
	if strings.TrimSpace(a.Model) == "" {
		a.Model = assistant.DefaultModel
	}
	if a.TimeoutSeconds < 0 || a.Workers < 0 || a.MemoryTurns < 0 {
		return fmt.Errorf("assistant timeout_seconds, workers and memory_turns must be >= 0")
	}
	if a.TimeoutSeconds == 0 {
		a.TimeoutSeconds = int(assistant.DefaultTimeout / time.Second)
	}
	if a.Workers == 0 {
		a.Workers = assistant.DefaultWorkers
	}
	if a.MemoryTurns == 0 {
		a.MemoryTurns = assistant.DefaultMemoryTurns
	}

	if c.Notify.AMQP.URL != "" && c.Notify.AMQP.Exchange == "" {
		c.Notify.AMQP.Exchange = notify.DefaultExchange
	}
	c.Digest.Cron = strings.TrimSpace(c.Digest.Cron)
	return nil
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// AssistantEnabled reports whether free text goes to the answer generator.
func (c *Config) AssistantEnabled() bool {
	switch c.Assistant.Mode {
	case AssistantOn:
		return true
	case AssistantOff:
		return false
	}
	return c.Assistant.APIKey != ""
}

// AssistantTimeout returns the per-call generator timeout.
func (c *Config) AssistantTimeout() time.Duration {
	return time.Duration(c.Assistant.TimeoutSeconds) * time.Second
}

// Location returns the school timezone, UTC before Normalize.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
