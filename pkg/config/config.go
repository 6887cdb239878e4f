// Package config loads the optional YAML configuration file of taskflow-api.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config mirrors the command-line flags. Keys use the flag names so a value
// can be moved between the file, the environment and the command line.
type Config struct {
	Port                int           `yaml:"port"`
	DatabaseURL         string        `yaml:"database-url"`
	LogLevel            string        `yaml:"log-level"`
	LogFormat           string        `yaml:"log-format"`
	EventBus            string        `yaml:"event-bus"`
	KafkaBrokers        []string      `yaml:"kafka-brokers"`
	RedisURL            string        `yaml:"redis-url"`
	SchedulerInterval   time.Duration `yaml:"scheduler-interval"`
	SchedulerDedupe     *bool         `yaml:"scheduler-dedupe"`
	ActionTimeout       time.Duration `yaml:"action-timeout"`
	SlackWebhookURL     string        `yaml:"slack-webhook-url"`
	DiscordWebhookID    string        `yaml:"discord-webhook-id"`
	DiscordWebhookToken string        `yaml:"discord-webhook-token"`
	OTelEnabled         *bool         `yaml:"otel-enabled"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}

	switch c.EventBus {
	case "", "gochannel", "kafka":
	default:
		return fmt.Errorf("%w: unsupported event-bus %q", ErrInvalidConfig, c.EventBus)
	}

	if c.SchedulerInterval < 0 || c.ActionTimeout < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}

	return nil
}

// Values returns the non-empty settings as flag name to string value.
func (c *Config) Values() map[string]string {
	values := map[string]string{}

	set := func(name, value string) {
		if value != "" {
			values[name] = value
		}
	}

	if c.Port != 0 {
		set("port", strconv.Itoa(c.Port))
	}

	set("database-url", c.DatabaseURL)
	set("log-level", c.LogLevel)
	set("log-format", c.LogFormat)
	set("event-bus", c.EventBus)
	set("kafka-brokers", strings.Join(c.KafkaBrokers, ","))
	set("redis-url", c.RedisURL)
	set("slack-webhook-url", c.SlackWebhookURL)
	set("discord-webhook-id", c.DiscordWebhookID)
	set("discord-webhook-token", c.DiscordWebhookToken)

	if c.SchedulerInterval > 0 {
		set("scheduler-interval", c.SchedulerInterval.String())
	}

	if c.ActionTimeout > 0 {
		set("action-timeout", c.ActionTimeout.String())
	}

	if c.SchedulerDedupe != nil {
		set("scheduler-dedupe", strconv.FormatBool(*c.SchedulerDedupe))
	}

	if c.OTelEnabled != nil {
		set("otel-enabled", strconv.FormatBool(*c.OTelEnabled))
	}

	return values
}
