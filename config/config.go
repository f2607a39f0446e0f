package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jokebot/generator"
	"jokebot/publisher"
)

const (
	DefaultIntervalMinutes       = 60
	DefaultRequestTimeoutSeconds = 60
	DefaultLogLevel              = "info"
	DefaultServerAddr            = ":8080"
)

// Config is loaded once at startup and passed to constructors; nothing reads the
// environment after Load returns.
type Config struct {
	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`
	Gemini    ProviderConfig `yaml:"gemini"`
	// Mock registers the offline provider after the real ones.
	Mock bool `yaml:"mock"`
	// FlattenMarkdown strips Markdown from replies. Off by default: it rewrites text
	// such as 2*3*4 or __init__.
	FlattenMarkdown bool `yaml:"flatten_markdown"`

	Twitter        publisher.Credentials `yaml:"twitter"`
	TwitterBaseURL string                `yaml:"twitter_base_url"`
	DryRun         bool                  `yaml:"dry_run"`

	LogLevel              string `yaml:"log_level"`
	LogFile               string `yaml:"log_file"`
	IntervalMinutes       int    `yaml:"interval_minutes"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	ServerAddr            string `yaml:"server_addr"`
}

// ProviderConfig enables a provider when APIKey is set.
type ProviderConfig struct {
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	Temperature *float64 `yaml:"temperature"`
}

func (p ProviderConfig) Enabled() bool { return strings.TrimSpace(p.APIKey) != "" }

// Load reads .env (if present), then the optional YAML file at path, then environment
// overrides. Real environment variables always win over .env entries.
func Load(path string) (Config, error) {
	var cfg Config
	if err := loadDotEnv(".env"); err != nil {
		return cfg, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setString(&c.Anthropic.Model, "ANTHROPIC_MODEL")
	setString(&c.Anthropic.BaseURL, "ANTHROPIC_BASE_URL")
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.Model, "GEMINI_MODEL")

	setString(&c.Twitter.BearerToken, "TWITTER_BEARER_TOKEN")
	setString(&c.Twitter.ConsumerKey, "TWITTER_CONSUMER_KEY")
	setString(&c.Twitter.ConsumerSecret, "TWITTER_CONSUMER_SECRET")
	setString(&c.Twitter.AccessToken, "TWITTER_ACCESS_TOKEN")
	setString(&c.Twitter.AccessTokenSecret, "TWITTER_ACCESS_TOKEN_SECRET")

	setString(&c.LogLevel, "JOKEBOT_LOG_LEVEL")
	setString(&c.LogFile, "JOKEBOT_LOG_FILE")
	setString(&c.ServerAddr, "JOKEBOT_SERVER_ADDR")

	if err := setBool(&c.DryRun, "JOKEBOT_DRY_RUN"); err != nil {
		return err
	}
	if err := setBool(&c.FlattenMarkdown, "JOKEBOT_FLATTEN_MARKDOWN"); err != nil {
		return err
	}
	if err := setBool(&c.Mock, "JOKEBOT_MOCK"); err != nil {
		return err
	}
	if err := setInt(&c.IntervalMinutes, "JOKEBOT_INTERVAL_MINUTES"); err != nil {
		return err
	}
	return setInt(&c.RequestTimeoutSeconds, "JOKEBOT_REQUEST_TIMEOUT_SECONDS")
}

func (c *Config) applyDefaults() {
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = generator.DefaultOpenAIModel
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = generator.DefaultAnthropicModel
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = generator.DefaultGeminiModel
	}
	if c.IntervalMinutes <= 0 {
		c.IntervalMinutes = DefaultIntervalMinutes
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ServerAddr == "" {
		c.ServerAddr = DefaultServerAddr
	}
}

// LLMSettings lists the enabled providers in registration order.
func (c Config) LLMSettings() []generator.LLMSettings {
	timeout := time.Duration(c.RequestTimeoutSeconds) * time.Second
	var out []generator.LLMSettings
	for _, p := range []struct {
		name string
		cfg  ProviderConfig
	}{
		{generator.ProviderOpenAI, c.OpenAI},
		{generator.ProviderAnthropic, c.Anthropic},
		{generator.ProviderGemini, c.Gemini},
	} {
		if !p.cfg.Enabled() {
			continue
		}
		out = append(out, generator.LLMSettings{
			Provider:    p.name,
			Model:       p.cfg.Model,
			APIKey:      strings.TrimSpace(p.cfg.APIKey),
			BaseURL:     p.cfg.BaseURL,
			Timeout:     timeout,
			Temperature: p.cfg.Temperature,
		})
	}
	if c.Mock {
		out = append(out, generator.LLMSettings{Provider: generator.ProviderMock})
	}
	return out
}

func (c Config) Publisher() publisher.Config {
	return publisher.Config{Credentials: c.Twitter, DryRun: c.DryRun, BaseURL: c.TwitterBaseURL}
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}
