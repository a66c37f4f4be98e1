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

type Config struct {
	Database struct {
		Driver string `yaml:"driver"` // sqlite or postgres
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Source struct {
		Provider        string        `yaml:"provider"` // newsapi or rss
		BaseURL         string        `yaml:"base_url"`
		FeedURLTemplate string        `yaml:"feed_url_template"`
		Language        string        `yaml:"language"`
		PageSize        int           `yaml:"page_size"`
		Lookback        time.Duration `yaml:"lookback"`
		Timeout         time.Duration `yaml:"timeout"`
		MinInterval     time.Duration `yaml:"min_interval"`
		EnrichContent   bool          `yaml:"enrich_content"`
	} `yaml:"source"`
	Filter struct {
		NoiseKeywords []string `yaml:"noise_keywords"`
	} `yaml:"filter"`
	Classifier struct {
		Backend    string        `yaml:"backend"` // lexicon, remote, openai or claude
		ModelPath  string        `yaml:"model_path"`
		Endpoint   string        `yaml:"endpoint"`
		LabelOrder []string      `yaml:"label_order"`
		Model      string        `yaml:"model"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"classifier"`
	Alerts struct {
		Threshold int64         `yaml:"threshold"`
		Window    time.Duration `yaml:"window"`
		Policy    string        `yaml:"policy"` // every_cycle or cooldown
		Cooldown  time.Duration `yaml:"cooldown"`
	} `yaml:"alerts"`
	Schedule struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"schedule"`
	Status struct {
		Addr string `yaml:"addr"`
	} `yaml:"status"`
	Logs struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"logs"`
	Digest struct {
		Enabled   bool `yaml:"enabled"`
		AfterHour int  `yaml:"after_hour"`
	} `yaml:"digest"`
}

const (
	PolicyEveryCycle = "every_cycle"
	PolicyCooldown   = "cooldown"
)

var ErrInvalidConfig = errors.New("invalid config")

func (c *Config) Validate() error {
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("%w: database.driver must be 'sqlite' or 'postgres', got '%s'", ErrInvalidConfig, c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn cannot be empty", ErrInvalidConfig)
	}
	if c.Source.Provider != "newsapi" && c.Source.Provider != "rss" {
		return fmt.Errorf("%w: source.provider must be 'newsapi' or 'rss', got '%s'", ErrInvalidConfig, c.Source.Provider)
	}
	if c.Source.PageSize < 1 || c.Source.PageSize > 100 {
		return fmt.Errorf("%w: source.page_size must be between 1-100, got %d", ErrInvalidConfig, c.Source.PageSize)
	}
	switch c.Classifier.Backend {
	case "lexicon", "openai", "claude":
	case "remote":
		if c.Classifier.Endpoint == "" {
			return fmt.Errorf("%w: classifier.endpoint is required for the remote backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: classifier.backend must be 'lexicon', 'remote', 'openai' or 'claude', got '%s'", ErrInvalidConfig, c.Classifier.Backend)
	}
	if c.Alerts.Threshold < 1 {
		return fmt.Errorf("%w: alerts.threshold must be at least 1, got %d", ErrInvalidConfig, c.Alerts.Threshold)
	}
	if c.Alerts.Window <= 0 {
		return fmt.Errorf("%w: alerts.window must be positive", ErrInvalidConfig)
	}
	if c.Alerts.Policy != PolicyEveryCycle && c.Alerts.Policy != PolicyCooldown {
		return fmt.Errorf("%w: alerts.policy must be '%s' or '%s', got '%s'", ErrInvalidConfig, PolicyEveryCycle, PolicyCooldown, c.Alerts.Policy)
	}
	if c.Schedule.Interval <= 0 {
		return fmt.Errorf("%w: schedule.interval must be positive", ErrInvalidConfig)
	}
	if c.Digest.AfterHour < 0 || c.Digest.AfterHour > 23 {
		return fmt.Errorf("%w: digest.after_hour must be between 0-23, got %d", ErrInvalidConfig, c.Digest.AfterHour)
	}
	return nil
}

// ApplyDefaults fills every unset field with its default value.
func (c *Config) ApplyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "sentiment_lens.db"
	}
	if c.Source.Provider == "" {
		c.Source.Provider = "newsapi"
	}
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = "https://newsapi.org/v2"
	}
	if c.Source.FeedURLTemplate == "" {
		c.Source.FeedURLTemplate = "https://news.google.com/rss/search?q={query}+stock&hl=en-US&gl=US&ceid=US:en"
	}
	if c.Source.Language == "" {
		c.Source.Language = "en"
	}
	if c.Source.PageSize == 0 {
		c.Source.PageSize = 20
	}
	if c.Source.Lookback == 0 {
		c.Source.Lookback = 24 * time.Hour
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 30 * time.Second
	}
	if c.Source.MinInterval == 0 {
		c.Source.MinInterval = time.Second
	}
	if len(c.Filter.NoiseKeywords) == 0 {
		c.Filter.NoiseKeywords = DefaultNoiseKeywords()
	}
	if c.Classifier.Backend == "" {
		c.Classifier.Backend = "lexicon"
	}
	if c.Classifier.ModelPath == "" {
		c.Classifier.ModelPath = "fine_tuned_finbert"
	}
	if c.Classifier.Model == "" {
		switch c.Classifier.Backend {
		case "openai":
			c.Classifier.Model = "gpt-4o-mini"
		case "claude":
			c.Classifier.Model = "claude-3-5-haiku-latest"
		}
	}
	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = 30 * time.Second
	}
	if c.Alerts.Threshold == 0 {
		c.Alerts.Threshold = 3
	}
	if c.Alerts.Window == 0 {
		c.Alerts.Window = 24 * time.Hour
	}
	if c.Alerts.Policy == "" {
		c.Alerts.Policy = PolicyCooldown
	}
	if c.Alerts.Cooldown == 0 {
		c.Alerts.Cooldown = c.Alerts.Window
	}
	if c.Schedule.Interval == 0 {
		c.Schedule.Interval = time.Hour
	}
	if c.Logs.Dir == "" {
		c.Logs.Dir = "logs"
	}
}

// DefaultDigestAfterHour is used when digest.after_hour is absent. It is
// seeded before decoding so an explicit 0 (midnight) is kept.
const DefaultDigestAfterHour = 18

func DefaultNoiseKeywords() []string {
	return []string{
		"quarterly report", "earnings call", "insider transaction",
		"analyst rating", "dividend", "stock split", "rumor",
		"market update", "daily brief",
	}
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	var c Config
	c.Digest.AfterHour = DefaultDigestAfterHour
	c.ApplyDefaults()
	return &c
}

// LoadConfig reads the YAML file at path, applies defaults and validates.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var c Config
	c.Digest.AfterHour = DefaultDigestAfterHour
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	c.ApplyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// SMTP holds e-mail delivery settings. Delivery is enabled only when every
// field is set.
type SMTP struct {
	Server    string
	Port      int
	User      string
	Password  string
	Recipient string
}

func (s SMTP) Complete() bool {
	return s.Server != "" && s.Port > 0 && s.User != "" && s.Password != "" && s.Recipient != ""
}

func (s SMTP) Addr() string {
	return fmt.Sprintf("%s:%d", s.Server, s.Port)
}

// Secrets are read from the environment (after godotenv has loaded .env).
type Secrets struct {
	NewsAPIKey     string
	OpenAIAPIKey   string
	ClaudeAPIKey   string
	SMTP           SMTP
	TelegramToken  string
	TelegramChatID int64
}

func LoadSecrets() Secrets {
	s := Secrets{
		NewsAPIKey:    strings.TrimSpace(os.Getenv("NEWS_API_KEY")),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		ClaudeAPIKey:  strings.TrimSpace(os.Getenv("CLAUDE_API_KEY")),
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		SMTP: SMTP{
			Server:    os.Getenv("SMTP_SERVER"),
			User:      os.Getenv("SMTP_USER"),
			Password:  os.Getenv("SMTP_PASSWORD"),
			Recipient: os.Getenv("ALERT_RECIPIENT_EMAIL"),
		},
	}
	if port, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
		s.SMTP.Port = port
	}
	if chatID, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		s.TelegramChatID = chatID
	}
	return s
}
