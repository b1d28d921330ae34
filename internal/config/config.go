package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
)

// Config holds all configuration from environment variables.
type Config struct {
	Token   string `envconfig:"TELEGRAM_API_TOKEN" required:"true"`
	APIKey  string `envconfig:"OPENAI_API_KEY" required:"true"`
	BaseURL string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model   string `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`

	// Messages starting with this prefix are treated as commands.
	TriggerPrefix string `envconfig:"TRIGGER_PREFIX" default:"!ask "`

	// Relay settings
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
	MaxInFlight     int           `envconfig:"MAX_IN_FLIGHT" default:"4"`
	RetryAttempts   int           `envconfig:"RETRY_ATTEMPTS" default:"1"`
	RetryBackoff    time.Duration `envconfig:"RETRY_BACKOFF" default:"500ms"`
	RetryMaxBackoff time.Duration `envconfig:"RETRY_MAX_BACKOFF" default:"5s"`
	BreakerFailures uint32        `envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"BREAKER_COOLDOWN" default:"30s"`

	// Chats allowed to use the bot. Empty allows every chat.
	AllowedChatIDs []int64       `envconfig:"ALLOWED_CHAT_IDS"`
	DedupeTTL      time.Duration `envconfig:"DEDUPE_TTL" default:"10m"`

	// Listen address for /metrics and /healthz. Empty disables the server.
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Path to config.toml file
	ConfigFile string `envconfig:"CONFIG_FILE" default:"config.toml"`

	// Loaded from config.toml
	Prompts    Prompts
	Moderation Moderation
}

// Prompts holds system prompts loaded from config.toml.
type Prompts struct {
	System string `toml:"system"`
}

// Moderation holds the keyword blocklist loaded from config.toml.
type Moderation struct {
	Blocked []string `toml:"blocked"`
}

// FileConfig represents the structure of config.toml.
type FileConfig struct {
	Prompts    Prompts    `toml:"prompts"`
	Moderation Moderation `toml:"moderation"`
}

// LoadEnv loads the configuration from environment variables.
func (c Config) LoadEnv() (Config, error) {
	cfg := c

	if err := envconfig.Process("", &cfg); err != nil {
		return c, err
	}

	return cfg, nil
}

// LoadFile loads prompts and moderation settings from config.toml.
// A missing file leaves the defaults in place.
func (c *Config) LoadFile() error {
	configPath := c.ConfigFile
	if !filepath.IsAbs(configPath) {
		// Try current directory first, then the executable directory
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			execPath, err := os.Executable()
			if err == nil {
				configPath = filepath.Join(filepath.Dir(execPath), c.ConfigFile)
			}
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	var fileConfig FileConfig
	if _, err := toml.DecodeFile(configPath, &fileConfig); err != nil {
		return fmt.Errorf("failed to decode %s: %w", configPath, err)
	}

	c.Prompts = fileConfig.Prompts
	c.Moderation = fileConfig.Moderation

	return nil
}

// Validate rejects settings that would make the relay unusable.
func (c *Config) Validate() error {
	if c.TriggerPrefix == "" {
		return fmt.Errorf("TRIGGER_PREFIX must not be empty")
	}
	if c.MaxInFlight < 1 {
		return fmt.Errorf("MAX_IN_FLIGHT must be at least 1, got %d", c.MaxInFlight)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1, got %d", c.RetryAttempts)
	}
	return nil
}

func NewConfig() (*Config, error) {
	var cfg Config
	loadedCfg, err := cfg.LoadEnv()
	if err != nil {
		return nil, err
	}

	if err := loadedCfg.LoadFile(); err != nil {
		return nil, err
	}

	if err := loadedCfg.Validate(); err != nil {
		return nil, err
	}

	return &loadedCfg, nil
}

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(
			NewConfig,
		),
	)
}
