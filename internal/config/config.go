package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/belphemur/canteen-menu/internal/constants"
)

// EnvPrefix is the prefix of environment overrides, e.g. CANTEEN_API__BASE_URL
const EnvPrefix = "CANTEEN_"

// Config holds the application configuration
type Config struct {
	App           AppConfig           `koanf:"app"`
	API           APIConfig           `koanf:"api"`
	Poll          PollConfig          `koanf:"poll"`
	Service       ServiceConfig       `koanf:"service"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

// AppConfig holds the web surface configuration
type AppConfig struct {
	Port int `koanf:"port"`
}

// APIConfig describes the menu backend this viewer reads from
type APIConfig struct {
	BaseURL      string        `koanf:"base_url"`
	Timeout      time.Duration `koanf:"timeout"`
	// CheckTimeout bounds check-now calls, during which the backend scrapes and extracts the menu
	CheckTimeout time.Duration `koanf:"check_timeout"`
}

// PollConfig holds the refresh timings
type PollConfig struct {
	Interval         time.Duration `koanf:"interval"`
	CheckSettleDelay time.Duration `koanf:"check_settle_delay"`
}

// ServiceConfig holds the service configuration
type ServiceConfig struct {
	StateFile string `koanf:"state_file"`
	LogLevel  string `koanf:"log_level"`
	Timezone  string `koanf:"timezone"`
}

// NotificationsConfig is the text of the "new menu" notification
type NotificationsConfig struct {
	Title string `koanf:"title"`
	Body  string `koanf:"body"`
	Icon  string `koanf:"icon"`
	// Origins lists the page origins allowed to open the notification websocket.
	// Empty means same-origin only.
	Origins []string `koanf:"origins"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"app.port":                8080,
		"api.base_url":            "http://localhost:8000/api",
		"api.timeout":             constants.DefaultAPITimeout.String(),
		"api.check_timeout":       constants.DefaultCheckTimeout.String(),
		"poll.interval":           constants.DefaultPollInterval.String(),
		"poll.check_settle_delay": constants.DefaultCheckSettleDelay.String(),
		"service.state_file":      "data/canteen-menu.db",
		"service.log_level":       "info",
		"service.timezone":        "UTC",
		"notifications.title":     "New Menu Available!",
		"notifications.body":      "The menu for today has been posted. Click to view.",
		"notifications.icon":      "/favicon.ico",
		"notifications.origins":   []string{},
	}
}

// Load reads defaults, the optional TOML file at path and CANTEEN_* environment overrides.
// A missing file is not an error; every value has a default.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to access config %s: %w", path, err)
		}
	}

	// CANTEEN_API__BASE_URL -> api.base_url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	// A relative state file lives next to the config directory, not the working directory
	if path != "" && cfg.Service.StateFile != "" && !filepath.IsAbs(cfg.Service.StateFile) {
		configDir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config directory: %w", err)
		}
		cfg.Service.StateFile = filepath.Join(configDir, "..", cfg.Service.StateFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.App.Port < 1 || c.App.Port > 65535 {
		return fmt.Errorf("app port must be between 1 and 65535, got %d", c.App.Port)
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("api base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}
	if c.API.CheckTimeout < c.API.Timeout {
		return fmt.Errorf("api check_timeout (%s) must not be shorter than api timeout (%s)", c.API.CheckTimeout, c.API.Timeout)
	}

	if c.Poll.Interval < time.Second {
		return fmt.Errorf("poll interval must be at least one second, got %s", c.Poll.Interval)
	}
	if c.Poll.CheckSettleDelay < 0 {
		return fmt.Errorf("poll check_settle_delay must not be negative")
	}

	if c.Service.StateFile == "" {
		return fmt.Errorf("service state_file is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Notifications.Title == "" {
		return fmt.Errorf("notifications title is required")
	}
	return nil
}

// Location returns the time zone used to decide what "today" is
func (c *Config) Location() (*time.Location, error) {
	if c.Service.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Service.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid service timezone %q: %w", c.Service.Timezone, err)
	}
	return loc, nil
}
