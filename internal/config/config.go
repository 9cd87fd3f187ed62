package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env"
)

// Config holds the planner server settings read from the environment.
type Config struct {
	Addr        string `env:"PLANNER_ADDR" envDefault:":8080"`
	DataDir     string `env:"PLANNER_DATA_DIR" envDefault:"data"`
	DataURL     string `env:"PLANNER_DATA_URL"`
	DriveURL    string `env:"PLANNER_DRIVE_URL"`
	Days        int    `env:"PLANNER_DAYS" envDefault:"8"`
	DefaultDay  int    `env:"PLANNER_DEFAULT_DAY" envDefault:"5"`
	DefaultLang string `env:"PLANNER_DEFAULT_LANG" envDefault:"zh-TW"`
	Templates   string `env:"PLANNER_TEMPLATES" envDefault:"templates"`
	Public      string `env:"PLANNER_PUBLIC" envDefault:"public"`
	// Locales is a directory of <lang>.json files; empty uses the embedded set.
	Locales      string        `env:"PLANNER_LOCALES"`
	ContentFile  string        `env:"PLANNER_CONTENT_FILE"`
	Dev          bool          `env:"PLANNER_DEV"`
	SessionTTL   time.Duration `env:"PLANNER_SESSION_TTL" envDefault:"12h"`
	// SessionKey signs the session cookie; empty uses a per-process key.
	SessionKey    string        `env:"PLANNER_SESSION_KEY"`
	SecureCookies bool          `env:"PLANNER_SECURE_COOKIES"`
	FetchTimeout  time.Duration `env:"PLANNER_FETCH_TIMEOUT" envDefault:"10s"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports inconsistent settings.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.Days < 1 {
		errs = append(errs, fmt.Errorf("days must be positive, got %d", c.Days))
	} else if c.DefaultDay < 1 || c.DefaultDay > c.Days {
		errs = append(errs, fmt.Errorf("default day %d outside 1..%d", c.DefaultDay, c.Days))
	}
	if strings.TrimSpace(c.DataDir) == "" && strings.TrimSpace(c.DataURL) == "" {
		errs = append(errs, errors.New("one of data dir or data url is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
