// Package config loads FitManager settings from defaults, an optional YAML
// file, a .env file and FITMANAGER_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/Ammar-alrfee/fit-manager/internal/auth"
	"github.com/Ammar-alrfee/fit-manager/internal/calculator"
)

// EnvPrefix prefixes every environment variable, e.g. FITMANAGER_HTTP_ADDR.
const EnvPrefix = "FITMANAGER"

type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Session    SessionConfig    `mapstructure:"session"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Server     ServerConfig     `mapstructure:"server"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	Prices     PricesConfig     `mapstructure:"prices"`
	Seed       bool             `mapstructure:"seed"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type StorageConfig struct {
	// Driver is "memory" or "sqlite".
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type SessionConfig struct {
	// Path is the directory of the CLI's persisted identity slot.
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// LoginRate is the number of login attempts refilled per minute, per username.
	LoginRate  float64        `mapstructure:"login_rate"`
	LoginBurst int            `mapstructure:"login_burst"`
	Accounts   []auth.Account `mapstructure:"accounts"`
}

// Limit converts LoginRate into a rate.Limit.
func (a AuthConfig) Limit() rate.Limit {
	return rate.Limit(a.LoginRate / 60)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector, e.g. "localhost:4318". Empty disables tracing.
	Endpoint string `mapstructure:"endpoint"`
}

type ServerConfig struct {
	URL string `mapstructure:"url"`
}

type AttendanceConfig struct {
	// Timezone is an IANA zone name for check-in dates and times, or "Local".
	Timezone string `mapstructure:"timezone"`
}

// Location resolves Timezone.
func (a AttendanceConfig) Location() (*time.Location, error) {
	if a.Timezone == "" || strings.EqualFold(a.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid attendance.timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}

type PricesConfig struct {
	Monthly   float64 `mapstructure:"monthly"`
	Quarterly float64 `mapstructure:"quarterly"`
	Yearly    float64 `mapstructure:"yearly"`
}

// Table returns the prices keyed by plan.
func (p PricesConfig) Table() calculator.Prices {
	return calculator.Prices{
		calculator.PlanMonthly:   p.Monthly,
		calculator.PlanQuarterly: p.Quarterly,
		calculator.PlanYearly:    p.Yearly,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.sqlite_path", "./data/fitmanager.db")
	v.SetDefault("session.path", defaultSessionPath())
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.login_rate", 5)
	v.SetDefault("auth.login_burst", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("server.url", "http://localhost:8080")
	v.SetDefault("attendance.timezone", "Local")
	v.SetDefault("prices.monthly", calculator.DefaultPrices[calculator.PlanMonthly])
	v.SetDefault("prices.quarterly", calculator.DefaultPrices[calculator.PlanQuarterly])
	v.SetDefault("prices.yearly", calculator.DefaultPrices[calculator.PlanYearly])
	v.SetDefault("seed", true)
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./data/session"
	}
	return filepath.Join(dir, "fitmanager", "session")
}

// Load reads the configuration. path names an optional YAML file; when it is
// empty, ./fitmanager.yaml is used if it exists.
func Load(path string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fitmanager")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if len(cfg.Auth.Accounts) == 0 {
		cfg.Auth.Accounts = auth.DefaultAccounts
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("invalid storage.driver %q: want memory or sqlite", c.Storage.Driver)
	}
	if c.Storage.Driver == "sqlite" && c.Storage.SQLitePath == "" {
		return errors.New("storage.sqlite_path is required for the sqlite driver")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Prices.Monthly < 0 || c.Prices.Quarterly < 0 || c.Prices.Yearly < 0 {
		return errors.New("prices must not be negative")
	}
	if _, err := c.Attendance.Location(); err != nil {
		return err
	}
	return nil
}
