package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	DefaultSessionTimeoutSeconds = 600
	DefaultMinFileSize           = 1024
	DefaultSweepIntervalMinutes  = 2
	DefaultDownloadGraceMinutes  = 10
	DefaultEvictAfterMinutes     = 30
	DefaultCookieName            = "sid"
	DefaultDownloadDir           = "downloads"
)

type SessionConfig struct {
	DownloadDir    string `yaml:"download_dir"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MinFileSize    int64  `yaml:"min_file_size"`
}

func (c *SessionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type ReaperConfig struct {
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
	DownloadGraceMinutes int `yaml:"download_grace_minutes"`
	EvictAfterMinutes    int `yaml:"evict_after_minutes"`
}

func (c *ReaperConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

func (c *ReaperConfig) DownloadGrace() time.Duration {
	return time.Duration(c.DownloadGraceMinutes) * time.Minute
}

func (c *ReaperConfig) EvictAfter() time.Duration {
	return time.Duration(c.EvictAfterMinutes) * time.Minute
}

type FetcherConfig struct {
	CookiesFile string `yaml:"cookies_file"`
}

type HandlerConfig struct {
	URL        string `yaml:"url"`
	CookieName string `yaml:"cookie_name"`
}

type Config struct {
	Listen        string        `yaml:"listen"`
	LogLevel      string        `yaml:"log_level"`
	RedisURL      string        `yaml:"redis_url"`
	SessionConfig SessionConfig `yaml:"session"`
	ReaperConfig  ReaperConfig  `yaml:"reaper"`
	FetcherConfig FetcherConfig `yaml:"fetcher"`
	HandlerConfig HandlerConfig `yaml:"handler"`
}

// MustLoad reads the yaml config, overlaying process env from .env if present.
// Values like ${REDIS_URL} are expanded from the environment.
func MustLoad(path string) *Config {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("cannot read config %s: %w", path, err))
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		panic(fmt.Errorf("cannot parse config %s: %w", path, err))
	}

	cfg.setDefaults()

	return &cfg
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = LogLevelInfo
	}
	if c.SessionConfig.DownloadDir == "" {
		c.SessionConfig.DownloadDir = DefaultDownloadDir
	}
	if c.SessionConfig.TimeoutSeconds <= 0 {
		c.SessionConfig.TimeoutSeconds = DefaultSessionTimeoutSeconds
	}
	if c.SessionConfig.MinFileSize <= 0 {
		c.SessionConfig.MinFileSize = DefaultMinFileSize
	}
	if c.ReaperConfig.SweepIntervalMinutes <= 0 {
		c.ReaperConfig.SweepIntervalMinutes = DefaultSweepIntervalMinutes
	}
	if c.ReaperConfig.DownloadGraceMinutes <= 0 {
		c.ReaperConfig.DownloadGraceMinutes = DefaultDownloadGraceMinutes
	}
	if c.ReaperConfig.EvictAfterMinutes <= 0 {
		c.ReaperConfig.EvictAfterMinutes = DefaultEvictAfterMinutes
	}
	if c.HandlerConfig.CookieName == "" {
		c.HandlerConfig.CookieName = DefaultCookieName
	}
}
