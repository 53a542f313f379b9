package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"afc-report-backend/internal/logger"
)

// Environment variables that override the remote script URL. The second name is
// the one the browser build used, kept so an existing .env keeps working.
const (
	EnvScriptURL       = "GOOGLE_SCRIPT_URL"
	EnvLegacyScriptURL = "NEXT_PUBLIC_GOOGLE_SCRIPT_URL"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Remote     RemoteConfig     `yaml:"remote"`
	Database   DatabaseConfig   `yaml:"database"`
	Sync       SyncConfig       `yaml:"sync"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
	Form       FormConfig       `yaml:"form"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
// Push is optional: with no keys configured sync results are only logged.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are present.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port             int           `yaml:"port"`
	Mode             string        `yaml:"mode"`
	RateLimitPerSec  float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst   int           `yaml:"rate_limit_burst"`
	UpstreamPerMin   int64         `yaml:"upstream_requests_per_min"`
	CacheTTLSeconds  int           `yaml:"cache_ttl_seconds"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	Timezone         string        `yaml:"timezone"`
	ShutdownTimeout  int           `yaml:"shutdown_timeout_seconds"`
	ShutdownDuration time.Duration `yaml:"-"`
}

// RemoteConfig describes the spreadsheet script endpoint all proxies forward to.
type RemoteConfig struct {
	URL            string            `yaml:"url"`
	HTTPProxy      string            `yaml:"http_proxy"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Timeout        time.Duration     `yaml:"-"`
	Headers        map[string]string `yaml:"headers"`
}

// SyncConfig holds the pending queue settings.
type SyncConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
	SubmitURL       string        `yaml:"submit_url"`
	ProbeURL        string        `yaml:"probe_url"`
	ProbeTimeoutMS  int           `yaml:"probe_timeout_ms"`
	ProbeTimeout    time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// LogConfig controls the logrus logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FormConfig holds the defaults of a fresh report form.
type FormConfig struct {
	DefaultReporter string `yaml:"default_reporter"`
	DefaultStation  string `yaml:"default_station"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadDotEnv loads a .env file into the process environment if one exists.
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		logger.Log.WithError(err).Debug("no .env file loaded; using process environment")
	}
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv(EnvScriptURL); v != "" {
		cfg.Remote.URL = v
	} else if v := os.Getenv(EnvLegacyScriptURL); v != "" {
		cfg.Remote.URL = v
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.UpstreamPerMin <= 0 {
		cfg.Server.UpstreamPerMin = 60
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	if cfg.Server.Timezone == "" {
		cfg.Server.Timezone = "Europe/Athens"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 5
	}
	cfg.Server.ShutdownDuration = time.Duration(cfg.Server.ShutdownTimeout) * time.Second

	if cfg.Remote.TimeoutSeconds <= 0 {
		cfg.Remote.TimeoutSeconds = 30
	}
	cfg.Remote.Timeout = time.Duration(cfg.Remote.TimeoutSeconds) * time.Second

	if cfg.Sync.IntervalSeconds <= 0 {
		cfg.Sync.IntervalSeconds = 5
	}
	cfg.Sync.Interval = time.Duration(cfg.Sync.IntervalSeconds) * time.Second
	if cfg.Sync.ProbeURL == "" {
		cfg.Sync.ProbeURL = cfg.Remote.URL
	}
	if cfg.Sync.ProbeTimeoutMS <= 0 {
		cfg.Sync.ProbeTimeoutMS = 3000
	}
	cfg.Sync.ProbeTimeout = time.Duration(cfg.Sync.ProbeTimeoutMS) * time.Millisecond

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "file:afc_reports.db?_busy_timeout=5000&_txlock=immediate"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		logger.Log.Warn("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Form.DefaultReporter == "" {
		cfg.Form.DefaultReporter = "Emmanouil Kazantzoglou"
	}
	if cfg.Form.DefaultStation == "" {
		cfg.Form.DefaultStation = "1(NRS)"
	}
}
