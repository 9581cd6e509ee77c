package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// storage
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	RedisHost      string `toml:"redis_host"`
	RedisPort      string `toml:"redis_port"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// api
	LoginRateLimitAllowedPerMin int      `toml:"login_rate_limit_allowed_per_min"`
	AllowedOrigins              []string `toml:"allowed_origins"`
	PatientsCacheSizeMB         int      `toml:"patients_cache_size_mb"`
	// coaching notes
	MessageTemplatesPath string `toml:"message_templates_path"`
	NoteAutosaveDelayMs  int    `toml:"note_autosave_delay_ms"`
	// scheduled jobs
	SessionsCleanupSchedule string `toml:"sessions_cleanup_schedule"`
	BackupEnabled           bool   `toml:"backup_enabled"`
	BackupSchedule          string `toml:"backup_schedule"`
	BackupFolderName        string `toml:"backup_folder_name"`
}

// NoteAutosaveDelay is the idle time after the last draft edit before it is saved.
func (c *Config) NoteAutosaveDelay() time.Duration {
	if c.NoteAutosaveDelayMs <= 0 {
		return 1500 * time.Millisecond
	}
	return time.Duration(c.NoteAutosaveDelayMs) * time.Millisecond
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing", env)
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	return cfg, nil
}

func Load(env, path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(env, string(content))
}

func Parse(env, content string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(content, &t); err != nil {
		return nil, fmt.Errorf("decode toml config: %w", err)
	}
	return t.Get(env)
}
