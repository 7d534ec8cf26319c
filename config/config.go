package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Sensors    SensorsConfig    `yaml:"sensors"`
	Sweep      SweepConfig      `yaml:"sweep"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Auth       AuthConfig       `yaml:"auth"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableTimescale        bool   `yaml:"enable_timescale"`
	LogLevel               string `yaml:"log_level"`
}

// SensorsConfig holds the alert thresholds.
type SensorsConfig struct {
	Temperature         TemperatureConfig `yaml:"temperature"`
	AlertTimeoutMinutes int               `yaml:"alert_timeout_minutes"`
}

// TemperatureConfig defines the warning band (Min..Max) and the critical limits, in °C.
type TemperatureConfig struct {
	Min         float64 `yaml:"min"`
	Max         float64 `yaml:"max"`
	CriticalMin float64 `yaml:"critical_min"`
	CriticalMax float64 `yaml:"critical_max"`
}

// SweepConfig controls the periodic offline check.
type SweepConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	Concurrency     int           `yaml:"concurrency"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// AuthConfig holds the token signing settings.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTLMinutes int           `yaml:"token_ttl_minutes"`
	TokenTTL        time.Duration `yaml:"-"`
}

// MQTTConfig describes the optional broker subscription for device readings.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// LogConfig selects level and output format (json or console).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		Sensors: SensorsConfig{
			Temperature: TemperatureConfig{
				Min:         0,
				Max:         30,
				CriticalMin: -10,
				CriticalMax: 45,
			},
			AlertTimeoutMinutes: 15,
		},
	}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Thresholds may legitimately be zero, so their defaults are set before decoding.
	cfg := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(&cfg.Sensors); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Sweep.IntervalSeconds <= 0 {
		cfg.Sweep.IntervalSeconds = 60
	}
	cfg.Sweep.Interval = time.Duration(cfg.Sweep.IntervalSeconds) * time.Second
	if cfg.Sweep.Concurrency <= 0 {
		cfg.Sweep.Concurrency = 4
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 60
	}
	cfg.Auth.TokenTTL = time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "thermod"
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "sensors/+/temperature"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// applyEnvOverrides lets deployments tune thresholds without editing the file.
func applyEnvOverrides(s *SensorsConfig) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"SENSOR_MIN_TEMPERATURE", &s.Temperature.Min},
		{"SENSOR_MAX_TEMPERATURE", &s.Temperature.Max},
		{"SENSOR_CRITICAL_MIN_TEMPERATURE", &s.Temperature.CriticalMin},
		{"SENSOR_CRITICAL_MAX_TEMPERATURE", &s.Temperature.CriticalMax},
	}
	for _, f := range floats {
		raw, ok := os.LookupEnv(f.key)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", f.key, raw, err)
		}
		*f.dst = v
	}

	if raw, ok := os.LookupEnv("SENSOR_ALERT_TIMEOUT"); ok && raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_ALERT_TIMEOUT %q: %w", raw, err)
		}
		s.AlertTimeoutMinutes = v
	}
	return nil
}

// Validate checks that the threshold bands are consistent.
func (c *Config) Validate() error {
	t := c.Sensors.Temperature
	if t.Min > t.Max {
		return fmt.Errorf("sensors.temperature: min (%v) is greater than max (%v)", t.Min, t.Max)
	}
	if t.CriticalMin > t.CriticalMax {
		return fmt.Errorf("sensors.temperature: critical_min (%v) is greater than critical_max (%v)", t.CriticalMin, t.CriticalMax)
	}
	if c.Sensors.AlertTimeoutMinutes <= 0 {
		return fmt.Errorf("sensors.alert_timeout_minutes must be positive, got %d", c.Sensors.AlertTimeoutMinutes)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Push.Enabled && (c.Push.PublicKey == "" || c.Push.PrivateKey == "") {
		return fmt.Errorf("push is enabled but VAPID keys are not configured")
	}
	return nil
}
