package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"parking-iot-backend/internal/logger"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Live       LiveConfig       `yaml:"live"`
	Historical HistoricalConfig `yaml:"historical"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        logger.Config    `yaml:"log"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
// Notifications are disabled when the keys are empty.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
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
}

// GeneratorConfig holds the simulation parameters shared by live and historical runs.
type GeneratorConfig struct {
	// Seed fixes the random stream. Zero means a time-derived seed.
	Seed                uint64         `yaml:"seed"`
	ArrivalsPerSpotHour float64        `yaml:"arrivals_per_spot_hour"`
	FacilitiesFile      string         `yaml:"facilities_file"`
	EmitActiveSessions  bool           `yaml:"emit_active_sessions"`
	Holidays            []string       `yaml:"holidays"`
	Timezone            string         `yaml:"timezone"`
	Location            *time.Location `yaml:"-"`
}

// LiveConfig holds the live feed pacing. A zero SimStepSeconds keeps the simulated clock
// on wall time; a positive one accelerates it by that many seconds per tick.
type LiveConfig struct {
	AutoStart           bool          `yaml:"auto_start"`
	TickIntervalSeconds int           `yaml:"tick_interval_seconds"`
	SimStepSeconds      int           `yaml:"sim_step_seconds"`
	BurstStepSeconds    int           `yaml:"burst_step_seconds"`
	BurstBoost          float64       `yaml:"burst_boost"`
	BatchSize           int           `yaml:"batch_size"`
	TickInterval        time.Duration `yaml:"-"`
	SimStep             time.Duration `yaml:"-"`
	BurstStep           time.Duration `yaml:"-"`
}

// HistoricalConfig holds the backfill defaults.
type HistoricalConfig struct {
	TickMinutes    int           `yaml:"tick_minutes"`
	BatchSize      int           `yaml:"batch_size"`
	MaxRetries     int           `yaml:"max_retries"`
	BackoffMillis  int           `yaml:"backoff_millis"`
	FlushWorkers   int           `yaml:"flush_workers"`
	CheckpointPath string        `yaml:"checkpoint_path"`
	TickStep       time.Duration `yaml:"-"`
	Backoff        time.Duration `yaml:"-"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	if err := cfg.applyDefaults(); err != nil {
		panic(err)
	}
	return cfg
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
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 2
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database.driver %q", cfg.Database.Driver)
	}

	if cfg.Generator.ArrivalsPerSpotHour <= 0 {
		cfg.Generator.ArrivalsPerSpotHour = 0.05
	}
	if cfg.Generator.Timezone == "" {
		cfg.Generator.Timezone = "America/New_York"
	}
	loc, err := time.LoadLocation(cfg.Generator.Timezone)
	if err != nil {
		return fmt.Errorf("load generator.timezone %q: %w", cfg.Generator.Timezone, err)
	}
	cfg.Generator.Location = loc
	for _, d := range cfg.Generator.Holidays {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return fmt.Errorf("invalid generator.holidays entry %q: %w", d, err)
		}
	}

	if cfg.Live.TickIntervalSeconds <= 0 {
		cfg.Live.TickIntervalSeconds = 1
	}
	if cfg.Live.SimStepSeconds < 0 {
		cfg.Live.SimStepSeconds = 0
	}
	if cfg.Live.BurstStepSeconds <= 0 {
		cfg.Live.BurstStepSeconds = 300
	}
	if cfg.Live.BurstBoost <= 0 {
		cfg.Live.BurstBoost = 3
	}
	if cfg.Live.BatchSize <= 0 {
		cfg.Live.BatchSize = 100
	}
	cfg.Live.TickInterval = time.Duration(cfg.Live.TickIntervalSeconds) * time.Second
	cfg.Live.SimStep = time.Duration(cfg.Live.SimStepSeconds) * time.Second
	cfg.Live.BurstStep = time.Duration(cfg.Live.BurstStepSeconds) * time.Second

	if cfg.Historical.TickMinutes <= 0 {
		cfg.Historical.TickMinutes = 15
	}
	if (24*60)%cfg.Historical.TickMinutes != 0 {
		return fmt.Errorf("historical.tick_minutes %d must divide a day", cfg.Historical.TickMinutes)
	}
	if cfg.Historical.BatchSize <= 0 {
		cfg.Historical.BatchSize = 1000
	}
	if cfg.Historical.MaxRetries <= 0 {
		cfg.Historical.MaxRetries = 3
	}
	if cfg.Historical.BackoffMillis <= 0 {
		cfg.Historical.BackoffMillis = 500
	}
	if cfg.Historical.FlushWorkers <= 0 {
		cfg.Historical.FlushWorkers = 2
	}
	if cfg.Historical.CheckpointPath == "" {
		cfg.Historical.CheckpointPath = "./data/historical_progress.json"
	}
	cfg.Historical.TickStep = time.Duration(cfg.Historical.TickMinutes) * time.Minute
	cfg.Historical.Backoff = time.Duration(cfg.Historical.BackoffMillis) * time.Millisecond

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = logger.DefaultLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = logger.DefaultFormat
	}
	return nil
}
