package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	// SlotCacheTTLSeconds bounds how stale cached availability may get.
	SlotCacheTTLSeconds int `yaml:"slot_cache_ttl_seconds"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIConfig struct {
	Port            int `yaml:"port"`
	RateLimitRPS    int `yaml:"rate_limit_rps"`
	RateLimitBurst  int `yaml:"rate_limit_burst"`
	RequestTimeout  int `yaml:"request_timeout_seconds"`
	ShutdownTimeout int `yaml:"shutdown_timeout_seconds"`
}

type BookingConfig struct {
	// UpcomingLimit caps the default "upcoming appointments" listing.
	UpcomingLimit int `yaml:"upcoming_limit"`
	// MaxBookingDays bounds how far ahead a booking may be placed.
	MaxBookingDays int `yaml:"max_booking_days"`
}

// Load reads the YAML config file, applying .env and environment overrides
// for secrets. Missing optional fields get defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "bookdesk"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/bookdesk.db"
	}
	if c.Redis.PoolSize <= 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.SlotCacheTTLSeconds <= 0 {
		c.Redis.SlotCacheTTLSeconds = 60
	}
	if c.API.Port <= 0 {
		c.API.Port = 8080
	}
	if c.API.RateLimitRPS <= 0 {
		c.API.RateLimitRPS = 20
	}
	if c.API.RateLimitBurst <= 0 {
		c.API.RateLimitBurst = 40
	}
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = 15
	}
	if c.API.ShutdownTimeout <= 0 {
		c.API.ShutdownTimeout = 10
	}
	if c.Booking.UpcomingLimit <= 0 {
		c.Booking.UpcomingLimit = 10
	}
	if c.Booking.MaxBookingDays <= 0 {
		c.Booking.MaxBookingDays = 365
	}
}

func (c *Config) validate() error {
	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("redis.enabled requires redis.address")
	}
	return nil
}
