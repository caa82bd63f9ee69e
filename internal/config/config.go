// Package config loads application configuration from config.yaml,
// environment variables, and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full application configuration tree.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`

	Schedules []ScheduleConfig `mapstructure:"schedules"`
}

// AppConfig identifies the application.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// LoggerConfig controls log output.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	Encoding    string `mapstructure:"encoding"`
}

// CrawlerConfig controls the browser page source and crawl bounds.
type CrawlerConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Headless bool          `mapstructure:"headless"`
	MaxPages int           `mapstructure:"max_pages"`
	Output   string        `mapstructure:"output"`
}

// CacheConfig controls the record cache.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Backend    string `mapstructure:"backend"`
	Dir        string `mapstructure:"dir"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`

	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`
	RedisKeyPrefix string `mapstructure:"redis_key_prefix"`
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig controls the optional execution history store.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ScheduleConfig is one cron-driven recrawl.
type ScheduleConfig struct {
	Cron     string `mapstructure:"cron"`
	Region   string `mapstructure:"region"`
	Out      string `mapstructure:"out"`
	MaxPages int    `mapstructure:"max_pages"`
	UseCache bool   `mapstructure:"use_cache"`
}

// Load reads configuration from the given file (or the default search
// path when file is empty), layered under environment variables.
func Load(file string) (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		// Missing config file is fine, defaults and env carry it.
		_ = v.ReadInConfig()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app", map[string]any{
		"name":        "goscreener",
		"environment": "production",
		"debug":       false,
	})

	v.SetDefault("logger", map[string]any{
		"level":       "info",
		"development": false,
		"encoding":    "json",
	})

	v.SetDefault("crawler", map[string]any{
		"base_url":  "https://finance.yahoo.com/research-hub/screener/equity/",
		"timeout":   "45s",
		"headless":  true,
		"max_pages": 0,
		"output":    "output/equities.csv",
	})

	v.SetDefault("cache", map[string]any{
		"enabled":          true,
		"backend":          "local",
		"dir":              "cache",
		"ttl_minutes":      30,
		"redis_addr":       "localhost:6379",
		"redis_db":         0,
		"redis_key_prefix": "screener:quotes",
	})

	v.SetDefault("server", map[string]any{
		"address":       ":8080",
		"read_timeout":  "15s",
		"write_timeout": "120s",
	})

	v.SetDefault("database", map[string]any{
		"enabled": false,
		"host":    "localhost",
		"port":    "5432",
		"user":    "goscreener",
		"dbname":  "goscreener",
		"sslmode": "disable",
	})
}
