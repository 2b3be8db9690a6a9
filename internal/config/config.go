package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Extraction ExtractionConfig
	Insights   InsightsConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	RateLimit      int `mapstructure:"rate_limit"`
	RateBurst      int `mapstructure:"rate_burst"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

type ExtractionConfig struct {
	TimeoutSeconds      int `mapstructure:"timeout_seconds"`
	BreakerMaxFailures  int `mapstructure:"breaker_max_failures"`
	BreakerResetSeconds int `mapstructure:"breaker_reset_seconds"`
}

type InsightsConfig struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func (e ExtractionConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

func (e ExtractionConfig) BreakerReset() time.Duration {
	return time.Duration(e.BreakerResetSeconds) * time.Second
}

func (i InsightsConfig) CacheTTL() time.Duration {
	return time.Duration(i.CacheTTLSeconds) * time.Second
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("server.rate_limit", 50)
	viper.SetDefault("server.rate_burst", 100)
	viper.SetDefault("storage.path", "data/medintern.db")
	viper.SetDefault("extraction.timeout_seconds", 60)
	viper.SetDefault("extraction.breaker_max_failures", 5)
	viper.SetDefault("extraction.breaker_reset_seconds", 30)
	viper.SetDefault("insights.cache_ttl_seconds", 300)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
