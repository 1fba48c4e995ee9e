package config

import (
	"encoding/json"
	"os"
	"time"
)

type Config struct {
	Server     ServerConfig  `json:"server"`
	Redis      RedisConfig   `json:"redis"`
	CartAPI    GatewayConfig `json:"cart_api"`
	CatalogAPI GatewayConfig `json:"catalog_api"`
	Cart       CartConfig    `json:"cart"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type GatewayConfig struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (g GatewayConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

type CartConfig struct {
	// AllowOverOrdering waives the stock ceiling on quantity clamps;
	// only the floor of 1 applies then.
	AllowOverOrdering        bool `json:"allow_over_ordering"`
	SessionTTLMinutes        int  `json:"session_ttl_minutes"`
	ReconcileIntervalSeconds int  `json:"reconcile_interval_seconds"`
	CatalogCacheTTLSeconds   int  `json:"catalog_cache_ttl_seconds"`
}

func (c CartConfig) SessionTTL() time.Duration {
	if c.SessionTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c CartConfig) ReconcileInterval() time.Duration {
	if c.ReconcileIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

func (c CartConfig) CatalogCacheTTL() time.Duration {
	if c.CatalogCacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.CatalogCacheTTLSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
