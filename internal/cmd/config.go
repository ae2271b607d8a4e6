package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Archive struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
		Stream  string `yaml:"stream"`
		Subject string `yaml:"subject"`
	} `yaml:"archive"`

	Websocket struct {
		WriteTimeoutSec int `yaml:"write_timeout_sec"`
		ReadTimeoutSec  int `yaml:"read_timeout_sec"`
		PingIntervalSec int `yaml:"ping_interval_sec"`
	} `yaml:"websocket"`
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

func (c *Config) websocketTimeouts() (write, read, ping time.Duration) {
	write = 10 * time.Second
	read = 60 * time.Second
	ping = 30 * time.Second
	if c.Websocket.WriteTimeoutSec > 0 {
		write = time.Duration(c.Websocket.WriteTimeoutSec) * time.Second
	}
	if c.Websocket.ReadTimeoutSec > 0 {
		read = time.Duration(c.Websocket.ReadTimeoutSec) * time.Second
	}
	if c.Websocket.PingIntervalSec > 0 {
		ping = time.Duration(c.Websocket.PingIntervalSec) * time.Second
	}
	return write, read, ping
}
