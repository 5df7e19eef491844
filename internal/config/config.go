// Package config loads the service configuration from a YAML file with
// environment-variable overrides applied on top.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Database Database `yaml:"database"`
	RabbitMQ RabbitMQ `yaml:"rabbitmq"`
	Orders   Orders   `yaml:"orders"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" envconfig:"HTTP_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"HTTP_SHUTDOWN_TIMEOUT"`
}

type Database struct {
	// URL is the full postgres connection string. Empty means no database:
	// the service falls back to the in-memory store.
	URL string `yaml:"url" envconfig:"DATABASE_URL"`
}

type RabbitMQ struct {
	// Enabled turns on the broadcast mirror; the rest is ignored when off.
	Enabled  bool   `yaml:"enabled" envconfig:"RABBITMQ_ENABLED"`
	Host     string `yaml:"host" envconfig:"RABBITMQ_HOST"`
	Port     int    `yaml:"port" envconfig:"RABBITMQ_PORT"`
	User     string `yaml:"user" envconfig:"RABBITMQ_USER"`
	Password string `yaml:"password" envconfig:"RABBITMQ_PASSWORD"`
}

type Orders struct {
	MaxItemsPerOrder   int           `yaml:"max_items_per_order" envconfig:"ORDERS_MAX_ITEMS"`
	MaxQuantityPerItem int           `yaml:"max_quantity_per_item" envconfig:"ORDERS_MAX_QUANTITY"`
	DeliveryBuffer     time.Duration `yaml:"delivery_buffer" envconfig:"ORDERS_DELIVERY_BUFFER"`
}

func defaults() *Config {
	return &Config{
		HTTP: HTTP{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		RabbitMQ: RabbitMQ{
			Host: "localhost",
			Port: 5672,
			User: "guest",
		},
		Orders: Orders{
			MaxItemsPerOrder:   20,
			MaxQuantityPerItem: 10,
			DeliveryBuffer:     10 * time.Minute,
		},
	}
}

// Load reads the YAML file at path (skipped when empty or missing) and
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}
	return cfg, nil
}
