// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	// Namespace points the gateway at the execution platform's dispatch
	// namespace API. An empty base URL selects the in-process namespace,
	// which is what the demo mode runs on.
	Namespace struct {
		BaseURL  string `yaml:"base_url"`
		APIToken string `yaml:"api_token"`
	} `yaml:"namespace"`

	// Events is optional; an empty URL disables upload-event publishing.
	Events struct {
		URL string `yaml:"url"`
	} `yaml:"events"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	// Seed customers are written by /init when the store is reset.
	Seed []SeedCustomer `yaml:"seed"`
}

type SeedCustomer struct {
	ID       string `yaml:"id"`
	PlanType string `yaml:"plan_type"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	return cfg, nil
}
