package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// cliConfig is read from ~/.csvguard.yaml unless --config points elsewhere.
type cliConfig struct {
	APIBaseURL string `yaml:"api_base_url"`
	Token      string `yaml:"token"`
	User       string `yaml:"user"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".csvguard.yaml"
	}
	return filepath.Join(home, ".csvguard.yaml")
}

// loadConfig reads the YAML config. A missing file falls back to the
// CSVGUARD_API_URL environment variable, then to a local server, so the CLI
// works out of the box.
func loadConfig(path string) (*cliConfig, error) {
	cfg := &cliConfig{APIBaseURL: "http://localhost:8080"}
	if url := os.Getenv("CSVGUARD_API_URL"); url != "" {
		cfg.APIBaseURL = url
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:8080"
	}
	return cfg, nil
}

// staticIdentity satisfies editor.Identity from config values.
type staticIdentity struct {
	name  string
	token string
}

func (s staticIdentity) DisplayName() string { return s.name }
func (s staticIdentity) Token() string       { return s.token }
