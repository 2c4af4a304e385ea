package config

import (
	"fmt"
	"os"

	"github.com/vitos/trade_checklist/internal/domain"
	"github.com/vitos/trade_checklist/internal/usecase"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Telemetry struct {
		Seed       uint64  `yaml:"seed"`
		BaseEquity float64 `yaml:"base_equity"`
	} `yaml:"telemetry"`
	Evaluation struct {
		Workers      int `yaml:"workers"`
		MaxRangeDays int `yaml:"max_range_days"`
	} `yaml:"evaluation"`
	// Traders get the default rule records seeded on start.
	Traders []string            `yaml:"traders"`
	Rules   domain.RuleSettings `yaml:"rules"`
}

func Default() *Config {
	var cfg Config
	cfg.Logging.Level = "info"
	cfg.Server.Port = 8080
	cfg.Storage.Path = "checklist.db"
	cfg.Telemetry.Seed = 1
	cfg.Telemetry.BaseEquity = 10000
	cfg.Evaluation.Workers = 4
	cfg.Evaluation.MaxRangeDays = usecase.DefaultMaxRangeDays
	cfg.Rules = domain.DefaultRuleSettings()
	return &cfg
}

// Load reads a YAML file over Default. Keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("config rules: %w", err)
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Evaluation.MaxRangeDays <= 0 {
		cfg.Evaluation.MaxRangeDays = usecase.DefaultMaxRangeDays
	}
	return cfg, nil
}
