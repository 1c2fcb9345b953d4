package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DatabaseURL string `yaml:"databaseURL" validate:"required"`

	// Schedule publishing (Google Sheets display surface)
	ScheduleSheetID string `yaml:"scheduleSheetID,omitempty"`
	ScheduleTab     string `yaml:"scheduleTab,omitempty"`

	// PublishResources lists the resource ids whose availability grid is
	// published to the schedule sheet.
	PublishResources []string `yaml:"publishResources,omitempty"`

	// ClosureRules are recurrence rules (RFC 5545 RRULE syntax) for
	// clinic-wide closure days. A matching date is treated as a complete
	// exclusion for every resource.
	ClosureRules []string `yaml:"closureRules,omitempty"`

	CacheTTLMinutes      int `yaml:"cacheTTLMinutes,omitempty" validate:"omitempty,min=1"`
	OverflowStepMinutes  int `yaml:"overflowStepMinutes,omitempty" validate:"omitempty,min=1"`
	RebalanceHorizonDays int `yaml:"rebalanceHorizonDays,omitempty" validate:"omitempty,min=1"`
}

const (
	defaultCacheTTLMinutes      = 5
	defaultOverflowStepMinutes  = 15
	defaultRebalanceHorizonDays = 90
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from clinic_scheduling.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment, e.g. env="test"
// looks for "clinic_scheduling.test.yaml".
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Validate validates the configuration struct and checks closure rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, rule := range cfg.ClosureRules {
		if _, err := rrule.StrToRRule(rule); err != nil {
			return fmt.Errorf("invalid rrule in closureRules[%d]: %w", i, err)
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.CacheTTLMinutes == 0 {
		cfg.CacheTTLMinutes = defaultCacheTTLMinutes
	}
	if cfg.OverflowStepMinutes == 0 {
		cfg.OverflowStepMinutes = defaultOverflowStepMinutes
	}
	if cfg.RebalanceHorizonDays == 0 {
		cfg.RebalanceHorizonDays = defaultRebalanceHorizonDays
	}
}

// findConfigFile searches for the config file in current directory and home directory
func findConfigFile(env string) (string, error) {
	configFileName := "clinic_scheduling.yaml"
	if env != "" {
		configFileName = "clinic_scheduling." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", configFileName)
}
