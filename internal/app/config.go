package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/buildgridgo/internal/scheduler"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PlanPath string            // .hcl / .yaml file or directory
	Vars     map[string]string // HCL variable overrides

	Parallelism         string
	QuietMode           bool
	ChangedProjectsOnly bool
	AllowWarnings       bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	TimelinePath    string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PlanPath == "" {
		return nil, errors.New("PlanPath is a required configuration field and cannot be empty")
	}
	if _, err := scheduler.ParseParallelism(cfg.Parallelism); err != nil {
		return nil, err
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d: must be between 0 and 65535", cfg.HealthcheckPort)
	}
	if cfg.Vars == nil {
		cfg.Vars = map[string]string{}
	}
	return &cfg, nil
}
