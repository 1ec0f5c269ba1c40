// ops/config.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ops

import (
	"fmt"
	"os"
	"time"

	"groundctl/conflict"

	"gopkg.in/yaml.v3"
)

// Config collects the coordinator's tuning knobs. Zero values are filled
// in from DefaultConfig, so a config file only needs to name what it
// changes.
type Config struct {
	// FastCycle is the conflict detection/resolution cadence.
	FastCycle time.Duration `yaml:"fast_cycle"`
	// SlowCycle is the sequencing/assignment/clearance cadence.
	SlowCycle time.Duration `yaml:"slow_cycle"`
	// StaleTimeout retires aircraft whose telemetry has stopped; they are
	// treated as having left the managed area.
	StaleTimeout time.Duration `yaml:"stale_timeout"`

	// MaxCrosswind excludes runways from assignment, in knots; if every
	// runway exceeds it the least-bad one is still assigned, with a
	// caution.
	MaxCrosswind float32 `yaml:"max_crosswind"`
	// CrosswindPenaltyAbove is the crosswind component, in knots, beyond
	// which runway scores start being penalized.
	CrosswindPenaltyAbove float32 `yaml:"crosswind_penalty_above"`

	Prediction conflict.Params `yaml:"prediction"`

	// CommandRate/CommandBurst rate-limit the control output channel so a
	// slow host can't back the coordinator up.
	CommandRate  float64 `yaml:"command_rate"`
	CommandBurst int     `yaml:"command_burst"`
}

func DefaultConfig() Config {
	return Config{
		FastCycle:             100 * time.Millisecond,
		SlowCycle:             time.Second,
		StaleTimeout:          15 * time.Second,
		MaxCrosswind:          25,
		CrosswindPenaltyAbove: 10,
		Prediction:            conflict.DefaultParams(),
		CommandRate:           20,
		CommandBurst:          10,
	}
}

// LoadConfig reads a YAML config file, layered over the defaults.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
