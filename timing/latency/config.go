// Package latency provides the functional-unit timing model: how many
// pipeline stages the multiply and memory units have, and a hard cycle
// cap for any one simulation run.
package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the functional-unit depths used to size the multiply and
// memory-access pipelines. The integer ALU is always single-cycle.
type Config struct {
	// MulStages is the depth of the multiply pipeline. Default: 3.
	MulStages int `json:"mul_stages"`

	// MemStages is the depth of the memory-access pipeline. Default: 2.
	MemStages int `json:"mem_stages"`

	// MaxCycles hard-caps a simulation run regardless of driver commands.
	// Default: 200.
	MaxCycles uint64 `json:"max_cycles"`
}

// Default returns the reference functional-unit timing: a 1-cycle integer
// ALU, a 3-stage multiply pipeline, and a 2-stage memory-access pipeline.
func Default() *Config {
	return &Config{
		MulStages: 3,
		MemStages: 2,
		MaxCycles: 200,
	}
}

// Load reads a Config from a JSON file, filling any zero field from
// Default so a partial override file is still valid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read latency config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse latency config file: %w", err)
	}
	if cfg.MulStages <= 0 {
		cfg.MulStages = Default().MulStages
	}
	if cfg.MemStages <= 0 {
		cfg.MemStages = Default().MemStages
	}
	if cfg.MaxCycles == 0 {
		cfg.MaxCycles = Default().MaxCycles
	}
	return cfg, nil
}
