package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SignatureConfig describes one block's port signature, in the shape a
// graph author would hand-write to size buffers before wiring a block
// into a running engine.
type SignatureConfig struct {
	BlockName    string       `yaml:"block_name"`
	RelativeRate float64      `yaml:"relative_rate"`
	FixedRate    bool         `yaml:"fixed_rate"`
	TagPolicy    string       `yaml:"tag_policy"` // dont_propagate, all_to_all, one_to_one
	Inputs       []PortConfig `yaml:"inputs"`
	Outputs      []PortConfig `yaml:"outputs"`
}

// PortConfig is one input or output port's item-domain signature.
// History and Multiple are meaningless for output ports and ignored.
type PortConfig struct {
	ItemSize int `yaml:"item_size"`
	History  int `yaml:"history,omitempty"`
	Multiple int `yaml:"multiple,omitempty"`
}

// loadSignature reads and parses a signature file from path.
func loadSignature(path string) (*SignatureConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature file: %w", err)
	}

	var cfg SignatureConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse signature: %w", err)
	}

	if err := validateSignature(&cfg); err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}
	return &cfg, nil
}

func validateSignature(cfg *SignatureConfig) error {
	if cfg.BlockName == "" {
		return fmt.Errorf("block_name is required")
	}
	for i, p := range cfg.Inputs {
		if p.ItemSize <= 0 {
			return fmt.Errorf("inputs[%d].item_size must be > 0, got %d", i, p.ItemSize)
		}
		if p.History < 0 {
			return fmt.Errorf("inputs[%d].history must be >= 0, got %d", i, p.History)
		}
	}
	for i, p := range cfg.Outputs {
		if p.ItemSize <= 0 {
			return fmt.Errorf("outputs[%d].item_size must be > 0, got %d", i, p.ItemSize)
		}
	}
	switch cfg.TagPolicy {
	case "", "dont_propagate", "all_to_all", "one_to_one":
	default:
		return fmt.Errorf("tag_policy must be one of dont_propagate, all_to_all, one_to_one, got %q", cfg.TagPolicy)
	}
	return nil
}
