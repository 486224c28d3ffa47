// SPDX-License-Identifier: MPL-2.0

package config

import "time"

// Config is the full hbcore configuration.
type Config struct {
	Model     ModelConfig     `mapstructure:"model"`
	Adjacency AdjacencyConfig `mapstructure:"adjacency"`
	Schema    SchemaConfig    `mapstructure:"schema"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Log       LogConfig       `mapstructure:"log"`
}

// ModelConfig holds defaults for newly created models.
type ModelConfig struct {
	Units          string  `mapstructure:"units"`
	Tolerance      float64 `mapstructure:"tolerance"`
	AngleTolerance float64 `mapstructure:"angle_tolerance"`
}

// AdjacencyConfig configures the adjacency solver.
type AdjacencyConfig struct {
	TieBreak       string `mapstructure:"tie_break"`
	ResetUnmatched bool   `mapstructure:"reset_unmatched"`
}

// SchemaConfig configures document decoding.
type SchemaConfig struct {
	MaxDocumentSize int64 `mapstructure:"max_document_size"`
	ValidateCUE     bool  `mapstructure:"validate_cue"`
}

// EngineConfig configures script evaluation.
type EngineConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Units:          "Meters",
			Tolerance:      0.01,
			AngleTolerance: 1.0,
		},
		Adjacency: AdjacencyConfig{
			TieBreak: "largest_overlap",
		},
		Schema: SchemaConfig{
			MaxDocumentSize: 64 << 20,
			ValidateCUE:     true,
		},
		Engine: EngineConfig{
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}
