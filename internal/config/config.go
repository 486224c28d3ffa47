// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/hbcore/internal/cueutil"
	"github.com/chazu/hbcore/internal/logging"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name of the configuration file.
	ConfigFileName = "hbcore"
	// ConfigFileExt is the configuration file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. HBCORE_MODEL_TOLERANCE.
	EnvPrefix = "HBCORE"
)

//go:embed config_schema.cue
var configSchema string

var schema = cueutil.MustCompile(configSchema)

var logger = logging.New("config")

func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("model.units", defaults.Model.Units)
	v.SetDefault("model.tolerance", defaults.Model.Tolerance)
	v.SetDefault("model.angle_tolerance", defaults.Model.AngleTolerance)
	v.SetDefault("adjacency.tie_break", defaults.Adjacency.TieBreak)
	v.SetDefault("adjacency.reset_unmatched", defaults.Adjacency.ResetUnmatched)
	v.SetDefault("schema.max_document_size", defaults.Schema.MaxDocumentSize)
	v.SetDefault("schema.validate_cue", defaults.Schema.ValidateCUE)
	v.SetDefault("engine.timeout", defaults.Engine.Timeout)
	v.SetDefault("log.level", defaults.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", fmt.Errorf("load configuration: %w", err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		dir := opts.ConfigDirPath
		if dir == "" {
			dir = "."
		}
		cuePath := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", fmt.Errorf("load configuration: %w", err)
			}
			resolvedPath = cuePath
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, "", err
	}

	logger.Debug("configuration loaded", "path", resolvedPath, "tolerance", cfg.Model.Tolerance)
	return &cfg, resolvedPath, nil
}

// loadCUEIntoViper validates a CUE file against #Config and merges its
// contents into v. Fields are optional, so validation is non-concrete.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	unified, err := schema.Validate(data, "#Config", cueutil.Options{Filename: path})
	if err != nil {
		return err
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// validate checks values that can arrive through the environment and
// therefore bypass the CUE schema.
func validate(cfg *Config) error {
	if cfg.Model.Tolerance <= 0 {
		return fmt.Errorf("model.tolerance must be positive, got %g", cfg.Model.Tolerance)
	}
	if cfg.Model.AngleTolerance <= 0 || cfg.Model.AngleTolerance > 90 {
		return fmt.Errorf("model.angle_tolerance must be in (0, 90], got %g", cfg.Model.AngleTolerance)
	}
	switch cfg.Adjacency.TieBreak {
	case "largest_overlap", "first_match":
	default:
		return fmt.Errorf("adjacency.tie_break: unknown strategy %q", cfg.Adjacency.TieBreak)
	}
	if cfg.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be positive, got %s", cfg.Engine.Timeout)
	}
	return nil
}

// Apply puts the process-wide settings of cfg into effect. Today that is
// the level of every component logger.
func Apply(cfg *Config) error {
	if err := logging.SetLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
