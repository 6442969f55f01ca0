// Package config resolves the settings of the storage-inputs tool from an
// optional YAML file and environment variables. Command line flags are
// applied on top by the caller.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	BackendDirEnvVar  string = "STORAGE_INPUTS_BACKEND_DIR"
	LogLevelEnvVar    string = "STORAGE_INPUTS_LOG"
	ConfigFileEnvVar  string = "STORAGE_INPUTS_CONFIG"
	AutoApproveEnvVar string = "STORAGE_INPUTS_AUTO_APPROVE"

	BackendDirDefault string = "backend"
	LogLevelDefault   string = "WARN"
)

// Config is the resolved tool configuration.
type Config struct {
	// BackendDir is the directory holding the per-category resource folders.
	BackendDir string `yaml:"backend_dir"`

	// LogLevel is one of TRACE, DEBUG, INFO, WARN, ERROR or OFF.
	LogLevel string `yaml:"log_level"`

	// AutoApprove accepts the auth dependency migration without asking.
	AutoApprove bool `yaml:"auto_approve"`
}

func Default() Config {
	return Config{
		BackendDir: BackendDirDefault,
		LogLevel:   LogLevelDefault,
	}
}

// Load starts from the defaults, applies the YAML file at path (or at
// $STORAGE_INPUTS_CONFIG when path is empty) and then the environment.
// Without either no file is read.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(ConfigFileEnvVar)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	return cfg.withEnv()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	if file.BackendDir != "" {
		c.BackendDir = file.BackendDir
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	c.AutoApprove = c.AutoApprove || file.AutoApprove
	return nil
}

func (c Config) withEnv() (Config, error) {
	if dir, ok := os.LookupEnv(BackendDirEnvVar); ok && dir != "" {
		c.BackendDir = dir
	}
	if level, ok := os.LookupEnv(LogLevelEnvVar); ok && level != "" {
		c.LogLevel = level
	}
	if raw, ok := os.LookupEnv(AutoApproveEnvVar); ok {
		switch raw {
		case "1", "true", "TRUE", "yes":
			c.AutoApprove = true
		case "", "0", "false", "FALSE", "no":
			c.AutoApprove = false
		default:
			return Config{}, fmt.Errorf("invalid %s value %q", AutoApproveEnvVar, raw)
		}
	}
	return c, nil
}
