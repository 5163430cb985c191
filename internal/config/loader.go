package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. MILEPOST_CLAUDE_BINARY_PATH.
const EnvPrefix = "MILEPOST"

// EnvConfigPath names an explicit config file, bypassing discovery.
const EnvConfigPath = "MILEPOST_CONFIG_PATH"

// Loader loads configuration through Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a [Loader] with defaults, env binding, and the config
// file search paths registered.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigName("milepost")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load reads configuration and returns the merged [Config].
//
// A missing config file is not an error; the defaults apply. A config file
// that exists but fails to parse is an error, never silently ignored.
func (l *Loader) Load() (*Config, error) {
	defaults := DefaultConfig()
	l.setDefaults(defaults)

	if explicit := os.Getenv(EnvConfigPath); explicit != "" {
		l.v.SetConfigFile(explicit)
	} else {
		if userDir, err := os.UserConfigDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(userDir, "milepost"))
		}
		l.v.AddConfigPath(".")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Viper merges maps shallowly; restore default prompts the file did not
	// override.
	if cfg.Prompts == nil {
		cfg.Prompts = defaults.Prompts
	} else {
		for name, pc := range defaults.Prompts {
			if existing, ok := cfg.Prompts[name]; !ok || existing.Template == "" {
				merged := pc
				if ok && existing.Model != "" {
					merged.Model = existing.Model
				}
				cfg.Prompts[name] = merged
			}
		}
	}

	return cfg, nil
}

// setDefaults registers every default so env-only overrides still resolve.
func (l *Loader) setDefaults(c *Config) {
	l.v.SetDefault("plan_dir", c.PlanDir)
	l.v.SetDefault("resume_state_path", c.ResumeStatePath)
	l.v.SetDefault("review.max_rounds", c.Review.MaxRounds)
	l.v.SetDefault("review.manifest_path", c.Review.ManifestPath)
	l.v.SetDefault("checks.commands", c.Checks.Commands)
	l.v.SetDefault("claude.binary_path", c.Claude.BinaryPath)
	l.v.SetDefault("claude.model", c.Claude.Model)
	l.v.SetDefault("output.truncate_lines", c.Output.TruncateLines)
	l.v.SetDefault("output.truncate_length", c.Output.TruncateLength)
}
