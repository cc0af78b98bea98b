package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "DOCENT",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "DOCENT",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (DOCENT_*)
// 3. Project config (.docent.yaml in current directory)
// 4. User config (~/.config/docent/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".docent")
		l.v.SetConfigType("yaml")

		// Project config takes precedence over user config.
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "docent"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("gateway.base_url", "https://api.openai.com/v1")
	// No meaningful default, but viper only maps DOCENT_GATEWAY_API_KEY
	// onto keys it already knows about.
	l.v.SetDefault("gateway.api_key", "")
	l.v.SetDefault("gateway.model", "gpt-4o-mini")
	l.v.SetDefault("gateway.max_tokens", 2000)
	l.v.SetDefault("gateway.temperature", 0.7)
	l.v.SetDefault("gateway.timeout", "2m")
	l.v.SetDefault("gateway.max_retries", 2)

	l.v.SetDefault("study.turns", 5)
	l.v.SetDefault("study.concurrency", 3)
	l.v.SetDefault("study.enable_followup", true)
	l.v.SetDefault("study.followup_threshold", 0.6)
	l.v.SetDefault("study.max_followups", 3)
	l.v.SetDefault("study.keywords", []string{})

	l.v.SetDefault("report.dir", ".docent/reports")

	l.v.SetDefault("history.enabled", true)
	l.v.SetDefault("history.path", ".docent/history.db")
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}
