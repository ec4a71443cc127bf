package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds the full service configuration, loaded from a YAML file with
// BIZCHAT_* environment overrides.
type Config struct {
	Addr     string         `mapstructure:"addr"`
	DBPath   string         `mapstructure:"db_path"`
	LogLevel string         `mapstructure:"log_level"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Provider ProviderConfig `mapstructure:"provider"`
	Chat     ChatConfig     `mapstructure:"chat"`
}

type AuthConfig struct {
	// Secret signs and verifies access tokens (HS256).
	Secret          string `mapstructure:"secret"`
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes"`
}

type ProviderConfig struct {
	// Name selects the completion backend: gemini, openai or static.
	Name           string `mapstructure:"name"`
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type ChatConfig struct {
	// HistoryWindow is the number of stored turns included in each prompt.
	HistoryWindow int `mapstructure:"history_window"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8000")
	v.SetDefault("db_path", "bizchat.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl_minutes", 30)
	v.SetDefault("provider.name", "gemini")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.timeout_seconds", 30)
	v.SetDefault("chat.history_window", 10)
}

// Load reads configuration from the given file path. An empty path searches
// for a config.yaml in the working directory; not finding one is fine,
// defaults plus environment variables still apply. An explicit path that
// cannot be read is an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if strings.TrimSpace(configPath) != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BIZCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "config: read file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "config: unmarshal")
	}
	if cfg.Chat.HistoryWindow <= 0 {
		cfg.Chat.HistoryWindow = 10
	}
	return cfg, nil
}
