package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys.
const EnvPrefix = "ESADAPTER"

// Config represents the configuration implementation.
type Config struct {
	AppName       string
	RunMode       string
	Logger        *Logger        `validate:"required"`
	Elasticsearch *Elasticsearch `validate:"required"`
	Observes      *Observes      `validate:"required"`
	Viper         *viper.Viper   `validate:"-"`
}

// LoadConfig loads the configuration from the file.
// An empty path searches the default locations for a file named "config",
// and finding none leaves the environment as the only source.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		ex, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		v.SetConfigName("config")
		v.AddConfigPath("/etc/esadapter")
		v.AddConfigPath("$HOME/.esadapter")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(ex))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := GetConfig(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfig builds the configuration from an already populated viper instance.
func GetConfig(v *viper.Viper) *Config {
	return &Config{
		AppName:       getStringOrDefault(v, "app_name", "esadapter"),
		RunMode:       getStringOrDefault(v, "run_mode", "production"),
		Logger:        getLoggerConfig(v),
		Elasticsearch: getElasticsearchConfig(v),
		Observes:      getObservesConfig(v),
		Viper:         v,
	}
}
