package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables.
// configPath is the directory containing config files.
// configName is the name of the config file (without extension).
// A missing config file is not an error; defaults and env vars apply.
func Load(configPath, configName string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// server.port -> SERVER_PORT
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return v, nil
}
