package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration for one binary.
//
// Values are resolved in this order, later sources winning: defaults set by
// the caller, <configPath>/<configName>.yaml, environment variables. A .env
// file in the working directory (or the file named by DOTENV_PATH) is loaded
// into the process environment first; variables that are already set are not
// overridden. Keys map to env names by replacing "." with "_".
func Load(configPath, configName string) (*viper.Viper, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

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

// BindEnvs binds each key to its upper-cased env var, e.g. "tmdb.api_key" to
// TMDB_API_KEY, so Unmarshal sees env-only values.
func BindEnvs(v *viper.Viper, keys ...string) {
	for _, k := range keys {
		_ = v.BindEnv(k, strings.ToUpper(strings.ReplaceAll(k, ".", "_")))
	}
}

func loadDotenv() error {
	path := GetEnv("DOTENV_PATH", ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// GetEnv returns environment variable value or default.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
