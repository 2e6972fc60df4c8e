package config

import (
	"time"

	pkgconfig "github.com/weiawesome/cinema-chronicles/pkg/config"
	"github.com/weiawesome/cinema-chronicles/pkg/movieclient"
)

type Config struct {
	API      movieclient.Config         `mapstructure:"api"`
	Search   movieclient.SearcherConfig `mapstructure:"search"`
	Debounce time.Duration              `mapstructure:"debounce"`
	Prefs    PrefsConfig                `mapstructure:"prefs"`
	Account  AccountConfig              `mapstructure:"account"`
	Log      LogConfig                  `mapstructure:"log"`
}

// PrefsConfig locates the local preferences file.
type PrefsConfig struct {
	Path string `mapstructure:"path"`
}

// AccountConfig holds optional credentials used to log in at startup.
type AccountConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "movie-cli")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("api.base_url", "http://localhost:8095/api/v1")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("search.min_query_length", movieclient.DefaultMinQueryLength)
	v.SetDefault("search.cache_ttl", "5m")
	v.SetDefault("search.cache_capacity", 10)
	v.SetDefault("debounce", movieclient.DefaultDebounce)
	v.SetDefault("prefs.path", "cinema_prefs.json")
	v.SetDefault("log.level", "warn")

	// Bind environment variables
	v.BindEnv("api.base_url", "MOVIE_API_URL")
	v.BindEnv("api.token", "MOVIE_API_TOKEN")
	v.BindEnv("account.email", "CINEMA_EMAIL")
	v.BindEnv("account.password", "CINEMA_PASSWORD")
	v.BindEnv("prefs.path", "CINEMA_PREFS_PATH")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
