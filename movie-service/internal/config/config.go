package config

import (
	"time"

	pkgconfig "github.com/weiawesome/cinema-chronicles/pkg/config"
	"github.com/weiawesome/cinema-chronicles/pkg/database"
	"github.com/weiawesome/cinema-chronicles/pkg/jwt"
	"github.com/weiawesome/cinema-chronicles/pkg/middleware"
	"github.com/weiawesome/cinema-chronicles/pkg/pubsub"
	"github.com/weiawesome/cinema-chronicles/pkg/storage"
)

type Config struct {
	Server        ServerConfig          `mapstructure:"server"`
	TMDB          TMDBConfig            `mapstructure:"tmdb"`
	Database      database.Config       `mapstructure:"database"`
	Redis         RedisConfig           `mapstructure:"redis"`
	Cache         CacheConfig           `mapstructure:"cache"`
	PubSub        pubsub.Config         `mapstructure:"pubsub"`
	Storage       storage.Config        `mapstructure:"storage"`
	Elasticsearch ElasticsearchConfig   `mapstructure:"elasticsearch"`
	JWT           jwt.Config            `mapstructure:"jwt"`
	CSRF          middleware.CSRFConfig `mapstructure:"csrf"`
	Export        ExportConfig          `mapstructure:"export"`
	Metrics       MetricsConfig         `mapstructure:"metrics"`
	Log           LogConfig             `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type TMDBConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	ImageBaseURL string        `mapstructure:"image_base_url"`
	PosterSize   string        `mapstructure:"poster_size"`
	Region       string        `mapstructure:"region"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Prefix         string        `mapstructure:"prefix"`
	TTLList        time.Duration `mapstructure:"ttl_list"`
	TTLDetails     time.Duration `mapstructure:"ttl_details"`
	TTLGenres      time.Duration `mapstructure:"ttl_genres"`
	TTLStats       time.Duration `mapstructure:"ttl_stats"`
	TTLUserData    time.Duration `mapstructure:"ttl_user_data"`
	SearchTTL      time.Duration `mapstructure:"search_ttl"`
	SearchCapacity int           `mapstructure:"search_capacity"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
}

// ElasticsearchConfig enables the saved-movie index. Leave Addresses empty
// to run without it.
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
}

type ExportConfig struct {
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8095)
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p")
	v.SetDefault("tmdb.poster_size", "w300")
	v.SetDefault("tmdb.region", "US")
	v.SetDefault("tmdb.timeout", "10s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "cinema.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_threshold", "200ms")

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.prefix", "cinema")
	v.SetDefault("cache.ttl_list", "10m")
	v.SetDefault("cache.ttl_details", "1h")
	v.SetDefault("cache.ttl_genres", "1h")
	v.SetDefault("cache.ttl_stats", "5m")
	v.SetDefault("cache.ttl_user_data", "720h")
	v.SetDefault("cache.search_ttl", "5m")
	v.SetDefault("cache.search_capacity", 10)
	v.SetDefault("cache.sweep_interval", "60s")

	v.SetDefault("pubsub.driver", "redis")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.pool_size", 10)
	v.SetDefault("pubsub.redis.read_timeout", "3s")
	v.SetDefault("pubsub.redis.write_timeout", "3s")
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.group_id", "movie-service")
	v.SetDefault("pubsub.kafka.partitions", 4)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./data/exports")
	v.SetDefault("storage.local.url_prefix", "/api/v1/exports")
	v.SetDefault("storage.s3.region", "us-east-1")

	v.SetDefault("elasticsearch.addresses", []string{})
	v.SetDefault("elasticsearch.index", "movies")

	v.SetDefault("jwt.access_duration", "1h")
	v.SetDefault("jwt.refresh_duration", "168h")
	v.SetDefault("jwt.issuer", "cinema-chronicles")

	v.SetDefault("csrf.enabled", true)
	v.SetDefault("csrf.same_site", "lax")

	v.SetDefault("export.url_expiry", "24h")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.host", "0.0.0.0")
	v.SetDefault("metrics.port", 9095)

	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("tmdb.api_key", "TMDB_API_KEY")
	v.BindEnv("tmdb.base_url", "TMDB_BASE_URL")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.redis.address", "REDIS_ADDRESS")
	v.BindEnv("pubsub.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("elasticsearch.addresses", "ES_ADDRESSES")
	v.BindEnv("jwt.private_key_path", "JWT_PRIVATE_KEY_PATH")
	v.BindEnv("log.level", "LOG_LEVEL")
	pkgconfig.BindEnvs(v,
		"storage.driver",
		"storage.s3.endpoint",
		"storage.s3.bucket",
		"storage.s3.access_key_id",
		"storage.s3.secret_access_key",
		"storage.s3.use_path_style",
		"csrf.enabled",
		"csrf.secure",
		"metrics.enabled",
	)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
