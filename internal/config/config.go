package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	RedisStreams RedisStreamsConfig
	Cache        CacheConfig
	Mapbox       MapboxConfig
	Synthesis    SynthesisConfig
	Log          LogConfig
	Worker       WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisStreamsConfig - отдельное подключение для Redis Streams,
// чтобы сброс кеша не задевал очереди заданий
type RedisStreamsConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	RoutesCacheTTL  time.Duration
	SummaryCacheTTL time.Duration
}

type MapboxConfig struct {
	AccessToken     string
	BaseURL         string
	WalkingProfile  string
	CyclingProfile  string
	RequestTimeout  time.Duration
	RequestInterval time.Duration
}

type SynthesisConfig struct {
	RoutesPerArea int
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled       bool
	ConsumerGroup string
	MaxRetries    int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RedisStreams: RedisStreamsConfig{
			Host:     viper.GetString("REDIS_STREAMS_HOST"),
			Port:     viper.GetInt("REDIS_STREAMS_PORT"),
			Password: viper.GetString("REDIS_STREAMS_PASSWORD"),
			DB:       viper.GetInt("REDIS_STREAMS_DB"),
		},
		Cache: CacheConfig{
			RoutesCacheTTL:  time.Duration(viper.GetInt("ROUTES_CACHE_TTL")) * time.Second,
			SummaryCacheTTL: time.Duration(viper.GetInt("SUMMARY_CACHE_TTL")) * time.Second,
		},
		Mapbox: MapboxConfig{
			AccessToken:     viper.GetString("MAPBOX_ACCESS_TOKEN"),
			BaseURL:         viper.GetString("MAPBOX_BASE_URL"),
			WalkingProfile:  viper.GetString("MAPBOX_WALKING_PROFILE"),
			CyclingProfile:  viper.GetString("MAPBOX_CYCLING_PROFILE"),
			RequestTimeout:  time.Duration(viper.GetInt("MAPBOX_REQUEST_TIMEOUT")) * time.Second,
			RequestInterval: time.Duration(viper.GetInt("MAPBOX_REQUEST_INTERVAL_MS")) * time.Millisecond,
		},
		Synthesis: SynthesisConfig{
			RoutesPerArea: viper.GetInt("SYNTHESIS_ROUTES_PER_AREA"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:       viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup: viper.GetString("WORKER_CONSUMER_GROUP"),
			MaxRetries:    viper.GetInt("WORKER_MAX_RETRIES"),
		},
	}

	// Set default values if not provided
	if cfg.RedisStreams.Host == "" {
		cfg.RedisStreams.Host = cfg.Redis.Host
		cfg.RedisStreams.Port = cfg.Redis.Port
		cfg.RedisStreams.Password = cfg.Redis.Password
	}
	if cfg.Cache.RoutesCacheTTL == 0 {
		cfg.Cache.RoutesCacheTTL = 3600 * time.Second
	}
	if cfg.Cache.SummaryCacheTTL == 0 {
		cfg.Cache.SummaryCacheTTL = 3600 * time.Second
	}
	if cfg.Mapbox.BaseURL == "" {
		cfg.Mapbox.BaseURL = "https://api.mapbox.com"
	}
	if cfg.Mapbox.WalkingProfile == "" {
		cfg.Mapbox.WalkingProfile = "mapbox/walking"
	}
	if cfg.Mapbox.CyclingProfile == "" {
		cfg.Mapbox.CyclingProfile = "mapbox/cycling"
	}
	if cfg.Mapbox.RequestTimeout == 0 {
		cfg.Mapbox.RequestTimeout = 30 * time.Second
	}
	if cfg.Mapbox.RequestInterval == 0 {
		// пауза между вызовами Directions, держит нас под лимитом провайдера
		cfg.Mapbox.RequestInterval = 1500 * time.Millisecond
	}
	if cfg.Synthesis.RoutesPerArea == 0 {
		cfg.Synthesis.RoutesPerArea = 6
	}
	if cfg.Worker.ConsumerGroup == "" {
		cfg.Worker.ConsumerGroup = "route-synthesis-workers"
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}

	return cfg, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
