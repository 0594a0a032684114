package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Env       string
	LogLevel  string
	Server    ServerConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Cache     CacheConfig
	Catalog   CatalogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// StoreConfig selects the product store backend
type StoreConfig struct {
	Driver string
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string
}

// CacheConfig holds caching TTL configuration
type CacheConfig struct {
	FacetsTTL   time.Duration
	TopListsTTL time.Duration
}

// CatalogConfig holds product query defaults
type CatalogConfig struct {
	DefaultLimit int
	MaxLimit     int
	TopLimit     int
	StrictSort   bool
}

// RateLimitConfig holds the fixed-window limiter settings; Requests <= 0 disables it
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from environment variables and returns a Config struct
func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	viper.SetDefault("STORE_DRIVER", DriverMongo)

	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "furniture_catalog")
	viper.SetDefault("MONGO_TIMEOUT", "10s")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "furniture_catalog")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("NATS_URL", "nats://localhost:4222")

	viper.SetDefault("CACHE_TTL_FACETS", "600s")
	viper.SetDefault("CACHE_TTL_TOP_LISTS", "60s")

	viper.SetDefault("CATALOG_DEFAULT_LIMIT", 12)
	viper.SetDefault("CATALOG_MAX_LIMIT", 100)
	viper.SetDefault("CATALOG_TOP_LIMIT", 10)
	viper.SetDefault("CATALOG_STRICT_SORT", false)

	viper.SetDefault("RATE_LIMIT_REQUESTS", 300)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")

	durations := map[string]*time.Duration{}
	var (
		readTimeout, writeTimeout, shutdownTimeout time.Duration
		mongoTimeout, connMaxLifetime              time.Duration
		facetsTTL, topListsTTL, rateLimitWindow    time.Duration
	)
	durations["SERVER_READ_TIMEOUT"] = &readTimeout
	durations["SERVER_WRITE_TIMEOUT"] = &writeTimeout
	durations["SERVER_SHUTDOWN_TIMEOUT"] = &shutdownTimeout
	durations["MONGO_TIMEOUT"] = &mongoTimeout
	durations["DB_CONN_MAX_LIFETIME"] = &connMaxLifetime
	durations["CACHE_TTL_FACETS"] = &facetsTTL
	durations["CACHE_TTL_TOP_LISTS"] = &topListsTTL
	durations["RATE_LIMIT_WINDOW"] = &rateLimitWindow

	for key, dst := range durations {
		d, err := time.ParseDuration(viper.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}

	driver := strings.ToLower(viper.GetString("STORE_DRIVER"))
	switch driver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER: %q", driver)
	}

	defaultLimit := viper.GetInt("CATALOG_DEFAULT_LIMIT")
	if defaultLimit <= 0 {
		return nil, fmt.Errorf("invalid CATALOG_DEFAULT_LIMIT: %d", defaultLimit)
	}
	maxLimit := viper.GetInt("CATALOG_MAX_LIMIT")
	if maxLimit > 0 && maxLimit < defaultLimit {
		return nil, fmt.Errorf("CATALOG_MAX_LIMIT (%d) is below CATALOG_DEFAULT_LIMIT (%d)", maxLimit, defaultLimit)
	}

	allowedOrigins := strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	config := &Config{
		Env:      viper.GetString("ENV"),
		LogLevel: viper.GetString("LOG_LEVEL"),
		Server: ServerConfig{
			Port:            viper.GetString("SERVER_PORT"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			AllowedOrigins:  allowedOrigins,
		},
		Store: StoreConfig{
			Driver: driver,
		},
		Mongo: MongoConfig{
			URI:      viper.GetString("MONGO_URI"),
			Database: viper.GetString("MONGO_DATABASE"),
			Timeout:  mongoTimeout,
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		NATS: NATSConfig{
			URL: viper.GetString("NATS_URL"),
		},
		Cache: CacheConfig{
			FacetsTTL:   facetsTTL,
			TopListsTTL: topListsTTL,
		},
		Catalog: CatalogConfig{
			DefaultLimit: defaultLimit,
			MaxLimit:     maxLimit,
			TopLimit:     viper.GetInt("CATALOG_TOP_LIMIT"),
			StrictSort:   viper.GetBool("CATALOG_STRICT_SORT"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   rateLimitWindow,
		},
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
