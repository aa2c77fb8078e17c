package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orghub/orghub/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Redis / membership cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`

	// Background daemon configuration
	Daemon DaemonConfig `yaml:"daemon"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds membership cache settings
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	RedisURL      string        `yaml:"redis_url"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	L1Size        int           `yaml:"l1_size"`
	TTL           time.Duration `yaml:"ttl"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// DaemonConfig holds background maintenance settings
type DaemonConfig struct {
	CleanupSchedule string        `yaml:"cleanup_schedule"`
	InvitationTTL   time.Duration `yaml:"invitation_ttl"`
}

// LoadConfig loads configuration from environment variables. When
// ORGHUB_CONFIG_FILE is set, values from that YAML file are applied first
// and the environment overrides them.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Cache:         loadCacheConfig(),
		Observability: loadObservabilityConfig(),
		Daemon:        loadDaemonConfig(),
	}

	if path := getEnv("ORGHUB_CONFIG_FILE", ""); path != "" {
		fileCfg, err := loadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		// Environment wins over file: re-apply env on top of file values by
		// loading file first, then overlaying the env-derived config where set.
		merged := *fileCfg
		mergeEnvOverrides(&merged, cfg)
		cfg = &merged
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadConfigFile parses a YAML config file, starting from the defaults so
// unspecified keys keep their default values.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:        defaultServerConfig(),
		Database:      defaultDatabaseConfig(),
		Cache:         defaultCacheConfig(),
		Observability: defaultObservabilityConfig(),
		Daemon:        defaultDaemonConfig(),
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// mergeEnvOverrides copies env-set values over the file-derived config.
// Only keys explicitly present in the environment are copied.
func mergeEnvOverrides(dst, env *Config) {
	if isEnvSet("ORGHUB_HOST") {
		dst.Server.Host = env.Server.Host
	}
	if isEnvSet("ORGHUB_PORT") {
		dst.Server.Port = env.Server.Port
	}
	if isEnvSet("ORGHUB_HEALTH_PORT") {
		dst.Server.HealthPort = env.Server.HealthPort
	}
	if isEnvSet("ORGHUB_READ_TIMEOUT") {
		dst.Server.ReadTimeout = env.Server.ReadTimeout
	}
	if isEnvSet("ORGHUB_WRITE_TIMEOUT") {
		dst.Server.WriteTimeout = env.Server.WriteTimeout
	}
	if isEnvSet("ORGHUB_IDLE_TIMEOUT") {
		dst.Server.IdleTimeout = env.Server.IdleTimeout
	}
	if isEnvSet("ORGHUB_SHUTDOWN_TIMEOUT") {
		dst.Server.ShutdownTimeout = env.Server.ShutdownTimeout
	}
	if isEnvSet("ORGHUB_DATABASE_URL") {
		dst.Database.URL = env.Database.URL
	}
	if isEnvSet("ORGHUB_DATABASE_MAX_OPEN_CONNS") {
		dst.Database.MaxOpenConns = env.Database.MaxOpenConns
	}
	if isEnvSet("ORGHUB_DATABASE_MAX_IDLE_CONNS") {
		dst.Database.MaxIdleConns = env.Database.MaxIdleConns
	}
	if isEnvSet("ORGHUB_DATABASE_CONN_MAX_LIFETIME") {
		dst.Database.ConnMaxLifetime = env.Database.ConnMaxLifetime
	}
	if isEnvSet("ORGHUB_CACHE_ENABLED") {
		dst.Cache.Enabled = env.Cache.Enabled
	}
	if isEnvSet("ORGHUB_REDIS_URL") {
		dst.Cache.RedisURL = env.Cache.RedisURL
	}
	if isEnvSet("ORGHUB_REDIS_PASSWORD") {
		dst.Cache.RedisPassword = env.Cache.RedisPassword
	}
	if isEnvSet("ORGHUB_REDIS_DB") {
		dst.Cache.RedisDB = env.Cache.RedisDB
	}
	if isEnvSet("ORGHUB_CACHE_L1_SIZE") {
		dst.Cache.L1Size = env.Cache.L1Size
	}
	if isEnvSet("ORGHUB_CACHE_TTL") {
		dst.Cache.TTL = env.Cache.TTL
	}
	if isEnvSet("ORGHUB_LOG_LEVEL") {
		dst.Observability.LogLevel = env.Observability.LogLevel
	}
	if isEnvSet("ORGHUB_METRICS_ENABLED") {
		dst.Observability.MetricsEnabled = env.Observability.MetricsEnabled
	}
	if isEnvSet("ORGHUB_OTEL_ENABLED") {
		dst.Observability.OTelEnabled = env.Observability.OTelEnabled
	}
	if isEnvSet("ORGHUB_OTEL_ENDPOINT") {
		dst.Observability.OTelEndpoint = env.Observability.OTelEndpoint
	}
	if isEnvSet("ORGHUB_OTEL_SERVICE_NAME") {
		dst.Observability.OTelServiceName = env.Observability.OTelServiceName
	}
	if isEnvSet("ORGHUB_OTEL_SERVICE_VERSION") {
		dst.Observability.OTelServiceVersion = env.Observability.OTelServiceVersion
	}
	if isEnvSet("ORGHUB_OTEL_INSECURE") {
		dst.Observability.OTelInsecure = env.Observability.OTelInsecure
	}
	if isEnvSet("ORGHUB_CLEANUP_SCHEDULE") {
		dst.Daemon.CleanupSchedule = env.Daemon.CleanupSchedule
	}
	if isEnvSet("ORGHUB_INVITATION_TTL") {
		dst.Daemon.InvitationTTL = env.Daemon.InvitationTTL
	}
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            "8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		HealthPort:      "9090",
	}
}

func defaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             "postgres://localhost/orghub?sslmode=disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func defaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:  false,
		RedisURL: "localhost:6379",
		RedisDB:  0,
		L1Size:   1024,
		TTL:      5 * time.Minute,
	}
}

func defaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           "info",
		MetricsEnabled:     true,
		OTelEnabled:        false,
		OTelEndpoint:       "localhost:4317",
		OTelServiceName:    "orghub",
		OTelServiceVersion: "1.0.0",
		OTelInsecure:       true,
	}
}

func defaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		CleanupSchedule: "@hourly",
		InvitationTTL:   7 * 24 * time.Hour,
	}
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	def := defaultServerConfig()
	return ServerConfig{
		Host:            getEnv("ORGHUB_HOST", def.Host),
		Port:            getEnv("ORGHUB_PORT", def.Port),
		ReadTimeout:     getEnvDuration("ORGHUB_READ_TIMEOUT", def.ReadTimeout),
		WriteTimeout:    getEnvDuration("ORGHUB_WRITE_TIMEOUT", def.WriteTimeout),
		IdleTimeout:     getEnvDuration("ORGHUB_IDLE_TIMEOUT", def.IdleTimeout),
		ShutdownTimeout: getEnvDuration("ORGHUB_SHUTDOWN_TIMEOUT", def.ShutdownTimeout),
		HealthPort:      getEnv("ORGHUB_HEALTH_PORT", def.HealthPort),
	}
}

// loadDatabaseConfig loads database configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	def := defaultDatabaseConfig()
	return DatabaseConfig{
		URL:             getEnv("ORGHUB_DATABASE_URL", def.URL),
		MaxOpenConns:    getEnvInt("ORGHUB_DATABASE_MAX_OPEN_CONNS", def.MaxOpenConns),
		MaxIdleConns:    getEnvInt("ORGHUB_DATABASE_MAX_IDLE_CONNS", def.MaxIdleConns),
		ConnMaxLifetime: getEnvDuration("ORGHUB_DATABASE_CONN_MAX_LIFETIME", def.ConnMaxLifetime),
	}
}

// loadCacheConfig loads cache configuration from environment
func loadCacheConfig() CacheConfig {
	def := defaultCacheConfig()
	return CacheConfig{
		Enabled:       getEnvBool("ORGHUB_CACHE_ENABLED", def.Enabled),
		RedisURL:      getEnv("ORGHUB_REDIS_URL", def.RedisURL),
		RedisPassword: getEnv("ORGHUB_REDIS_PASSWORD", def.RedisPassword),
		RedisDB:       getEnvInt("ORGHUB_REDIS_DB", def.RedisDB),
		L1Size:        getEnvInt("ORGHUB_CACHE_L1_SIZE", def.L1Size),
		TTL:           getEnvDuration("ORGHUB_CACHE_TTL", def.TTL),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	def := defaultObservabilityConfig()
	return ObservabilityConfig{
		LogLevel:           getEnv("ORGHUB_LOG_LEVEL", def.LogLevel),
		MetricsEnabled:     getEnvBool("ORGHUB_METRICS_ENABLED", def.MetricsEnabled),
		OTelEnabled:        getEnvBool("ORGHUB_OTEL_ENABLED", def.OTelEnabled),
		OTelEndpoint:       getEnv("ORGHUB_OTEL_ENDPOINT", def.OTelEndpoint),
		OTelServiceName:    getEnv("ORGHUB_OTEL_SERVICE_NAME", def.OTelServiceName),
		OTelServiceVersion: getEnv("ORGHUB_OTEL_SERVICE_VERSION", def.OTelServiceVersion),
		OTelInsecure:       getEnvBool("ORGHUB_OTEL_INSECURE", def.OTelInsecure),
	}
}

// loadDaemonConfig loads daemon configuration from environment
func loadDaemonConfig() DaemonConfig {
	def := defaultDaemonConfig()
	return DaemonConfig{
		CleanupSchedule: getEnv("ORGHUB_CLEANUP_SCHEDULE", def.CleanupSchedule),
		InvitationTTL:   getEnvDuration("ORGHUB_INVITATION_TTL", def.InvitationTTL),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("max idle connections cannot exceed max open connections")
	}

	if c.Cache.Enabled {
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("redis URL is required when caching is enabled")
		}
		if c.Cache.L1Size <= 0 {
			return fmt.Errorf("L1 cache size must be positive")
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache TTL must be positive")
		}
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	if c.Daemon.CleanupSchedule == "" {
		return fmt.Errorf("cleanup schedule is required")
	}
	if c.Daemon.InvitationTTL <= 0 {
		return fmt.Errorf("invitation TTL must be positive")
	}

	return nil
}

// ParsedLogLevel returns the observability log level for the configured string.
func (c *ObservabilityConfig) ParsedLogLevel() observability.LogLevel {
	return observability.ParseLogLevel(c.LogLevel)
}

func isEnvSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
