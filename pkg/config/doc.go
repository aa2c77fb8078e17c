// Package config provides application configuration management from
// environment variables with an optional YAML file overlay.
//
// # Configuration Structure
//
// Server settings:
//
//	ORGHUB_HOST="0.0.0.0"
//	ORGHUB_PORT="8080"
//	ORGHUB_HEALTH_PORT="9090"
//	ORGHUB_READ_TIMEOUT="15s"
//	ORGHUB_WRITE_TIMEOUT="15s"
//	ORGHUB_SHUTDOWN_TIMEOUT="30s"
//
// Database settings:
//
//	ORGHUB_DATABASE_URL="postgres://localhost/orghub?sslmode=disable"
//	ORGHUB_DATABASE_MAX_OPEN_CONNS="25"
//	ORGHUB_DATABASE_MAX_IDLE_CONNS="5"
//
// Cache settings:
//
//	ORGHUB_CACHE_ENABLED="true"
//	ORGHUB_REDIS_URL="localhost:6379"
//	ORGHUB_CACHE_L1_SIZE="1024"
//	ORGHUB_CACHE_TTL="5m"
//
// Observability settings:
//
//	ORGHUB_LOG_LEVEL="info"  # debug, info, warn, error
//	ORGHUB_METRICS_ENABLED="true"
//	ORGHUB_OTEL_ENABLED="false"
//	ORGHUB_OTEL_ENDPOINT="otel-collector:4317"
//
// Daemon settings:
//
//	ORGHUB_CLEANUP_SCHEDULE="@hourly"
//	ORGHUB_INVITATION_TTL="168h"
//
// When ORGHUB_CONFIG_FILE points at a YAML file, its values are applied
// first and explicit environment variables override them.
package config
