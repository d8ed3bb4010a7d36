// Package config provides configuration management for orchard.
//
// Configuration is loaded from an optional YAML file and then overlaid by
// environment variables. Every attribute remembers where its value came
// from ("default", "file" or "environment").
//
// # Configuration Sources
//
//   - $ORCHARD_CONFIG_PATH/orchard.yml (default /etc/orchard/config)
//   - ORCHARD_* environment variables
//   - DATABASE_URL, PORT and BIND_ADDRESS as fallbacks
//
// # Key Configuration Options
//
//   - ORCHARD_DATABASE_URL / DATABASE_URL: store connection
//   - ORCHARD_LOG_LEVEL, ORCHARD_LOG_FORMAT: logging
//   - ORCHARD_LIST_LIMIT_MAX: cap for limit query parameters
//   - ORCHARD_AUDIT_ENABLED, ORCHARD_AUDIT_DATABASE: audit trail
//   - ORCHARD_METRICS_ENABLED: /metrics endpoint
package config
