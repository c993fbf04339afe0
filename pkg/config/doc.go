// Package config provides application configuration from a YAML file and
// environment variables.
//
// # Overview
//
// Settings start from defaults, are overlaid by an optional YAML file, and are
// finally overridden by PLUGKIT_ environment variables.
//
// # Configuration Structure
//
// Pipeline settings:
//
//	PLUGKIT_PAYLOAD="hello from MAUI"
//	PLUGKIT_WORKERS="4"
//	PLUGKIT_TIMEOUT="5s"  # zero means none
//
// Isolated inspection settings:
//
//	PLUGKIT_CONTRACT="github.com/platinummonkey/plugkit/pkg/plugins.Plugin"
//	PLUGKIT_INSPECTOR_CACHE_SIZE="64"
//	PLUGKIT_INSPECTOR_CACHE_TTL="10m"
//	PLUGKIT_TEMP_DIR="/var/tmp"
//	PLUGKIT_WATCH_DEBOUNCE="200ms"
//
// Observability settings:
//
//	PLUGKIT_LOG_LEVEL="info"  # trace, debug, info, warn, error
//	PLUGKIT_METRICS_ADDR=":9090"
//	PLUGKIT_OTEL_ENABLED="true"
//	PLUGKIT_OTEL_ENDPOINT="otel-collector:4317"
//
// The same settings in a file:
//
//	inspector:
//	  cacheSize: 128
//	  cacheTTL: 10m
//	watch:
//	  debounce: 500ms
//	observability:
//	  logLevel: debug
//	  metricsAddr: ":9090"
//
// # Usage Example
//
//	cfg, err := config.Load(configPath)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	inspector := sandbox.NewInspector(cfg.Inspector.CacheSize, cfg.Inspector.CacheTTL, logger)
//
// # Related Packages
//
//   - pkg/sandbox: Uses inspector and watch configuration
//   - pkg/observability: Uses observability configuration
package config
