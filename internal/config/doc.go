// Package config provides centralized configuration management for the
// service and the gdvctl tool.
//
// # Configuration Sources
//
// Configuration is loaded in order of precedence:
//
//  1. Environment variables (highest priority), optionally seeded from .env
//  2. YAML file: $GDV_CONFIG_FILE, config.yaml or configs/config.yaml
//  3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All variables use the GDV_ prefix:
//
//	GDV_SERVER_PORT=8080
//	GDV_LOGGING_FORMAT=text
//	GDV_SOURCES_DATA_DIR=/srv/gdv/data
//	GDV_SOURCES_GDP=https://example.org/gdp.csv
//	GDV_SOURCES_RELOAD_INTERVAL=1h
//	GDV_STORAGE_DATABASE_URL=postgres://gdv@localhost/gdv
//
// # Name Overrides
//
// Extra alternate country names can only be given in YAML:
//
//	resolver:
//	  overrides:
//	    BRN: ["Brunei Darussalam"]
//
// Leaving the map out keeps the built-in override table.
package config
