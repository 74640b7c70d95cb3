// Package config provides centralized configuration management for haulpulse.
// It loads configuration from multiple sources, validates it, and exposes a
// type-safe API for the rest of the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern HAUL_<SECTION>_<FIELD>:
//
//	HAUL_SERVER_PORT=8080
//	HAUL_LOGGING_LEVEL=debug
//	HAUL_PIPELINE_VOLUME_COLUMN=TONELAJE
//	HAUL_PIPELINE_REGULATION_COLUMNS="REGULACION 1,REGULACION 2"
//	HAUL_SESSIONS_TTL=30m
//
// The config file is read from HAUL_CONFIG_FILE, or config.yaml / configs/config.yaml
// when present:
//
//	pipeline:
//	  date_column: FECHA
//	  date_layout: 02-01-2006
//	  loose_carrier_matching: true
//	  carrier_aliases:
//	    "M AND Q SPA": "M&Q SPA"
//
// A carrier_aliases map in the file replaces the shipped table entirely.
package config
