// Package config provides centralized configuration management for the
// ridership service and CLI.
//
// # Configuration Sources
//
// Configuration is layered, later sources winning:
//
//	1. Default values
//	2. config.yaml (or the file named by RIDERSHIP_CONFIG)
//	3. Environment variables
//
// # Environment Variables
//
// Variables are namespaced with RIDERSHIP_ and follow the struct nesting:
//
//	RIDERSHIP_SERVER_PORT=8080
//	RIDERSHIP_DATASET_FILE=data/subway_2025_10.csv
//	RIDERSHIP_DATASET_ENCODINGS=cp949,utf-8-sig
//	RIDERSHIP_SESSION_TTL=30m
//	RIDERSHIP_LOGGING_FORMAT=text
//
// # Validation
//
// Struct tags are checked with go-playground/validator after all sources are
// merged. An invalid configuration fails Load; nothing is silently corrected
// except the case of logging level and format.
package config
