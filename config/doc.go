// Package config loads pipekit run configuration from a YAML file,
// a .env file and environment variables, in increasing precedence.
//
//	output: ./out
//	seed: 42
//	workers: 8
//	log:
//	  level: info
//	  format: console
//	telemetry:
//	  enabled: false
//	  endpoint: localhost:4318
//
// Environment variables use the PIPEKIT_ prefix with underscores for
// nesting, e.g. PIPEKIT_LOG_LEVEL=debug.
package config
