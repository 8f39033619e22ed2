// Package logger provides structured logging for pipekit using zerolog.
//
// It supports JSON and console output, level configuration from config or
// environment, and component-scoped loggers with structured fields.
//
// # Usage
//
//	log := logger.NewDefault("pipekit").WithComponent("pipeline")
//	log.Info("run finished", logger.Fields(logger.FieldItems, 42))
package logger
