// Package logger provides a structured logging interface for the EODMS DDS
// downloader.
//
// It wraps the zerolog library to provide a clean API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Optional file output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "eodmsdds/pkg/logger"
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	err := logger.Initialize(cfg)
//
//	logger.Info("Application started")
//	logger.WithField("archive_id", id).Info("Item fetched")
//	logger.WithError(err).Error("Failed to download archive")
package logger
