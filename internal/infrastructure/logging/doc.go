// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output on stderr
//
// Subsystems take a *zap.Logger obtained from Component so that every line
// carries the subsystem name (connect, webview, sandbox, api, ws).
//
// Example Usage:
//
//	logger := logging.NewFromLevel("info", false)
//	logger.Info("Server starting", zap.String("port", "8000"))
//	view := webview.New(pool, handler, logger.Component("webview"))
package logging
