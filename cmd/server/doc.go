// Package main is the entry point for the portal connect server.
//
// The server loads a brokerage connection portal in a scripted web view,
// classifies the messages the portal posts back (SUCCESS:, ERROR: and
// ABANDONED) and streams the resulting events to websocket subscribers.
//
// Routes:
//   - POST /v1/messages: classify one raw message or web view envelope
//   - POST /v1/portal/render: load a portal by URL or inline HTML
//   - GET /v1/events: websocket event stream
//   - GET /v1/status, /health, /metrics
//
// Configuration comes from environment variables (PORT, HOST, SANDBOX_*,
// PORTAL_*, LOG_*, RATE_LIMIT_*). Flags override them.
//
// Usage:
//
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// SIGINT and SIGTERM trigger a graceful shutdown.
package main
