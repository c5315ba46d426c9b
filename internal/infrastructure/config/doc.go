// Package config provides 12-factor configuration for the portal connect server.
//
// Configuration is loaded from environment variables with defaults.
// CLI flags in cmd/server override environment values.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Portal: Page fetching (user agent, timeout, body cap)
//   - Sandbox: Script runtime limits (timeout, pool size, timer budget)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST
//   - PORTAL_USER_AGENT, PORTAL_FETCH_TIMEOUT, PORTAL_MAX_BODY_BYTES
//   - SANDBOX_TIMEOUT, SANDBOX_POOL_SIZE, SANDBOX_MAX_TIMERS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
