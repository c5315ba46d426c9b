// Package middleware provides the gin middleware in front of the API.
//
// Middleware stack:
//   - CORS: cross-origin access for browser clients
//   - RateLimit: per-IP token bucket, idle clients swept lazily
//   - RequestID: X-Request-ID propagation with req_ ULIDs
//   - Logger: one zap line per request
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.Logger(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
