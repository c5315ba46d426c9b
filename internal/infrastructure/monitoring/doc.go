/*
Package monitoring provides Prometheus metrics for the portal connect server.

# Overview

Metrics live on a private registry so that several servers (and tests) can
coexist in one process. The collector tracks:

- HTTP requests (count, latency) keyed by route template
- Portal messages by outcome (SUCCESS, ERROR, ABANDONED, none, panic)
- Portal renders by status and script run time
- Event stream connections and frames

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	handler := connect.NewHandler(logger, connect.WithObserver(metrics))
*/
package monitoring
