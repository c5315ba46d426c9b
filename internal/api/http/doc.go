/*
Package http holds the gin handlers of the portal connect API.

Routes:

	GET  /health              liveness
	GET  /v1/status           counters, sandbox pool and subscriber count
	POST /v1/messages         classify one portal message (200 event, 204 none)
	POST /v1/portal/render    run a portal page in the web view

Events produced by either POST route are broadcast to /v1/events
subscribers.
*/
package http
