// Package server wires configuration, logging, metrics, the connect handler,
// the web view and the API into one HTTP server.
package server
