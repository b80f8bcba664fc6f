// Package http implements the HTTP transport layer of the daemon.
//
// It exposes route wiring, request handlers, and middleware for the small
// operational REST API: health and status probes, on-demand sync cycles, and
// the one-time bootstrap import. Request tracing and access logging are
// handled in this package before requests are delegated to the sync engine.
package http
