// Package observability provides structured logging, request context helpers
// and Prometheus metrics for the spacebio server and CLI.
package observability
