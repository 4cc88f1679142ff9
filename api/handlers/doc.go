// Package handlers implements the HTTP handlers for the careerflow API:
// run lifecycle endpoints, health probes, and the shared response envelope.
package handlers
