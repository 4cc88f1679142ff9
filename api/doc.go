// Package api defines the HTTP request and response types for the
// careerflow service. Handler implementations live in api/handlers.
package api
