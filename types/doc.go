// Package types holds shared type contracts for the careerflow service.
//
// It is the lowest-level package in the module and depends on nothing
// internal, so llm, workflow, pipeline, and api can all share the same
// structured error vocabulary without import cycles.
//
// The central type is [Error]: a coded error carrying an HTTP status hint,
// a retryable flag, and an optional provider tag, built with [NewError] and
// the With* chain.
package types
