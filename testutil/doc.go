// Package testutil provides shared test helpers: bounded test contexts,
// lightweight assertions, and JSON conveniences.
//
// Provider doubles live in testutil/mocks; canned LLM responses live in
// testutil/fixtures.
package testutil
