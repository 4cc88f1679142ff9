// Package providers holds generation-service client configuration shared by
// the concrete provider implementations.
package providers

import "time"

// OpenAIConfig configures an OpenAI-compatible chat-completions endpoint.
type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key" json:"api_key"`
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Model   string        `yaml:"model" json:"model"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}
