package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/careerflow/careerflow/llm"
	"github.com/careerflow/careerflow/types"
)

// Output generates schema-conforming values of T from a provider. The
// schema is embedded in a system prompt and the response is extracted,
// parsed, and validated; any mismatch surfaces as a retryable error.
type Output[T any] struct {
	schema    *Schema
	provider  llm.Provider
	validator Validator
	model     string
}

// NewOutput creates a handler for type T with an explicitly declared schema.
func NewOutput[T any](provider llm.Provider, model string, schema *Schema) (*Output[T], error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if schema == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}
	return &Output[T]{
		schema:    schema,
		provider:  provider,
		validator: NewValidator(),
		model:     model,
	}, nil
}

// Schema returns the schema used for validation.
func (o *Output[T]) Schema() *Schema {
	return o.schema
}

// Generate runs a completion with the given system and user instructions and
// returns the validated value.
func (o *Output[T]) Generate(ctx context.Context, system, user string, temperature float32) (*T, error) {
	schemaJSON, err := o.schema.ToJSONIndent()
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: o.buildSystemPrompt(system, schemaJSON)},
		{Role: llm.RoleUser, Content: user},
	}

	req := &llm.ChatRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: temperature,
		ResponseFormat: &llm.ResponseFormat{
			Type:   "json_object",
			Schema: o.schema,
		},
	}

	resp, err := o.provider.Completion(ctx, req)
	if err != nil {
		return nil, err
	}

	raw := llm.FirstContent(resp)
	if raw == "" {
		return nil, types.NewError(types.ErrOutputParse, "empty completion response").
			WithProvider(o.provider.Name()).WithRetryable(true)
	}

	value, verr := o.Parse(raw)
	if verr != nil {
		return nil, types.NewError(types.ErrSchemaValidation, "structured output rejected").
			WithCause(verr).WithProvider(o.provider.Name()).WithRetryable(true)
	}
	return value, nil
}

func (o *Output[T]) buildSystemPrompt(system, schemaJSON string) string {
	var sb strings.Builder
	if system != "" {
		sb.WriteString(system)
		sb.WriteString("\n\n")
	}
	sb.WriteString("You MUST respond with valid JSON that conforms to the schema below.\n")
	sb.WriteString("Do NOT include any text before or after the JSON.\n")
	sb.WriteString("Ensure all required fields are present and have valid values.\n\n")
	sb.WriteString("JSON Schema:\n```json\n")
	sb.WriteString(schemaJSON)
	sb.WriteString("\n```\n\nRespond with ONLY the JSON object.")
	return sb.String()
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ExtractJSON pulls a JSON document out of a response that may wrap it in
// markdown fences or surrounding prose.
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.Contains(response, "```") {
		if matches := fencedJSON.FindStringSubmatch(response); len(matches) > 1 {
			return strings.TrimSpace(matches[1])
		}
	}

	if start, end := strings.Index(response, "{"), strings.LastIndex(response, "}"); start >= 0 && end > start {
		return response[start : end+1]
	}
	if start, end := strings.Index(response, "["), strings.LastIndex(response, "]"); start >= 0 && end > start {
		return response[start : end+1]
	}
	return response
}

// Parse extracts, unmarshals, and validates a raw response into T.
func (o *Output[T]) Parse(raw string) (*T, error) {
	jsonStr := ExtractJSON(raw)

	if err := o.validator.Validate([]byte(jsonStr), o.schema); err != nil {
		return nil, err
	}

	var value T
	if err := json.Unmarshal([]byte(jsonStr), &value); err != nil {
		return nil, &ValidationErrors{
			Errors: []ParseError{{Message: fmt.Sprintf("JSON parse error: %v", err)}},
		}
	}
	return &value, nil
}
