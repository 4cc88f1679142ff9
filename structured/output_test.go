package structured

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerflow/careerflow/llm"
	"github.com/careerflow/careerflow/types"
)

type fakeProvider struct {
	content string
	err     error
	lastReq *llm.ChatRequest
}

func (f *fakeProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{
		Model: req.Model,
		Choices: []llm.ChatChoice{
			{Message: llm.Message{Role: llm.RoleAssistant, Content: f.content}},
		},
	}, nil
}

func (f *fakeProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

type person struct {
	Name string  `json:"name"`
	Age  float64 `json:"age"`
}

func personSchema() *Schema {
	return Object("a person", map[string]*Schema{
		"name": String("full name"),
		"age":  {Type: TypeNumber, Description: "age in years"},
	})
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain object",
			input:    `{"name": "Ada"}`,
			expected: `{"name": "Ada"}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"name\": \"Ada\"}\n```",
			expected: `{"name": "Ada"}`,
		},
		{
			name:     "bare fence",
			input:    "```\n{\"name\": \"Ada\"}\n```",
			expected: `{"name": "Ada"}`,
		},
		{
			name:     "surrounding prose",
			input:    "Here is the result: {\"name\": \"Ada\"} hope it helps",
			expected: `{"name": "Ada"}`,
		},
		{
			name:     "array with prose",
			input:    "The list: [1, 2, 3]",
			expected: `[1, 2, 3]`,
		},
		{
			name:     "no json at all",
			input:    "sorry, cannot help",
			expected: "sorry, cannot help",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSON(tt.input))
		})
	}
}

func TestParseValid(t *testing.T) {
	out, err := NewOutput[person](&fakeProvider{}, "m", personSchema())
	require.NoError(t, err)

	v, perr := out.Parse("```json\n{\"name\": \"Ada\", \"age\": 36}\n```")
	require.NoError(t, perr)
	assert.Equal(t, "Ada", v.Name)
	assert.Equal(t, 36.0, v.Age)
}

func TestParseMissingRequired(t *testing.T) {
	out, err := NewOutput[person](&fakeProvider{}, "m", personSchema())
	require.NoError(t, err)

	_, perr := out.Parse(`{"name": "Ada"}`)
	require.Error(t, perr)
	assert.Contains(t, perr.Error(), "age")
}

func TestGenerateEmbedsSchemaAndValidates(t *testing.T) {
	provider := &fakeProvider{content: `{"name": "Ada", "age": 36}`}
	out, err := NewOutput[person](provider, "test-model", personSchema())
	require.NoError(t, err)

	v, gerr := out.Generate(context.Background(), "Extract the person.", "Ada, 36.", 0)
	require.NoError(t, gerr)
	assert.Equal(t, "Ada", v.Name)

	req := provider.lastReq
	require.NotNil(t, req)
	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[0].Content, "JSON Schema")
	assert.Contains(t, req.Messages[0].Content, "Extract the person.")
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, "json_object", req.ResponseFormat.Type)
}

func TestGenerateEmptyResponse(t *testing.T) {
	out, err := NewOutput[person](&fakeProvider{content: ""}, "m", personSchema())
	require.NoError(t, err)

	_, gerr := out.Generate(context.Background(), "", "u", 0)
	require.Error(t, gerr)

	code, ok := types.GetErrorCode(gerr)
	require.True(t, ok)
	assert.Equal(t, types.ErrOutputParse, code)
	assert.True(t, types.IsRetryable(gerr))
}

func TestGenerateSchemaViolation(t *testing.T) {
	out, err := NewOutput[person](&fakeProvider{content: `{"name": 42, "age": "old"}`}, "m", personSchema())
	require.NoError(t, err)

	_, gerr := out.Generate(context.Background(), "", "u", 0)
	require.Error(t, gerr)

	code, ok := types.GetErrorCode(gerr)
	require.True(t, ok)
	assert.Equal(t, types.ErrSchemaValidation, code)
	assert.True(t, types.IsRetryable(gerr))
}

func TestNewOutputNilArgs(t *testing.T) {
	_, err := NewOutput[person](nil, "m", personSchema())
	assert.Error(t, err)

	_, err = NewOutput[person](&fakeProvider{}, "m", nil)
	assert.Error(t, err)
}
