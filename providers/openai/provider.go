// Package openai implements the llm.Provider contract over any
// OpenAI-compatible chat-completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/careerflow/careerflow/llm"
	"github.com/careerflow/careerflow/providers"
	"github.com/careerflow/careerflow/types"
)

// Provider is an OpenAI-compatible chat-completions client.
type Provider struct {
	cfg    providers.OpenAIConfig
	client *http.Client
	logger *zap.Logger
}

// New creates a Provider. BaseURL defaults to the OpenAI API.
func New(cfg providers.OpenAIConfig, logger *zap.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("component", "openai_provider")),
	}
}

func (p *Provider) Name() string { return "openai" }

// Wire types for the chat-completions endpoint.

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float32         `json:"temperature"`
	TopP           float32         `json:"top_p,omitempty"`
	Stop           []string        `json:"stop,omitempty"`
	ResponseFormat any             `json:"response_format,omitempty"`
}

type openAIChoice struct {
	Index        int           `json:"index"`
	FinishReason string        `json:"finish_reason"`
	Message      openAIMessage `json:"message"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAIResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
	Usage   *openAIUsage   `json:"usage,omitempty"`
	Created int64          `json:"created,omitempty"`
}

type openAIErrorResp struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func (p *Provider) buildHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	body := openAIRequest{
		Model:       model,
		Messages:    convertMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" {
		// json_object mode is widely supported; the schema still rides in
		// the prompt and is validated by the caller.
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "marshal request").WithCause(err).WithProvider(p.Name())
	}

	endpoint := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "build request").WithCause(err).WithProvider(p.Name())
	}
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, mapError(resp.StatusCode, readErrMsg(resp.Body), p.Name())
	}

	var oaResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaResp); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(p.Name())
	}

	p.logger.Debug("completion ok",
		zap.String("model", oaResp.Model),
		zap.Int("total_tokens", totalTokens(oaResp.Usage)),
	)
	return toChatResponse(oaResp, p.Name()), nil
}

func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/models", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("health check failed: status=%d msg=%s", resp.StatusCode, readErrMsg(resp.Body))
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

func convertMessages(msgs []llm.Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, openAIMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func mapError(status int, msg, provider string) *types.Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewError(types.ErrAuthentication, msg).WithHTTPStatus(status).WithProvider(provider)
	case http.StatusTooManyRequests:
		return types.NewError(types.ErrRateLimit, msg).WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	case http.StatusBadRequest:
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "credit") {
			return types.NewError(types.ErrQuotaExceeded, msg).WithHTTPStatus(status).WithProvider(provider)
		}
		if strings.Contains(lower, "context length") || strings.Contains(lower, "maximum context") {
			return types.NewError(types.ErrContextTooLong, msg).WithHTTPStatus(status).WithProvider(provider)
		}
		return types.NewError(types.ErrInvalidRequest, msg).WithHTTPStatus(status).WithProvider(provider)
	case http.StatusNotFound:
		return types.NewError(types.ErrModelNotFound, msg).WithHTTPStatus(status).WithProvider(provider)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return types.NewError(types.ErrUpstreamError, msg).WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	default:
		return types.NewError(types.ErrUpstreamError, msg).WithHTTPStatus(status).WithRetryable(status >= 500).WithProvider(provider)
	}
}

func toChatResponse(oa openAIResponse, provider string) *llm.ChatResponse {
	choices := make([]llm.ChatChoice, 0, len(oa.Choices))
	for _, c := range oa.Choices {
		choices = append(choices, llm.ChatChoice{
			Index:        c.Index,
			FinishReason: c.FinishReason,
			Message:      llm.Message{Role: llm.RoleAssistant, Content: c.Message.Content},
		})
	}
	resp := &llm.ChatResponse{
		ID:       oa.ID,
		Provider: provider,
		Model:    oa.Model,
		Choices:  choices,
	}
	if oa.Usage != nil {
		resp.Usage = llm.ChatUsage{
			PromptTokens:     oa.Usage.PromptTokens,
			CompletionTokens: oa.Usage.CompletionTokens,
			TotalTokens:      oa.Usage.TotalTokens,
		}
	}
	if oa.Created != 0 {
		resp.CreatedAt = time.Unix(oa.Created, 0)
	}
	return resp
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var errResp openAIErrorResp
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return string(data)
}

func totalTokens(u *openAIUsage) int {
	if u == nil {
		return 0
	}
	return u.TotalTokens
}
