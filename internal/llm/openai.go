package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// Chat models suitable for short sentiment prompts.
var openAIModels = []string{"gpt-3.5-turbo", "gpt-4o-mini", "gpt-4o"}

// OpenAIProvider talks to the Chat Completions endpoint of OpenAI or any
// compatible server.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// OpenAIOption configures the OpenAI provider.
type OpenAIOption func(*OpenAIProvider)

// WithOpenAIBaseURL points the provider at a compatible server or proxy.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) { p.baseURL = strings.TrimRight(url, "/") }
}

// WithOpenAIModel sets the model used when ChatOptions leaves it empty.
func WithOpenAIModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) { p.model = model }
}

// NewOpenAIProvider creates an OpenAI provider. It fails with ErrNoAPIKey
// when apiKey is empty.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	p := &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: defaultOpenAIBaseURL,
		model:   openAIModels[0],
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *OpenAIProvider) Name() string     { return ProviderOpenAI }
func (p *OpenAIProvider) Models() []string { return openAIModels }

// Ping lists models, which checks both reachability and the key.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	return p.call(ctx, http.MethodGet, "/models", nil, nil)
}

// Chat sends messages and returns the first choice.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	start := time.Now()

	var out openAIChatResponse
	if err := p.call(ctx, http.MethodPost, "/chat/completions", newOpenAIRequest(p.model, messages, opts), &out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("openai: %w: no choices", ErrEmptyResponse)
	}

	choice := out.Choices[0]
	return &Response{
		Content:      choice.Message.Content,
		FinishReason: mapFinishReason(choice.FinishReason),
		Model:        out.Model,
		Provider:     ProviderOpenAI,
		Latency:      time.Since(start),
		Usage:        Usage(out.Usage),
	}, nil
}

// call performs one authenticated JSON request. in and out may be nil.
func (p *OpenAIProvider) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("openai: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProviderDown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return openAIStatusError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	return nil
}

// ── Wire Types ──

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
}

type openAIChoice struct {
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// openAIUsage mirrors Usage field for field.
type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAIErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func newOpenAIRequest(defaultModel string, messages []Message, opts *ChatOptions) openAIChatRequest {
	r := openAIChatRequest{Model: defaultModel, Messages: make([]openAIMessage, 0, len(messages))}
	for _, m := range messages {
		r.Messages = append(r.Messages, openAIMessage{Role: string(m.Role), Content: m.Content})
	}
	if opts == nil {
		return r
	}
	if opts.Model != "" {
		r.Model = opts.Model
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		r.Temperature = &t
	}
	if opts.MaxTokens > 0 {
		n := opts.MaxTokens
		r.MaxTokens = &n
	}
	return r
}

// openAIErrorCodes maps 400-level error codes to sentinels.
var openAIErrorCodes = map[string]error{
	"context_length_exceeded": ErrContextLength,
	"model_not_found":         ErrInvalidModel,
}

// openAIStatusError converts a non-200 reply into an error wrapping the
// matching sentinel.
func openAIStatusError(status int, raw []byte) error {
	var body openAIErrorBody
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error.Message != "" {
		msg = body.Error.Message
	}

	var sentinel error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = ErrNoAPIKey
	case status == http.StatusTooManyRequests:
		sentinel = ErrRateLimit
	case status >= 500:
		sentinel = ErrProviderDown
	default:
		sentinel = openAIErrorCodes[body.Error.Code]
	}

	if sentinel == nil {
		return fmt.Errorf("openai: HTTP %d: %s", status, msg)
	}
	return fmt.Errorf("%w: HTTP %d: %s", sentinel, status, msg)
}

func mapFinishReason(reason string) FinishReason {
	switch reason {
	case "stop":
		return FinishStop
	case "length":
		return FinishLength
	default:
		return FinishReason(reason)
	}
}

var _ Provider = (*OpenAIProvider)(nil)
