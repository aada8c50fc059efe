package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"yt2text/internal/services"
)

const (
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 600 * time.Second
	healthTimeout      = 30 * time.Second
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client wraps an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an LLM client using the supplied configuration. The
// HTTP client carries no timeout of its own; every call is bounded by the
// timeout passed to Format or by Config.TimeoutSeconds.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// DefaultTimeout is the per-call timeout used when Format receives none.
func (c *Client) DefaultTimeout() time.Duration {
	if c.cfg.TimeoutSeconds > 0 {
		return time.Duration(c.cfg.TimeoutSeconds) * time.Second
	}
	return defaultHTTPTimeout
}

// Format sends one chat completion with the given system instruction and user
// text and returns the reply with any code fence removed. It makes exactly
// one attempt; failures are returned as *services.RemoteCallError so the
// caller can choose a retry delay.
func (c *Client) Format(ctx context.Context, systemInstruction, userText string, timeout time.Duration) (string, error) {
	const op = "llm format"
	systemInstruction = strings.TrimSpace(systemInstruction)
	userText = strings.TrimSpace(userText)
	if systemInstruction == "" || userText == "" {
		return "", &services.RemoteCallError{Kind: services.RemoteOther, Op: op, StatusCode: http.StatusBadRequest, Err: errors.New("system instruction and text required")}
	}
	if c.cfg.APIKey == "" {
		return "", &services.RemoteCallError{Kind: services.RemoteOther, Op: op, StatusCode: http.StatusUnauthorized, Err: errors.New("api key required")}
	}
	if timeout <= 0 {
		timeout = c.DefaultTimeout()
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: userText},
		},
		Temperature: 0,
	}
	content, err := c.complete(ctx, payload, timeout, op)
	if err != nil {
		return "", err
	}
	return StripCodeFence(content), nil
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("llm health: api key required")
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You must respond with JSON only."},
			{Role: "user", Content: "Respond with {\"ok\":true}"},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	content, err := c.complete(ctx, payload, healthTimeout, "llm health")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema (delta) even when
		// stream=false.
		Delta chatCompletionMessage `json:"delta"`
		// Legacy completion-style responses.
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content      string        `json:"content"`
	ToolCalls    []toolCall    `json:"tool_calls"`
	FunctionCall *functionCall `json:"function_call"`
	Refusal      string        `json:"refusal"`
}

type toolCall struct {
	Type     string       `json:"type"`
	ID       string       `json:"id"`
	Index    int          `json:"index"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func (c *Client) complete(ctx context.Context, payload chatCompletionRequest, timeout time.Duration, op string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	completion, body, err := c.send(callCtx, payload, op)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	content, finishReason := extractCompletionPayload(completion)
	if content == "" {
		detail := fmt.Sprintf("empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
			finishReason, extractCompletionRefusal(completion), summarizePayloadSnippet(string(body)))
		if len(completion.Choices) == 0 {
			detail = "empty choices"
		}
		return "", &services.RemoteCallError{Kind: services.RemoteOther, Op: op, Err: errors.New(detail)}
	}
	return content, nil
}

func (c *Client) send(ctx context.Context, payload chatCompletionRequest, op string) (chatCompletionResponse, []byte, error) {
	var completion chatCompletionResponse
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "")
	if err != nil {
		return completion, nil, fmt.Errorf("%s: build url: %w", op, err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, nil, fmt.Errorf("%s: encode body: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return completion, nil, fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, nil, classifyTransportError(op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, nil, classifyTransportError(op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return completion, body, &services.RemoteCallError{
			Kind:       statusKind(resp.StatusCode),
			Op:         op,
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter,
			Err:        errors.New(summarizePayloadSnippet(string(body))),
		}
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, body, &services.RemoteCallError{Kind: services.RemoteOther, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if completion.Error != nil {
		return completion, body, &services.RemoteCallError{Kind: services.RemoteOther, Op: op, Err: fmt.Errorf("api error: %s", strings.TrimSpace(completion.Error.Message))}
	}
	return completion, body, nil
}

// statusKind maps an HTTP failure status to a retry class. Gateway and
// request timeouts share the timeout class; throttling and server errors are
// treated like connectivity loss.
func statusKind(status int) services.RemoteCallKind {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return services.RemoteTimeout
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return services.RemoteNetwork
	default:
		return services.RemoteOther
	}
}

func classifyTransportError(op string, err error) error {
	kind := services.RemoteNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = services.RemoteTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = services.RemoteTimeout
	}
	return &services.RemoteCallError{Kind: kind, Op: op, Err: err}
}

func extractCompletionPayload(completion chatCompletionResponse) (string, string) {
	var finishReason string
	for _, choice := range completion.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if content := firstNonEmpty(
			choice.Message.Content,
			choice.Delta.Content,
			choice.Text,
		); content != "" {
			return content, finishReason
		}
		if args := firstNonEmpty(
			functionCallArguments(choice.Message.FunctionCall),
			functionCallArguments(choice.Delta.FunctionCall),
		); args != "" {
			return args, finishReason
		}
		if args := firstNonEmpty(
			toolCallArguments(choice.Message.ToolCalls),
			toolCallArguments(choice.Delta.ToolCalls),
		); args != "" {
			return args, finishReason
		}
	}
	return "", finishReason
}

func extractCompletionRefusal(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if refusal := firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal); refusal != "" {
			return refusal
		}
	}
	return ""
}

func functionCallArguments(fc *functionCall) string {
	if fc == nil {
		return ""
	}
	return strings.TrimSpace(fc.Arguments)
}

func toolCallArguments(calls []toolCall) string {
	for _, call := range calls {
		if args := strings.TrimSpace(call.Function.Arguments); args != "" {
			return args
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

// DecodeLLMJSON decodes JSON from an LLM response, tolerating code fences and
// surrounding prose.
func DecodeLLMJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}
	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizePayloadSnippet(trimmed))
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, summarizePayloadSnippet(sanitized))
	}
	return nil
}

func sanitizeJSONPayload(content string) string {
	trimmed := StripCodeFence(content)
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func summarizePayloadSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
