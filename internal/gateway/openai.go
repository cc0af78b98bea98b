package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
	"github.com/hugo-lorenzo-mato/docent/internal/logging"
)

// systemPrompts maps each conversational role to its system persona.
var systemPrompts = map[core.Role]string{
	core.RoleStudent:    "You are a curious student working through a document. Ask sharp, specific questions about the material you are given.",
	core.RoleTeacher:    "You are a knowledgeable teacher. Answer questions about the provided material accurately and concisely, grounding every claim in the text.",
	core.RoleEvaluator:  "You are an impartial evaluator. Follow the scoring instructions exactly and output only what they ask for.",
	core.RoleSummarizer: "You are a technical writer. Produce clear, faithful summaries of the material you are given.",
}

// Config holds settings for the OpenAI-compatible client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// OpenAI is a core.Gateway backed by any OpenAI-compatible
// chat-completions endpoint.
type OpenAI struct {
	cfg    Config
	client *http.Client
	retry  *RetryPolicy
	logger *logging.Logger
}

// Option configures the client.
type Option func(*OpenAI)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *OpenAI) { g.client = c }
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p *RetryPolicy) Option {
	return func(g *OpenAI) { g.retry = p }
}

// NewOpenAI creates a gateway client for an OpenAI-compatible API.
func NewOpenAI(cfg Config, logger *logging.Logger, opts ...Option) *OpenAI {
	if cfg.Timeout <= 0 {
		cfg.Timeout = core.GatewayCallTimeout
	}
	g := &OpenAI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	retry := DefaultRetryPolicy()
	if cfg.MaxRetries >= 0 {
		retry.MaxAttempts = cfg.MaxRetries + 1
	}
	g.retry = retry
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Invoke sends the prompt under the given role and returns the model's reply.
// Prior exchanges are replayed as alternating user/assistant messages so the
// model sees the conversation so far.
func (g *OpenAI) Invoke(ctx context.Context, role core.Role, prompt string, history []core.Exchange) (string, error) {
	messages := g.buildMessages(role, prompt, history)

	var reply string
	err := g.retry.Execute(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.call(ctx, messages)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (g *OpenAI) buildMessages(role core.Role, prompt string, history []core.Exchange) []chatMessage {
	messages := make([]chatMessage, 0, 2*len(history)+2)
	if sys, ok := systemPrompts[role]; ok {
		messages = append(messages, chatMessage{Role: "system", Content: sys})
	}
	for _, ex := range history {
		messages = append(messages,
			chatMessage{Role: "user", Content: ex.Question},
			chatMessage{Role: "assistant", Content: ex.Answer},
		)
	}
	return append(messages, chatMessage{Role: "user", Content: prompt})
}

func (g *OpenAI) call(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       g.cfg.Model,
		Messages:    messages,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return "", core.ErrValidation(core.CodeInvalidConfig, "marshaling request").WithCause(err)
	}

	url := strings.TrimSuffix(g.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", core.ErrGateway("creating request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", core.ErrGateway("sending request").WithCause(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", core.ErrGateway("reading response").WithCause(err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", core.ErrGateway("decoding response").WithCause(err)
	}
	if parsed.Error != nil {
		return "", core.ErrGateway(fmt.Sprintf("api error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", core.ErrGateway("empty choices in response")
	}

	g.logger.Debug("gateway call completed",
		"model", g.cfg.Model,
		"messages", len(messages),
		"duration", time.Since(start).String(),
	)

	return parsed.Choices[0].Message.Content, nil
}

// statusError maps HTTP status codes onto the domain error taxonomy.
// Rate limits and server errors are retryable; client errors are not.
func statusError(status int, body []byte) error {
	msg := fmt.Sprintf("http %d: %s", status, truncate(string(body), 200))
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return core.ErrGateway(msg)
	case status == http.StatusRequestTimeout:
		return core.ErrTimeout(msg)
	default:
		err := core.ErrGateway(msg)
		err.Retryable = false
		return err
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
