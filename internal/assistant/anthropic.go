package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-3-5-haiku-latest"

// DefaultMaxTokens bounds each reply.
const DefaultMaxTokens = 1024

const retryMaxElapsed = 30 * time.Second

// errAPIKeyRequired is returned when no API key is available.
var errAPIKeyRequired = errors.New("API key required")

// messageClient is the part of the Anthropic SDK the backend calls.
type messageClient interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicBackend keeps each session's history in memory and sends the
// whole conversation to the Messages API on every turn.
type AnthropicBackend struct {
	messages  messageClient
	model     anthropic.Model
	maxTokens int64
	logger    *slog.Logger
	s         *sessions
	newRetry  func() backoff.BackOff
}

// AnthropicOption configures an AnthropicBackend.
type AnthropicOption func(*AnthropicBackend)

// WithModel selects the model.
func WithModel(model string) AnthropicOption {
	return func(b *AnthropicBackend) {
		if model != "" {
			b.model = anthropic.Model(model)
		}
	}
}

// WithMaxTokens bounds each reply.
func WithMaxTokens(n int) AnthropicOption {
	return func(b *AnthropicBackend) {
		if n > 0 {
			b.maxTokens = int64(n)
		}
	}
}

// WithBackendLogger sets the logger used for retries.
func WithBackendLogger(l *slog.Logger) AnthropicOption {
	return func(b *AnthropicBackend) { b.logger = l }
}

// NewAnthropicBackend creates a backend. ANTHROPIC_API_KEY takes precedence
// over apiKey.
func NewAnthropicBackend(apiKey string, opts ...AnthropicOption) (*AnthropicBackend, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY", errAPIKeyRequired)
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return newAnthropicBackend(&client.Messages, opts...), nil
}

func newAnthropicBackend(mc messageClient, opts ...AnthropicOption) *AnthropicBackend {
	b := &AnthropicBackend{
		messages:  mc,
		model:     anthropic.Model(DefaultModel),
		maxTokens: DefaultMaxTokens,
		logger:    slog.Default(),
		s:         newSessions(),
		newRetry: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = retryMaxElapsed
			return bo
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetUserPreferences stores preferences for sessions userID starts later.
func (b *AnthropicBackend) SetUserPreferences(userID string, p Preferences) {
	b.s.setPreferences(userID, p)
}

func (b *AnthropicBackend) StartSession(_ context.Context, userID string) (string, error) {
	id := b.s.start(userID)
	b.logger.Debug("session started", "session", id, "user", userID)
	return id, nil
}

// Send appends message to the session and returns the model's reply. On
// failure the user message stays in the history so a retry sees it.
func (b *AnthropicBackend) Send(ctx context.Context, sessionID, message string) (Reply, error) {
	if _, err := b.s.appendEntry(sessionID, RoleUser, message); err != nil {
		return Reply{}, err
	}
	system, history, err := b.s.snapshot(sessionID)
	if err != nil {
		return Reply{}, err
	}

	text, err := b.call(ctx, b.params(system, history))
	if err != nil {
		return Reply{}, err
	}

	e, err := b.s.appendEntry(sessionID, RoleAssistant, text)
	if err != nil {
		return Reply{}, err
	}
	return replyFrom(e), nil
}

func (b *AnthropicBackend) History(_ context.Context, sessionID string) ([]Entry, error) {
	_, h, err := b.s.snapshot(sessionID)
	return h, err
}

func (b *AnthropicBackend) EndSession(_ context.Context, sessionID string) error {
	return b.s.end(sessionID)
}

func (b *AnthropicBackend) params(system string, history []Entry) anthropic.MessageNewParams {
	msgs := make([]anthropic.MessageParam, 0, len(history))
	for _, e := range history {
		block := anthropic.NewTextBlock(e.Content)
		if e.Role == RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}
	p := anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		Messages:  msgs,
	}
	if system != "" {
		p.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return p
}

func (b *AnthropicBackend) call(ctx context.Context, params anthropic.MessageNewParams) (string, error) {
	var text string
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		message, err := b.messages.New(ctx, params)
		if err != nil {
			if isRetryable(err) {
				b.logger.Warn("model request failed, retrying", "attempt", attempt, "err", err)
				return err
			}
			return backoff.Permanent(err)
		}
		if len(message.Content) == 0 {
			return backoff.Permanent(errors.New("unexpected response format: no content blocks"))
		}
		content := message.Content[0]
		if content.Type != "text" {
			return backoff.Permanent(fmt.Errorf("unexpected response format: not a text block (type=%s)", content.Type))
		}
		text = content.Text
		return nil
	}, backoff.WithContext(b.newRetry(), ctx))
	if err != nil {
		return "", fmt.Errorf("model request: %w", err)
	}
	return text, nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
