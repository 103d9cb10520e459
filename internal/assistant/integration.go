package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jmaddaus/rocktalk/internal/command"
)

// replyPrefixes are speaker labels models sometimes put in front of a reply.
var replyPrefixes = []string{"Assistant:", "AI:"}

// Integration sends user messages to a backend and runs any tracker command
// found in the reply.
type Integration struct {
	backend Backend
	interp  *command.Interpreter
	logger  *slog.Logger
}

// NewIntegration ties backend to interp. A nil logger means slog.Default().
func NewIntegration(backend Backend, interp *command.Interpreter, logger *slog.Logger) *Integration {
	if logger == nil {
		logger = slog.Default()
	}
	return &Integration{backend: backend, interp: interp, logger: logger}
}

// Backend returns the underlying backend.
func (in *Integration) Backend() Backend { return in.backend }

// ProcessMessage sends message and returns the reply. When the reply holds
// a command, its content is replaced by the command result.
func (in *Integration) ProcessMessage(ctx context.Context, sessionID, message string) (Reply, error) {
	reply, err := in.backend.Send(ctx, sessionID, message)
	if err != nil {
		return Reply{}, err
	}
	content := stripSpeaker(reply.Content)
	if result, ok := in.interp.Execute(ctx, content); ok {
		in.logger.Debug("command executed", "session", sessionID)
		content = result
	}
	reply.Content = content
	return reply, nil
}

func stripSpeaker(s string) string {
	s = strings.TrimSpace(s)
	for _, p := range replyPrefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			return strings.TrimSpace(s[len(p):])
		}
	}
	return s
}
