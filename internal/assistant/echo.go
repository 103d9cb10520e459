package assistant

import "context"

// EchoBackend replies with the user's message unchanged. Commands typed in
// a chat session therefore run directly, without a model.
type EchoBackend struct {
	s *sessions
}

// NewEchoBackend returns an offline backend.
func NewEchoBackend() *EchoBackend {
	return &EchoBackend{s: newSessions()}
}

func (b *EchoBackend) StartSession(_ context.Context, userID string) (string, error) {
	return b.s.start(userID), nil
}

func (b *EchoBackend) Send(_ context.Context, sessionID, message string) (Reply, error) {
	if _, err := b.s.appendEntry(sessionID, RoleUser, message); err != nil {
		return Reply{}, err
	}
	e, err := b.s.appendEntry(sessionID, RoleAssistant, message)
	if err != nil {
		return Reply{}, err
	}
	return replyFrom(e), nil
}

func (b *EchoBackend) History(_ context.Context, sessionID string) ([]Entry, error) {
	_, h, err := b.s.snapshot(sessionID)
	return h, err
}

func (b *EchoBackend) EndSession(_ context.Context, sessionID string) error {
	return b.s.end(sessionID)
}
