// Package command finds tracker commands in free-form text, typically a reply
// produced by a conversational model, and runs them against an issue store.
//
// At most one command runs per text. Every failure ends in a returned
// diagnostic string; nothing is propagated to the caller.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jmaddaus/rocktalk/internal/store"
)

// DefaultUser acts for commands until SetUser is called.
const DefaultUser = "default_user"

// DefaultCreatePhrase triggers issue creation.
const DefaultCreatePhrase = "create issue"

// ListLimit caps the issues rendered by list and search commands.
const ListLimit = 5

// handler runs one command on the fields that followed its phrase. A
// malformed payload is reported through the returned string, not the error.
type handler func(ctx context.Context, fields []string) (string, error)

type command struct {
	phrase string
	verb   string // used in "Failed to <verb> issue" diagnostics
	run    handler
}

// Interpreter maps command phrases in text to store operations.
type Interpreter struct {
	store    store.Store
	logger   *slog.Logger
	commands []command

	mu   sync.RWMutex
	user string
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithCreatePhrase replaces the phrase that triggers issue creation.
func WithCreatePhrase(phrase string) Option {
	return func(i *Interpreter) {
		if phrase = strings.TrimSpace(phrase); phrase != "" {
			i.commands[0].phrase = phrase
		}
	}
}

// WithLogger sets the logger used for command failures.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// New returns an Interpreter over s acting as DefaultUser.
func New(s store.Store, opts ...Option) *Interpreter {
	i := &Interpreter{
		store:  s,
		logger: slog.Default(),
		user:   DefaultUser,
	}
	// Order is the tie-break priority when two phrases start at the same
	// position. WithCreatePhrase relies on create being first.
	i.commands = []command{
		{phrase: DefaultCreatePhrase, verb: "create", run: i.createIssue},
		{phrase: "close issue", verb: "close", run: i.closeIssue},
		{phrase: "comment issue", verb: "comment on", run: i.commentIssue},
		{phrase: "search issues", verb: "search", run: i.searchIssues},
		{phrase: "list issues", verb: "list", run: i.listIssues},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// SetUser changes the acting user for subsequent commands. The user becomes
// the creator of new issues and the author of comments.
func (i *Interpreter) SetUser(user string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.user = user
}

// User returns the acting user.
func (i *Interpreter) User() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.user
}

// CreatePhrase returns the phrase that triggers issue creation.
func (i *Interpreter) CreatePhrase() string {
	return i.commands[0].phrase
}

// Execute scans text for a command phrase and runs the command it finds.
// ok is false when text holds no command; result is then empty.
//
// Phrases match case-insensitively anywhere in the text. When several
// phrases occur, the one starting earliest wins.
func (i *Interpreter) Execute(ctx context.Context, text string) (result string, ok bool) {
	cmd, at := i.detect(text)
	if cmd == nil {
		return "", false
	}
	payload := text[at+len(cmd.phrase):]
	return i.run(ctx, cmd, splitFields(payload)), true
}

func (i *Interpreter) detect(text string) (*command, int) {
	var found *command
	best := -1
	for n := range i.commands {
		c := &i.commands[n]
		at := indexFold(text, c.phrase)
		if at < 0 {
			continue
		}
		if best < 0 || at < best {
			found, best = c, at
		}
	}
	return found, best
}

func (i *Interpreter) run(ctx context.Context, c *command, fields []string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("command panicked", "command", c.phrase, "panic", r)
			result = fmt.Sprintf("Failed to %s issue: %v", c.verb, r)
		}
	}()

	out, err := c.run(ctx, fields)
	if err != nil {
		i.logger.Error("command failed", "command", c.phrase, "err", err)
		return fmt.Sprintf("Failed to %s issue: %v", c.verb, err)
	}
	return out
}

// indexFold returns the byte offset of the first case-insensitive match of
// substr in s, or -1.
func indexFold(s, substr string) int {
	n := len(substr)
	for at := 0; at+n <= len(s); at++ {
		if strings.EqualFold(s[at:at+n], substr) {
			return at
		}
	}
	return -1
}

// splitFields splits the text following a phrase on commas. Text between the
// phrase and the first comma counts as the first field only when it holds
// something besides separators, so both "create issue, Title" and
// "create issue: Title" yield the field "Title".
func splitFields(payload string) []string {
	parts := strings.Split(payload, ",")
	fields := make([]string, 0, len(parts))
	for n, p := range parts {
		p = strings.TrimSpace(p)
		if n == 0 {
			p = strings.TrimSpace(strings.TrimLeft(p, ":-"))
			if p == "" {
				continue
			}
		}
		fields = append(fields, p)
	}
	return fields
}

// field returns fields[n], or "" when absent.
func field(fields []string, n int) string {
	if n < len(fields) {
		return fields[n]
	}
	return ""
}
