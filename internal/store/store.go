package store

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmaddaus/rocktalk/internal/model"
)

// ErrNotFound is returned when an operation addresses an issue id the store
// does not hold.
var ErrNotFound = errors.New("issue not found")

// Store defines the persistence interface for the issue tracker.
//
// Mutating operations take the acting user explicitly; it becomes the
// creator of new issues and the author of new comments. Issues returned by a
// Store are copies and may be modified freely by the caller.
type Store interface {
	CreateIssue(ctx context.Context, actor string, req model.NewIssue) (*model.Issue, error)
	GetIssue(ctx context.Context, id string) (*model.Issue, error)
	ListIssues(ctx context.Context, filter model.IssueFilter) ([]*model.Issue, error)
	UpdateIssue(ctx context.Context, id string, upd model.IssueUpdate) (*model.Issue, error)
	AddComment(ctx context.Context, id, actor, content string) (*model.Comment, error)
	SearchIssues(ctx context.Context, query string) ([]*model.Issue, error)
	CloseIssue(ctx context.Context, id, actor, resolution string) (*model.Issue, error)

	Close() error
}

// Option configures a store.
type Option func(*options)

type options struct {
	newID        func() string
	newCommentID func() string
	now          func() time.Time
	logger       *slog.Logger
}

func defaultOptions() options {
	return options{
		newID:        uuid.NewString,
		newCommentID: uuid.NewString,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       slog.Default(),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithIDGenerator replaces the UUID generator used for new issue ids.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// WithCommentIDGenerator replaces the UUID generator used for new comment
// ids, including the resolution comment written by CloseIssue.
func WithCommentIDGenerator(fn func() string) Option {
	return func(o *options) { o.newCommentID = fn }
}

// WithClock replaces the clock used to stamp created/updated times.
func WithClock(fn func() time.Time) Option {
	return func(o *options) { o.now = fn }
}

// WithLogger sets the logger used for load and save diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open returns the store variant selected by path: an empty path gives an
// in-memory store, a .db/.sqlite/.sqlite3 path a SQLite store, and any other
// path a JSON file store.
func Open(path string, opts ...Option) (Store, error) {
	if path == "" {
		return NewMemoryStore(opts...), nil
	}
	if IsSQLitePath(path) {
		return NewSQLiteStore(path, opts...)
	}
	return NewFileStore(path, opts...)
}

// IsSQLitePath reports whether Open would pick the SQLite variant for path.
func IsSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
