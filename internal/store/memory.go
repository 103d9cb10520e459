package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmaddaus/rocktalk/internal/engine"
	"github.com/jmaddaus/rocktalk/internal/model"
)

// MemoryStore implements Store in process memory. Every call holds the store
// lock for its whole duration, so a MemoryStore is safe for concurrent use.
type MemoryStore struct {
	mu     sync.Mutex
	issues map[string]*model.Issue
	order  []string
	opts   options

	// persist, when set, runs with mu held after every successful mutation.
	persist func() error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		issues: make(map[string]*model.Issue),
		opts:   buildOptions(opts),
	}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) CreateIssue(ctx context.Context, actor string, req model.NewIssue) (*model.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.opts.newID()
	if _, exists := s.issues[id]; exists {
		return nil, fmt.Errorf("issue id %s already exists", id)
	}
	// CreatedAt carries insertion order through a file reload, so it must
	// advance even when the clock has not.
	now := s.opts.now()
	if n := len(s.order); n > 0 {
		now = engine.Touch(s.issues[s.order[n-1]].CreatedAt, now)
	}
	issue := engine.Create(id, actor, req, now)
	s.insertLocked(issue)
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return issue.Clone(), nil
}

func (s *MemoryStore) GetIssue(ctx context.Context, id string) (*model.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	return issue.Clone(), nil
}

func (s *MemoryStore) ListIssues(ctx context.Context, filter model.IssueFilter) ([]*model.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(engine.Filter(s.orderedLocked(), filter)), nil
}

func (s *MemoryStore) SearchIssues(ctx context.Context, query string) ([]*model.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(engine.Search(s.orderedLocked(), query)), nil
}

func (s *MemoryStore) UpdateIssue(ctx context.Context, id string, upd model.IssueUpdate) (*model.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	engine.ApplyUpdate(issue, upd, s.opts.now())
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return issue.Clone(), nil
}

func (s *MemoryStore) AddComment(ctx context.Context, id, actor, content string) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	c := engine.AddComment(issue, s.opts.newCommentID(), actor, content, s.opts.now())
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MemoryStore) CloseIssue(ctx context.Context, id, actor, resolution string) (*model.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	engine.ApplyClose(issue, s.opts.newCommentID(), actor, resolution, s.opts.now())
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return issue.Clone(), nil
}

func (s *MemoryStore) lookupLocked(id string) (*model.Issue, error) {
	issue, ok := s.issues[id]
	if !ok {
		return nil, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	return issue, nil
}

func (s *MemoryStore) insertLocked(issue *model.Issue) {
	s.issues[issue.ID] = issue
	s.order = append(s.order, issue.ID)
}

// resetLocked replaces the contents with issues, kept in the given order.
func (s *MemoryStore) resetLocked(issues []*model.Issue) {
	s.issues = make(map[string]*model.Issue, len(issues))
	s.order = s.order[:0]
	for _, iss := range issues {
		s.insertLocked(iss)
	}
}

func (s *MemoryStore) orderedLocked() []*model.Issue {
	out := make([]*model.Issue, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.issues[id])
	}
	return out
}

func (s *MemoryStore) persistLocked() error {
	if s.persist == nil {
		return nil
	}
	return s.persist()
}

func cloneAll(issues []*model.Issue) []*model.Issue {
	out := make([]*model.Issue, 0, len(issues))
	for _, iss := range issues {
		out = append(out, iss.Clone())
	}
	return out
}
