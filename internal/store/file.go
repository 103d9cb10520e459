package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"

	"github.com/jmaddaus/rocktalk/internal/model"
)

const filePerms = 0644

// FileStore is a MemoryStore that rewrites a JSON document after every
// mutation. The document maps issue id to issue record.
//
// Loading favors availability over durability: a missing, empty, corrupted or
// wrongly shaped file is logged and the store starts empty rather than
// failing.
type FileStore struct {
	*MemoryStore
	path string
}

// NewFileStore opens the JSON store at path, creating the containing
// directory if needed. Only a directory that cannot be created is an error.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	fs := &FileStore{
		MemoryStore: NewMemoryStore(opts...),
		path:        path,
	}
	fs.MemoryStore.persist = fs.saveLocked

	fs.mu.Lock()
	fs.resetLocked(fs.load())
	fs.mu.Unlock()
	return fs, nil
}

// Path returns the location of the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() []*model.Issue {
	log := s.opts.logger.With("path", s.path)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("data file not found, starting fresh")
		} else {
			log.Error("read data file failed, starting fresh", "err", err)
		}
		return nil
	}

	issues, err := decodeDocument(data, log)
	if err != nil {
		log.Error("data file unusable, starting fresh", "err", err)
		return nil
	}
	log.Info("loaded issues", "count", len(issues))
	return issues
}

// decodeDocument parses a persisted document and returns its issues in
// creation order. Ties are broken by id so the order is deterministic.
// The document key is the issue id; a record carrying a different id is
// re-keyed.
func decodeDocument(data []byte, log *slog.Logger) ([]*model.Issue, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("file is empty")
	}
	if !json.Valid(data) {
		return nil, errors.New("invalid JSON, file might be corrupted")
	}

	var records map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("expected a JSON object of issues: %w", err)
	}
	if records == nil {
		return nil, errors.New("expected a JSON object of issues, got null")
	}

	issues := make([]*model.Issue, 0, len(records))
	for key, raw := range records {
		var iss model.Issue
		if err := json.Unmarshal(raw, &iss); err != nil {
			return nil, fmt.Errorf("decode issue %s: %w", key, err)
		}
		if iss.ID != "" && iss.ID != key {
			log.Warn("record id does not match its key, using the key", "key", key, "id", iss.ID)
		}
		iss.ID = key
		if iss.Labels == nil {
			iss.Labels = []string{}
		}
		if iss.Comments == nil {
			iss.Comments = []model.Comment{}
		}
		issues = append(issues, &iss)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].CreatedAt.Equal(issues[j].CreatedAt) {
			return issues[i].ID < issues[j].ID
		}
		return issues[i].CreatedAt.Before(issues[j].CreatedAt)
	})
	return issues, nil
}

// saveLocked rewrites the whole document. The caller holds s.mu.
func (s *FileStore) saveLocked() error {
	data, err := json.MarshalIndent(s.issues, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		s.opts.logger.Error("save issues failed", "path", s.path, "err", err)
		return fmt.Errorf("save issues to %s: %w", s.path, err)
	}
	// atomic.WriteFile leaves new files with temp-file permissions.
	if err := os.Chmod(s.path, filePerms); err != nil {
		return fmt.Errorf("set permissions on %s: %w", s.path, err)
	}
	s.opts.logger.Debug("saved issues", "path", s.path, "count", len(s.issues))
	return nil
}
