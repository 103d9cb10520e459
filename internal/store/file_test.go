package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmaddaus/rocktalk/internal/model"
)

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	var w io.Writer = io.Discard
	if buf != nil {
		w = buf
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "issues.json")
	s, err := NewFileStore(path, WithLogger(quietLogger(nil)))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file is written on first mutation only")

	mustCreate(t, s, "alice", model.NewIssue{Title: "T"})
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.json")
	clock := stepClock(time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC))
	ctx := context.Background()

	s, err := NewFileStore(path, WithClock(clock), WithLogger(quietLogger(nil)))
	require.NoError(t, err)

	created := mustCreate(t, s, "alice", model.NewIssue{
		Title:       "Persist me",
		Description: "with comments",
		Labels:      []string{"bug", "storage"},
		Priority:    model.String("2"),
	})
	_, err = s.AddComment(ctx, created.ID, "bob", "first")
	require.NoError(t, err)
	_, err = s.AddComment(ctx, created.ID, "carol", "second")
	require.NoError(t, err)
	other := mustCreate(t, s, "dave", model.NewIssue{Title: "Second issue"})

	want, err := s.GetIssue(ctx, created.ID)
	require.NoError(t, err)

	reloaded, err := NewFileStore(path, WithLogger(quietLogger(nil)))
	require.NoError(t, err)

	got, err := reloaded.GetIssue(ctx, created.ID)
	require.NoError(t, err)

	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))

	require.Len(t, got.Comments, 2)
	assert.Equal(t, "first", got.Comments[0].Content)
	assert.Equal(t, "second", got.Comments[1].Content)
	assert.True(t, want.Comments[0].CreatedAt.Equal(got.Comments[0].CreatedAt))
	assert.Nil(t, got.Assignee)

	all, err := reloaded.ListIssues(ctx, model.IssueFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID, other.ID}, issueIDs(all))
}

func TestFileStoreReloadKeepsOrderOnStoppedClock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.json")
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewFileStore(path, WithClock(func() time.Time { return fixed }), WithLogger(quietLogger(nil)))
	require.NoError(t, err)

	for _, title := range []string{"zz", "mm", "aa"} {
		mustCreate(t, s, "alice", model.NewIssue{Title: title})
	}

	reloaded, err := NewFileStore(path, WithLogger(quietLogger(nil)))
	require.NoError(t, err)
	all, err := reloaded.ListIssues(context.Background(), model.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	titles := []string{all[0].Title, all[1].Title, all[2].Title}
	assert.Equal(t, []string{"zz", "mm", "aa"}, titles)
	assert.True(t, all[0].CreatedAt.Equal(fixed))
	assert.True(t, all[2].CreatedAt.After(all[1].CreatedAt))
}

func TestFileStorePersistedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.json")
	s, err := NewFileStore(path, WithIDGenerator(sequenceIDs("ISSUE-1")), WithLogger(quietLogger(nil)))
	require.NoError(t, err)
	mustCreate(t, s, "alice", model.NewIssue{Title: "T", Description: "D"})
	_, err = s.AddComment(context.Background(), "ISSUE-1", "bob", "hello")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Contains(t, doc, "ISSUE-1")

	rec := doc["ISSUE-1"]
	for _, key := range []string{"id", "title", "description", "status", "creator", "assignee",
		"created_at", "updated_at", "labels", "priority", "comments"} {
		assert.Contains(t, rec, key)
	}
	assert.Nil(t, rec["assignee"])

	comments, ok := rec["comments"].([]interface{})
	require.True(t, ok)
	require.Len(t, comments, 1)
	comment := comments[0].(map[string]interface{})
	for _, key := range []string{"id", "author", "content", "created_at"} {
		assert.Contains(t, comment, key)
	}
}

func TestFileStoreLoadFailuresStartEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
		logged  string
	}{
		{"empty", "", "file is empty"},
		{"whitespace", "  \n", "file is empty"},
		{"corrupt", `{"abc": {"id": `, "invalid JSON"},
		{"array", `[1, 2, 3]`, "expected a JSON object"},
		{"string", `"hello"`, "expected a JSON object"},
		{"null", `null`, "expected a JSON object"},
		{"bad record", `{"x": 5}`, "decode issue x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "issues.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			var logs bytes.Buffer
			s, err := NewFileStore(path, WithLogger(quietLogger(&logs)))
			require.NoError(t, err)

			all, err := s.ListIssues(context.Background(), model.IssueFilter{})
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Contains(t, logs.String(), tt.logged)
			assert.Contains(t, logs.String(), "level=ERROR")

			// Still usable, and the next save replaces the bad content.
			iss := mustCreate(t, s, "alice", model.NewIssue{Title: "after recovery"})
			reloaded, err := NewFileStore(path, WithLogger(quietLogger(nil)))
			require.NoError(t, err)
			_, err = reloaded.GetIssue(context.Background(), iss.ID)
			assert.NoError(t, err)
		})
	}
}

func TestFileStoreMissingFileWarns(t *testing.T) {
	var logs bytes.Buffer
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nope.json"), WithLogger(quietLogger(&logs)))
	require.NoError(t, err)

	all, err := s.ListIssues(context.Background(), model.IssueFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Contains(t, logs.String(), "level=WARN")
}

func TestFileStoreFillsMissingCollections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.json")
	doc := `{"k1": {"title": "legacy", "description": "", "status": "open", "creator": "x",
		"created_at": "2025-01-01T00:00:00Z", "updated_at": "2025-01-01T00:00:00Z"}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	s, err := NewFileStore(path, WithLogger(quietLogger(nil)))
	require.NoError(t, err)

	got, err := s.GetIssue(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", got.ID)
	assert.NotNil(t, got.Labels)
	assert.NotNil(t, got.Comments)
}

func TestFileStoreKeyIsAuthoritative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.json")
	doc := `{
		"a": {"id": "x", "title": "A", "created_at": "2025-01-01T00:00:00Z", "updated_at": "2025-01-01T00:00:00Z"},
		"b": {"id": "x", "title": "B", "created_at": "2025-01-02T00:00:00Z", "updated_at": "2025-01-02T00:00:00Z"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	var logs bytes.Buffer
	s, err := NewFileStore(path, WithLogger(quietLogger(&logs)))
	require.NoError(t, err)
	ctx := context.Background()

	all, err := s.ListIssues(ctx, model.IssueFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, issueIDs(all))

	a, err := s.GetIssue(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", a.Title)
	b, err := s.GetIssue(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "B", b.Title)

	_, err = s.GetIssue(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, logs.String(), "does not match its key")
}

func TestFileStoreUnusableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewFileStore(filepath.Join(blocker, "issues.json"), WithLogger(quietLogger(nil)))
	assert.Error(t, err)
}

func TestDecodeDocumentOrder(t *testing.T) {
	doc := `{
		"b": {"id": "b", "title": "B", "created_at": "2025-01-02T00:00:00Z", "updated_at": "2025-01-02T00:00:00Z"},
		"a": {"id": "a", "title": "A", "created_at": "2025-01-03T00:00:00Z", "updated_at": "2025-01-03T00:00:00Z"},
		"c": {"id": "c", "title": "C", "created_at": "2025-01-02T00:00:00Z", "updated_at": "2025-01-02T00:00:00Z"}
	}`
	issues, err := decodeDocument([]byte(doc), quietLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, issueIDs(issues))
}
