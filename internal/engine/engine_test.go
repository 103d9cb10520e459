package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmaddaus/rocktalk/internal/model"
)

// fixtureOp is one step of a fixture: an operation applied at a fixed time.
type fixtureOp struct {
	Op         string    `json:"op"`
	IssueID    string    `json:"issue_id"`
	CommentID  string    `json:"comment_id,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	At         time.Time `json:"at"`
	Title      *string   `json:"title,omitempty"`
	Desc       *string   `json:"description,omitempty"`
	Status     *string   `json:"status,omitempty"`
	Assignee   *string   `json:"assignee,omitempty"`
	Priority   *string   `json:"priority,omitempty"`
	Labels     *[]string `json:"labels,omitempty"`
	Content    string    `json:"content,omitempty"`
	Resolution string    `json:"resolution,omitempty"`
}

// fixtureFile represents the JSON structure of a test fixture.
type fixtureFile struct {
	Name     string                  `json:"name"`
	Ops      []fixtureOp             `json:"ops"`
	Expected map[string]*model.Issue `json:"expected"`
}

func loadFixture(t *testing.T, name string) fixtureFile {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "read fixture %s", name)
	var f fixtureFile
	require.NoError(t, json.Unmarshal(data, &f), "unmarshal fixture %s", name)
	return f
}

func replay(t *testing.T, ops []fixtureOp) map[string]*model.Issue {
	t.Helper()
	issues := make(map[string]*model.Issue)
	for i, op := range ops {
		if op.Op == "create" {
			require.NotContains(t, issues, op.IssueID, "op %d: duplicate create", i)
			issues[op.IssueID] = Create(op.IssueID, op.Actor, model.NewIssue{
				Title:       model.Deref(op.Title),
				Description: model.Deref(op.Desc),
				Status:      model.Deref(op.Status),
				Assignee:    op.Assignee,
				Priority:    op.Priority,
				Labels:      derefLabels(op.Labels),
			}, op.At)
			continue
		}
		iss, ok := issues[op.IssueID]
		require.True(t, ok, "op %d (%s) on unknown issue %s", i, op.Op, op.IssueID)
		switch op.Op {
		case "update":
			ApplyUpdate(iss, model.IssueUpdate{
				Title:       op.Title,
				Description: op.Desc,
				Status:      op.Status,
				Assignee:    op.Assignee,
				Priority:    op.Priority,
				Labels:      op.Labels,
			}, op.At)
		case "comment":
			AddComment(iss, op.CommentID, op.Actor, op.Content, op.At)
		case "close":
			ApplyClose(iss, op.CommentID, op.Actor, op.Resolution, op.At)
		default:
			t.Fatalf("op %d: unknown op %q", i, op.Op)
		}
	}
	return issues
}

func derefLabels(l *[]string) []string {
	if l == nil {
		return nil
	}
	return *l
}

func runFixture(t *testing.T, name string) {
	t.Helper()
	f := loadFixture(t, name)
	t.Logf("Fixture: %s", f.Name)

	got := replay(t, f.Ops)
	require.Len(t, got, len(f.Expected))

	for id, want := range f.Expected {
		iss, ok := got[id]
		require.True(t, ok, "issue %s missing", id)
		gotJSON, err := json.Marshal(iss)
		require.NoError(t, err)
		wantJSON, err := json.Marshal(want)
		require.NoError(t, err)
		assert.JSONEq(t, string(wantJSON), string(gotJSON), "issue %s", id)
	}
}

// --- Fixture-driven tests ---

func TestReplay_FullLifecycle(t *testing.T) {
	runFixture(t, "full_lifecycle.json")
}

func TestReplay_MultipleIssues(t *testing.T) {
	runFixture(t, "multiple_issues.json")
}

// --- Unit tests ---

func TestCreateDefaults(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	iss := Create("id-1", "alice", model.NewIssue{Title: "T", Description: "D"}, now)

	assert.Equal(t, model.StatusOpen, iss.Status)
	assert.Equal(t, "alice", iss.Creator)
	assert.NotNil(t, iss.Labels)
	assert.Empty(t, iss.Labels)
	assert.NotNil(t, iss.Comments)
	assert.Nil(t, iss.Assignee)
	assert.Equal(t, now, iss.CreatedAt)
	assert.Equal(t, now, iss.UpdatedAt)
}

func TestCreateKeepsCustomStatus(t *testing.T) {
	iss := Create("id-1", "alice", model.NewIssue{Title: "T", Status: "triage"}, time.Now())
	assert.Equal(t, "triage", iss.Status)
}

func TestApplyUpdatePartial(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	iss := Create("id-1", "alice", model.NewIssue{
		Title:       "Old",
		Description: "Desc",
		Labels:      []string{"bug"},
		Priority:    model.String("2"),
	}, created)

	ApplyUpdate(iss, model.IssueUpdate{Title: model.String("New")}, created.Add(time.Hour))

	assert.Equal(t, "New", iss.Title)
	assert.Equal(t, "Desc", iss.Description)
	assert.Equal(t, []string{"bug"}, iss.Labels)
	assert.Equal(t, "2", model.Deref(iss.Priority))
	assert.Equal(t, created.Add(time.Hour), iss.UpdatedAt)
}

func TestApplyUpdateReplacesLabels(t *testing.T) {
	iss := Create("id-1", "alice", model.NewIssue{Labels: []string{"bug", "ui"}}, time.Now())
	labels := []string{"feature"}
	ApplyUpdate(iss, model.IssueUpdate{Labels: &labels}, time.Now())
	assert.Equal(t, []string{"feature"}, iss.Labels)

	labels[0] = "mutated"
	assert.Equal(t, []string{"feature"}, iss.Labels, "update must not alias caller slice")
}

func TestApplyUpdateEmptyStillTouches(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	iss := Create("id-1", "alice", model.NewIssue{Title: "T"}, now)
	ApplyUpdate(iss, model.IssueUpdate{}, now)
	assert.True(t, iss.UpdatedAt.After(iss.CreatedAt))
}

func TestTouch(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(time.Second), Touch(base, base.Add(time.Second)))
	assert.Equal(t, base.Add(time.Microsecond), Touch(base, base))
	assert.Equal(t, base.Add(time.Microsecond), Touch(base, base.Add(-time.Hour)))
}

func TestApplyClose(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	iss := Create("id-1", "alice", model.NewIssue{Title: "T"}, now)

	c := ApplyClose(iss, "c-1", "bob", "fixed in v2", now.Add(time.Minute))

	assert.Equal(t, model.StatusClosed, iss.Status)
	require.Len(t, iss.Comments, 1)
	assert.Equal(t, "Closed with resolution: fixed in v2", c.Content)
	assert.Equal(t, "bob", c.Author)
	assert.Equal(t, c, iss.Comments[0])
}

func TestApplyCloseAlreadyClosedStillComments(t *testing.T) {
	iss := Create("id-1", "alice", model.NewIssue{Title: "T", Status: model.StatusClosed}, time.Now())
	ApplyClose(iss, "c-1", "bob", "again", time.Now())
	assert.Len(t, iss.Comments, 1)
}
