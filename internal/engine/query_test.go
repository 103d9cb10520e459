package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jmaddaus/rocktalk/internal/model"
)

func sampleIssues() []*model.Issue {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*model.Issue{
		Create("ISSUE-1", "alice", model.NewIssue{Title: "Bug 1", Description: "crash", Labels: []string{"bug"}, Assignee: model.String("bob")}, now),
		Create("ISSUE-2", "alice", model.NewIssue{Title: "Bug 2", Description: "hang", Labels: []string{"bug", "ui"}}, now),
		Create("ISSUE-3", "carol", model.NewIssue{Title: "Feature Request", Description: "dark mode", Labels: []string{"feature"}, Status: "in_progress", Priority: model.String("1")}, now),
	}
}

func ids(issues []*model.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, iss := range issues {
		out = append(out, iss.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter model.IssueFilter
		want   []string
	}{
		{"empty returns all", model.IssueFilter{}, []string{"ISSUE-1", "ISSUE-2", "ISSUE-3"}},
		{"labels any-of", model.IssueFilter{Labels: []string{"bug"}}, []string{"ISSUE-1", "ISSUE-2"}},
		{"labels or semantics", model.IssueFilter{Labels: []string{"ui", "feature"}}, []string{"ISSUE-2", "ISSUE-3"}},
		{"labels none", model.IssueFilter{Labels: []string{"docs"}}, []string{}},
		{"status", model.IssueFilter{Status: model.String("open")}, []string{"ISSUE-1", "ISSUE-2"}},
		{"assignee", model.IssueFilter{Assignee: model.String("bob")}, []string{"ISSUE-1"}},
		{"creator", model.IssueFilter{Creator: model.String("carol")}, []string{"ISSUE-3"}},
		{"priority", model.IssueFilter{Priority: model.String("1")}, []string{"ISSUE-3"}},
		{"and", model.IssueFilter{Status: model.String("open"), Labels: []string{"ui"}}, []string{"ISSUE-2"}},
		{"and no match", model.IssueFilter{Status: model.String("in_progress"), Labels: []string{"bug"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(sampleIssues(), tt.filter)))
		})
	}
}

func TestSearch(t *testing.T) {
	issues := sampleIssues()
	assert.Equal(t, []string{"ISSUE-1", "ISSUE-2"}, ids(Search(issues, "BUG")))
	assert.Equal(t, []string{"ISSUE-3"}, ids(Search(issues, "Dark")))
	assert.Equal(t, []string{"ISSUE-2"}, ids(Search(issues, "hang")))
	assert.Empty(t, Search(issues, "nothing like this"))
}

func TestResolveFragment(t *testing.T) {
	now := time.Now()
	issues := []*model.Issue{
		Create("ISSUE-123", "a", model.NewIssue{Title: "First"}, now),
		Create("ISSUE-1234", "a", model.NewIssue{Title: "Second"}, now),
		Create("OTHER-9", "a", model.NewIssue{Title: "Third"}, now),
	}

	tests := []struct {
		name     string
		fragment string
		want     []string
	}{
		{"ambiguous prefix", "ISSUE-12", []string{"ISSUE-123", "ISSUE-1234"}},
		{"exact wins over containment", "ISSUE-123", []string{"ISSUE-123"}},
		{"unique substring", "1234", []string{"ISSUE-1234"}},
		{"case insensitive", "other", []string{"OTHER-9"}},
		{"no match", "NOPE", []string{}},
		{"blank", "  ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ResolveFragment(issues, tt.fragment)))
		})
	}
}
