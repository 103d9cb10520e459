// Package engine holds the issue semantics shared by every store variant:
// how creates, updates, comments and closes change an issue, and how filters
// and search queries select issues. Stores own identity and persistence; the
// engine owns the rules.
package engine

import (
	"fmt"
	"time"

	"github.com/jmaddaus/rocktalk/internal/model"
)

// ResolutionPrefix starts the comment appended when an issue is closed.
const ResolutionPrefix = "Closed with resolution: "

// Create builds a new issue from req. The creator is the acting user.
func Create(id, actor string, req model.NewIssue, now time.Time) *model.Issue {
	issue := &model.Issue{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Creator:     actor,
		Assignee:    req.Assignee,
		Priority:    req.Priority,
		Labels:      append([]string{}, req.Labels...),
		Comments:    []model.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if issue.Status == "" {
		issue.Status = model.StatusOpen
	}
	return issue
}

// ApplyUpdate overwrites the fields set in upd and refreshes UpdatedAt, even
// when upd is empty.
func ApplyUpdate(issue *model.Issue, upd model.IssueUpdate, now time.Time) {
	if upd.Title != nil {
		issue.Title = *upd.Title
	}
	if upd.Description != nil {
		issue.Description = *upd.Description
	}
	if upd.Status != nil {
		issue.Status = *upd.Status
	}
	if upd.Assignee != nil {
		issue.Assignee = model.String(*upd.Assignee)
	}
	if upd.Labels != nil {
		issue.Labels = append([]string{}, (*upd.Labels)...)
	}
	if upd.Priority != nil {
		issue.Priority = model.String(*upd.Priority)
	}
	issue.UpdatedAt = Touch(issue.UpdatedAt, now)
}

// AddComment appends a comment written by actor and refreshes UpdatedAt.
func AddComment(issue *model.Issue, id, actor, content string, now time.Time) model.Comment {
	c := model.Comment{
		ID:        id,
		Author:    actor,
		Content:   content,
		CreatedAt: now,
	}
	issue.Comments = append(issue.Comments, c)
	issue.UpdatedAt = Touch(issue.UpdatedAt, now)
	return c
}

// ApplyClose sets the status to closed and then records the resolution as a
// comment. Both steps always happen, whatever the previous status.
func ApplyClose(issue *model.Issue, commentID, actor, resolution string, now time.Time) model.Comment {
	issue.Status = model.StatusClosed
	return AddComment(issue, commentID, actor, ResolutionComment(resolution), now)
}

// ResolutionComment renders the comment body recorded by ApplyClose.
func ResolutionComment(resolution string) string {
	return fmt.Sprintf("%s%s", ResolutionPrefix, resolution)
}

// Touch returns a timestamp for an event at now that is strictly after prev,
// even when the clock has not moved.
func Touch(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}
