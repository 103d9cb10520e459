package model

import (
	"slices"
	"time"
)

// StatusOpen is the status given to issues created without one. Status is an
// open taxonomy: any string is accepted.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Issue struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Creator     string    `json:"creator"`
	Assignee    *string   `json:"assignee"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Labels      []string  `json:"labels"`
	Priority    *string   `json:"priority"`
	Comments    []Comment `json:"comments"`
}

// HasLabel reports whether label is one of the issue's labels (exact match).
func (i *Issue) HasLabel(label string) bool {
	return slices.Contains(i.Labels, label)
}

// Clone returns a deep copy of the issue.
func (i *Issue) Clone() *Issue {
	c := *i
	c.Assignee = cloneString(i.Assignee)
	c.Priority = cloneString(i.Priority)
	c.Labels = append([]string{}, i.Labels...)
	c.Comments = append([]Comment{}, i.Comments...)
	return &c
}

// ShortID returns the first eight characters of the id, enough to address an
// issue by fragment in most stores.
func (i *Issue) ShortID() string {
	if len(i.ID) <= 8 {
		return i.ID
	}
	return i.ID[:8]
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// String returns a pointer to s. Handy for building updates and filters.
func String(s string) *string {
	return &s
}

// Deref returns the pointed-to string, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
