package model

import "strings"

// NewIssue holds the caller-supplied fields of an issue being created.
type NewIssue struct {
	Title       string
	Description string
	Status      string // defaults to StatusOpen
	Assignee    *string
	Labels      []string
	Priority    *string
}

// IssueUpdate lists the fields to overwrite. Nil fields are left unchanged;
// Labels, when set, replaces the whole label list.
type IssueUpdate struct {
	Title       *string
	Description *string
	Status      *string
	Assignee    *string
	Labels      *[]string
	Priority    *string
}

// IsEmpty reports whether the update carries no fields.
func (u IssueUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Assignee == nil && u.Labels == nil && u.Priority == nil
}

// IssueFilter holds optional filter criteria for listing issues. Set fields
// combine with AND. Labels matches when the issue carries any of them.
type IssueFilter struct {
	Status   *string
	Assignee *string
	Creator  *string
	Priority *string
	Labels   []string
}

// IsEmpty reports whether the filter matches every issue.
func (f IssueFilter) IsEmpty() bool {
	return f.Status == nil && f.Assignee == nil && f.Creator == nil &&
		f.Priority == nil && len(f.Labels) == 0
}

// ParseFilter builds a filter from loose key/value pairs such as CLI
// "--filter status=open" arguments. Unrecognized keys are ignored. The labels
// value is a comma separated list.
func ParseFilter(pairs map[string]string) IssueFilter {
	var f IssueFilter
	for key, value := range pairs {
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "status":
			f.Status = String(value)
		case "assignee":
			f.Assignee = String(value)
		case "creator":
			f.Creator = String(value)
		case "priority":
			f.Priority = String(value)
		case "labels", "label":
			for _, l := range strings.Split(value, ",") {
				if l = strings.TrimSpace(l); l != "" {
					f.Labels = append(f.Labels, l)
				}
			}
		}
	}
	return f
}
