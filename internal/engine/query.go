package engine

import (
	"strings"

	"github.com/jmaddaus/rocktalk/internal/model"
)

// Matches reports whether issue satisfies every set field of f.
func Matches(issue *model.Issue, f model.IssueFilter) bool {
	if f.Status != nil && issue.Status != *f.Status {
		return false
	}
	if f.Creator != nil && issue.Creator != *f.Creator {
		return false
	}
	if f.Assignee != nil && !equalOptional(issue.Assignee, *f.Assignee) {
		return false
	}
	if f.Priority != nil && !equalOptional(issue.Priority, *f.Priority) {
		return false
	}
	if len(f.Labels) > 0 {
		found := false
		for _, l := range f.Labels {
			if issue.HasLabel(l) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func equalOptional(have *string, want string) bool {
	return have != nil && *have == want
}

// Filter returns the issues matching f, preserving order.
func Filter(issues []*model.Issue, f model.IssueFilter) []*model.Issue {
	out := make([]*model.Issue, 0, len(issues))
	for _, iss := range issues {
		if Matches(iss, f) {
			out = append(out, iss)
		}
	}
	return out
}

// MatchesQuery reports whether query appears in the title or description,
// ignoring case.
func MatchesQuery(issue *model.Issue, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(issue.Title), q) ||
		strings.Contains(strings.ToLower(issue.Description), q)
}

// Search returns the issues matching query, preserving order.
func Search(issues []*model.Issue, query string) []*model.Issue {
	out := make([]*model.Issue, 0)
	for _, iss := range issues {
		if MatchesQuery(iss, query) {
			out = append(out, iss)
		}
	}
	return out
}

// ResolveFragment selects the issues a possibly partial id refers to.
//
// An issue whose id equals the fragment is the only candidate. Otherwise
// every issue whose id contains the fragment is a candidate. Comparison
// ignores case. Callers act only when exactly one candidate comes back.
func ResolveFragment(issues []*model.Issue, fragment string) []*model.Issue {
	frag := strings.ToLower(strings.TrimSpace(fragment))
	if frag == "" {
		return nil
	}
	var candidates []*model.Issue
	for _, iss := range issues {
		id := strings.ToLower(iss.ID)
		if id == frag {
			return []*model.Issue{iss}
		}
		if strings.Contains(id, frag) {
			candidates = append(candidates, iss)
		}
	}
	return candidates
}
