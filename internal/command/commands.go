package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmaddaus/rocktalk/internal/engine"
	"github.com/jmaddaus/rocktalk/internal/model"
)

// DefaultDescription is used when a create command omits the description.
const DefaultDescription = "Created via AI assistant"

// DefaultResolution is used when a close command omits the resolution.
const DefaultResolution = "Resolved via AI assistant"

// createIssue handles "create issue, title, description, creator, assignee, priority".
func (i *Interpreter) createIssue(ctx context.Context, fields []string) (string, error) {
	title := field(fields, 0)
	if title == "" {
		return fmt.Sprintf("Could not parse issue title. Expected format: '%s, title, description, creator, assignee, priority'",
			i.CreatePhrase()), nil
	}

	req := model.NewIssue{
		Title:       title,
		Description: field(fields, 1),
	}
	if req.Description == "" {
		req.Description = DefaultDescription
	}
	actor := i.User()
	if creator := field(fields, 2); creator != "" {
		actor = creator
	}
	if assignee := field(fields, 3); assignee != "" {
		req.Assignee = model.String(assignee)
	}
	if priority := field(fields, 4); priority != "" {
		req.Priority = model.String(priority)
	}

	issue, err := i.store.CreateIssue(ctx, actor, req)
	if err != nil {
		return "", err
	}
	i.logger.Info("issue created", "id", issue.ID, "creator", actor)
	return fmt.Sprintf("Issue created successfully with ID: %s\nTitle: %s", issue.ID, issue.Title), nil
}

// listIssues renders the first ListLimit issues.
func (i *Interpreter) listIssues(ctx context.Context, _ []string) (string, error) {
	issues, err := i.store.ListIssues(ctx, model.IssueFilter{})
	if err != nil {
		return "", err
	}
	if len(issues) == 0 {
		return "No issues found.", nil
	}
	return renderList("Recent issues:", issues), nil
}

// searchIssues handles "search issues, query".
func (i *Interpreter) searchIssues(ctx context.Context, fields []string) (string, error) {
	query := strings.Join(fields, ", ")
	if query == "" {
		return "Could not parse search query. Expected format: 'search issues, query'", nil
	}
	issues, err := i.store.SearchIssues(ctx, query)
	if err != nil {
		return "", err
	}
	if len(issues) == 0 {
		return fmt.Sprintf("No issues found matching '%s'.", query), nil
	}
	return renderList(fmt.Sprintf("Issues matching '%s':", query), issues), nil
}

// closeIssue handles "close issue, issue ID, resolution". The id may be a
// fragment; the issue is closed only when the fragment picks exactly one.
func (i *Interpreter) closeIssue(ctx context.Context, fields []string) (string, error) {
	fragment := field(fields, 0)
	if fragment == "" {
		return "Could not parse issue ID. Expected format: 'close issue, issue ID, resolution'", nil
	}
	resolution := strings.Join(fields[1:], ", ")
	if resolution == "" {
		resolution = DefaultResolution
	}

	target, msg, err := i.resolve(ctx, fragment)
	if target == nil {
		return msg, err
	}

	closed, err := i.store.CloseIssue(ctx, target.ID, i.User(), resolution)
	if err != nil {
		return "", err
	}
	i.logger.Info("issue closed", "id", closed.ID)
	return fmt.Sprintf("Issue closed successfully: [%s] %s\nResolution: %s", closed.ID, closed.Title, resolution), nil
}

// commentIssue handles "comment issue, issue ID, comment text".
func (i *Interpreter) commentIssue(ctx context.Context, fields []string) (string, error) {
	fragment := field(fields, 0)
	content := ""
	if len(fields) > 1 {
		content = strings.Join(fields[1:], ", ")
	}
	if fragment == "" || content == "" {
		return "Could not parse comment. Expected format: 'comment issue, issue ID, comment text'", nil
	}

	target, msg, err := i.resolve(ctx, fragment)
	if target == nil {
		return msg, err
	}

	if _, err := i.store.AddComment(ctx, target.ID, i.User(), content); err != nil {
		return "", err
	}
	return fmt.Sprintf("Comment added to issue [%s] %s", target.ID, target.Title), nil
}

// resolve finds the single issue a fragment refers to. When there is none,
// or more than one, target is nil and msg explains why.
func (i *Interpreter) resolve(ctx context.Context, fragment string) (target *model.Issue, msg string, err error) {
	all, err := i.store.ListIssues(ctx, model.IssueFilter{})
	if err != nil {
		return nil, "", err
	}

	candidates := engine.ResolveFragment(all, fragment)
	switch len(candidates) {
	case 0:
		return nil, fmt.Sprintf("No issues found matching '%s'.", fragment), nil
	case 1:
		return candidates[0], "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Multiple issues match this number '%s':\n", fragment)
	for _, iss := range candidates {
		fmt.Fprintf(&b, "- [%s] %s\n", iss.ID, iss.Title)
	}
	b.WriteString("Please provide a more specific issue ID.")
	return nil, b.String(), nil
}

func renderList(header string, issues []*model.Issue) string {
	if len(issues) > ListLimit {
		issues = issues[:ListLimit]
	}
	var b strings.Builder
	b.WriteString(header)
	for _, iss := range issues {
		fmt.Fprintf(&b, "\n- [%s] %s (%s)", iss.ID, iss.Title, iss.Status)
	}
	return b.String()
}
