package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/jmaddaus/rocktalk/internal/model"
)

// printIssue prints a single issue either as JSON or as a pretty-printed block.
func (a *app) printIssue(issue *model.Issue, withComments bool) {
	if a.pretty {
		a.printPrettyIssue(issue, withComments)
		return
	}
	a.printJSON(issue)
}

// printIssueList prints a list of issues either as JSON or as a pretty-printed table.
func (a *app) printIssueList(issues []*model.Issue) {
	if a.pretty {
		a.printPretty(issues)
		return
	}
	if issues == nil {
		issues = []*model.Issue{}
	}
	a.printJSON(issues)
}

func (a *app) printJSON(v interface{}) {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// printPretty outputs issues as a tabwriter-formatted table.
func (a *app) printPretty(issues []*model.Issue) {
	if len(issues) == 0 {
		fmt.Fprintln(a.out, "No issues found.")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRI\tASSIGNEE\tUPDATED\tTITLE")
	for _, iss := range issues {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			iss.ShortID(),
			iss.Status,
			dash(iss.Priority),
			dash(iss.Assignee),
			humanize.Time(iss.UpdatedAt),
			iss.Title,
		)
	}
	w.Flush()
}

// printPrettyIssue outputs a single issue in a readable multi-line format.
func (a *app) printPrettyIssue(issue *model.Issue, withComments bool) {
	out := a.out
	fmt.Fprintf(out, "Issue %s\n", issue.ID)
	fmt.Fprintf(out, "  Title:       %s\n", issue.Title)
	fmt.Fprintf(out, "  Status:      %s\n", issue.Status)
	fmt.Fprintf(out, "  Creator:     %s\n", issue.Creator)
	if issue.Assignee != nil {
		fmt.Fprintf(out, "  Assignee:    %s\n", *issue.Assignee)
	}
	if issue.Priority != nil {
		fmt.Fprintf(out, "  Priority:    %s\n", *issue.Priority)
	}
	if issue.Description != "" {
		fmt.Fprintf(out, "  Description: %s\n", issue.Description)
	}
	if len(issue.Labels) > 0 {
		fmt.Fprintf(out, "  Labels:      %s\n", strings.Join(issue.Labels, ", "))
	}
	fmt.Fprintf(out, "  Created:     %s (%s)\n", issue.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(issue.CreatedAt))
	fmt.Fprintf(out, "  Updated:     %s (%s)\n", issue.UpdatedAt.Format("2006-01-02 15:04:05"), humanize.Time(issue.UpdatedAt))
	if !withComments {
		if n := len(issue.Comments); n > 0 {
			fmt.Fprintf(out, "  Comments:    %s\n", humanize.Comma(int64(n)))
		}
		return
	}
	for _, c := range issue.Comments {
		fmt.Fprintf(out, "\n  %s, %s:\n    %s\n", c.Author, humanize.Time(c.CreatedAt), c.Content)
	}
}

// printMessage prints a simple message (used for non-issue results).
func (a *app) printMessage(msg string) {
	if a.pretty {
		fmt.Fprintln(a.out, msg)
		return
	}
	a.printJSON(map[string]string{"message": msg})
}

func dash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
