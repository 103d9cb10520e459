package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmaddaus/rocktalk/internal/model"
)

func (a *app) listCmd() *cobra.Command {
	var (
		status, assignee string
		labels, filters  []string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues",
		Long: `List issues in creation order. All given criteria must match; --label
matches issues carrying any of the labels.

Examples:
  rocktalk list
  rocktalk list --status open --label bug --label ui
  rocktalk list --filter creator=alice --filter priority=1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw := make(map[string]string, len(filters))
			for _, f := range filters {
				k, v, ok := strings.Cut(f, "=")
				if !ok {
					return fmt.Errorf("invalid filter %q: want key=value", f)
				}
				raw[k] = v
			}
			filter := model.ParseFilter(raw)
			if cmd.Flags().Changed("status") {
				filter.Status = model.String(status)
			}
			if cmd.Flags().Changed("assignee") {
				filter.Assignee = model.String(assignee)
			}
			filter.Labels = append(filter.Labels, labels...)

			s, err := a.openStore()
			if err != nil {
				return err
			}
			issues, err := s.ListIssues(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("list issues: %w", err)
			}
			a.printIssueList(issues)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only issues with this status")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Only issues assigned to this user")
	cmd.Flags().StringArrayVar(&labels, "label", nil, "Only issues with this label (repeatable)")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter as key=value: status, assignee, creator, priority, labels (repeatable)")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search issue titles and descriptions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			issues, err := s.SearchIssues(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("search issues: %w", err)
			}
			a.printIssueList(issues)
			return nil
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	var comments bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			id, err := resolveID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			issue, err := s.GetIssue(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.printIssue(issue, comments)
			return nil
		},
	}
	cmd.Flags().BoolVar(&comments, "comments", false, "Include comments in pretty output")
	return cmd
}
