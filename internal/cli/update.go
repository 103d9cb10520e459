package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmaddaus/rocktalk/internal/model"
)

func (a *app) updateCmd() *cobra.Command {
	var (
		title, description, status, assignee, priority string
		labels                                         []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of an issue",
		Long: `Update fields of an issue. Only the flags given are changed; --label
replaces the whole label list (pass --label= with no value to clear it).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd model.IssueUpdate
			flags := cmd.Flags()
			for name, dst := range map[string]**string{
				"title":       &upd.Title,
				"description": &upd.Description,
				"status":      &upd.Status,
				"assignee":    &upd.Assignee,
				"priority":    &upd.Priority,
			} {
				if flags.Changed(name) {
					v, _ := flags.GetString(name)
					*dst = model.String(v)
				}
			}
			if flags.Changed("label") {
				kept := make([]string, 0, len(labels))
				for _, l := range labels {
					if l != "" {
						kept = append(kept, l)
					}
				}
				upd.Labels = &kept
			}
			if upd.IsEmpty() {
				return fmt.Errorf("no fields to update; use --title, --description, --status, --assignee, --priority or --label")
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			id, err := resolveID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			issue, err := s.UpdateIssue(cmd.Context(), id, upd)
			if err != nil {
				return fmt.Errorf("update issue: %w", err)
			}
			a.printIssue(issue, false)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", "New status")
	cmd.Flags().StringVar(&assignee, "assignee", "", "New assignee")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority")
	cmd.Flags().StringArrayVarP(&labels, "label", "l", nil, "Label (repeatable, replaces all labels)")
	return cmd
}
