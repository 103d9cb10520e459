package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmaddaus/rocktalk/internal/model"
)

func (a *app) createCmd() *cobra.Command {
	var (
		status, assignee, priority string
		labels                     []string
	)
	cmd := &cobra.Command{
		Use:   "create <title> [description]",
		Short: "Create an issue",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := model.NewIssue{Title: args[0], Labels: labels}
			if len(args) > 1 {
				req.Description = args[1]
			}
			if cmd.Flags().Changed("status") {
				req.Status = status
			}
			if cmd.Flags().Changed("assignee") {
				req.Assignee = model.String(assignee)
			}
			if cmd.Flags().Changed("priority") {
				req.Priority = model.String(priority)
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			issue, err := s.CreateIssue(cmd.Context(), a.cfg.User, req)
			if err != nil {
				return fmt.Errorf("create issue: %w", err)
			}
			a.printIssue(issue, false)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", model.StatusOpen, "Initial status")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Assignee")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Priority (1 highest, 5 lowest)")
	cmd.Flags().StringArrayVarP(&labels, "label", "l", nil, "Label (repeatable)")
	return cmd
}
