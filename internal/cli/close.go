package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const defaultCloseResolution = "Closed from the command line"

func (a *app) closeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <id> [resolution...]",
		Short: "Close an issue with a resolution comment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolution := strings.Join(args[1:], " ")
			if resolution == "" {
				resolution = defaultCloseResolution
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			id, err := resolveID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			issue, err := s.CloseIssue(cmd.Context(), id, a.cfg.User, resolution)
			if err != nil {
				return fmt.Errorf("close issue: %w", err)
			}
			a.printIssue(issue, false)
			return nil
		},
	}
}

func (a *app) commentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <content...>",
		Short: "Add a comment to an issue",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			id, err := resolveID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			c, err := s.AddComment(cmd.Context(), id, a.cfg.User, strings.Join(args[1:], " "))
			if err != nil {
				return fmt.Errorf("add comment: %w", err)
			}
			if a.pretty {
				fmt.Fprintf(a.out, "Comment %s added to issue %s\n", c.ID, id)
				return nil
			}
			a.printJSON(c)
			return nil
		},
	}
}
