package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmaddaus/rocktalk/internal/config"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				shown := *a.cfg
				if shown.APIKey != "" {
					shown.APIKey = "(set)"
				}
				if a.pretty {
					data, err := yaml.Marshal(&shown)
					if err != nil {
						return fmt.Errorf("marshal config: %w", err)
					}
					fmt.Fprintf(a.out, "# %s\n%s", shown.Path(), data)
					return nil
				}
				a.printJSON(shown)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting in the config file",
			Long:  "Change one setting in the config file.\n\nKeys: " + strings.Join(config.Keys, ", "),
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				// Start from the file alone so flags and environment overrides
				// are not persisted.
				cfg, err := config.LoadFile(a.cfg.DataDir)
				if err != nil {
					return err
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := config.Save(cfg); err != nil {
					return err
				}
				a.printMessage(fmt.Sprintf("%s = %s", args[0], args[1]))
				return nil
			},
		},
	)
	return cmd
}
