package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmaddaus/rocktalk/internal/assistant"
	"github.com/jmaddaus/rocktalk/internal/config"
)

var errNoCommand = errors.New("no tracker command found in text")

func (a *app) execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <text...>",
		Short: "Run the command interpreter on text",
		Long: `Run the command interpreter on text, as if an assistant had replied with it.

Examples:
  rocktalk exec "create issue, Login broken, 500 on submit, alice, bob, 1"
  rocktalk exec "close issue, 0f8f, fixed in 1.2"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			result, ok := a.interpreter(s).Execute(cmd.Context(), strings.Join(args, " "))
			if !ok {
				return errNoCommand
			}
			a.printMessage(result)
			return nil
		},
	}
}

func (a *app) chatCmd() *cobra.Command {
	var backend, model string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with an assistant that manages issues",
		Long: `Start an interactive chat session. Replies that contain tracker commands
are executed against the store. Type /history to print the session so far,
and exit or quit to leave.

The echo backend needs no network access and replies with your own
message, so commands typed directly are executed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("backend") {
				a.cfg.Backend = backend
			}
			if cmd.Flags().Changed("model") {
				a.cfg.Model = model
			}
			b, err := a.newBackend()
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			in := assistant.NewIntegration(b, a.interpreter(s), a.logger)
			return in.Chat(cmd.Context(), a.in, a.out, a.cfg.User)
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "Conversation backend: anthropic or echo (default from config)")
	cmd.Flags().StringVar(&model, "model", "", "Model name for the anthropic backend")
	return cmd
}

func (a *app) newBackend() (assistant.Backend, error) {
	switch a.cfg.Backend {
	case config.BackendEcho:
		return assistant.NewEchoBackend(), nil
	case config.BackendAnthropic:
		b, err := assistant.NewAnthropicBackend(a.cfg.APIKey,
			assistant.WithModel(a.cfg.Model),
			assistant.WithMaxTokens(a.cfg.MaxTokens),
			assistant.WithBackendLogger(a.logger),
		)
		if err != nil {
			return nil, err
		}
		prompt := a.cfg.SystemPrompt
		if prompt == "" {
			prompt = assistant.SystemPrompt(a.cfg.User, a.cfg.CreateMarker)
		}
		b.SetUserPreferences(a.cfg.User, assistant.Preferences{SystemPrompt: prompt})
		return b, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", a.cfg.Backend)
	}
}
