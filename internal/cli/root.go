package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmaddaus/rocktalk/internal/command"
	"github.com/jmaddaus/rocktalk/internal/config"
	"github.com/jmaddaus/rocktalk/internal/store"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	storePath string
	user      string
	pretty    bool
	verbose   bool

	cfg    *config.Config
	logger *slog.Logger
	store  store.Store
}

// Run dispatches the CLI based on the provided arguments.
func Run(args []string, version string) error {
	return run(context.Background(), args, version, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, version string, in io.Reader, out, errOut io.Writer) error {
	a := &app{in: in, out: out, errOut: errOut}
	defer a.close()

	root := a.rootCmd(version)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "rocktalk",
		Short: "Rocktalk - a conversational issue tracker",
		Long: `rocktalk keeps issues in a local store and lets you manage them directly or
by chatting with an assistant that turns requests into tracker commands.

The store is a JSON document by default; a path ending in .db, .sqlite or
.sqlite3 selects SQLite instead.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.storePath, "store", "", "Issue store path (default: $ROCKTALK_STORE or {data_dir}/issues.json)")
	pf.StringVar(&a.user, "user", "", "Acting user (default: $ROCKTALK_USER or config user)")
	pf.BoolVar(&a.pretty, "pretty", false, "Use pretty-printed output instead of JSON")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.createCmd(),
		a.updateCmd(),
		a.commentCmd(),
		a.searchCmd(),
		a.closeCmd(),
		a.execCmd(),
		a.chatCmd(),
		a.configCmd(),
		a.dbCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				fmt.Fprintf(a.out, "rocktalk version %s\n", version)
				return nil
			},
		},
	)
	return root
}

// setup loads configuration and installs the logger. The store is opened
// lazily by the commands that need it.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.storePath != "" {
		cfg.StorePath = a.storePath
	}
	if a.user != "" {
		cfg.User = a.user
	}
	a.cfg = cfg

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) openStore() (store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(a.cfg.StorePath, store.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.logger.Debug("store opened", "path", a.cfg.StorePath)
	a.store = s
	return s, nil
}

func (a *app) interpreter(s store.Store) *command.Interpreter {
	interp := command.New(s,
		command.WithCreatePhrase(a.cfg.CreateMarker),
		command.WithLogger(a.logger),
	)
	interp.SetUser(a.cfg.User)
	return interp
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}
