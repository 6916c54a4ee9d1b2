package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mgomes/quill/config"
	"github.com/mgomes/quill/program"
	"github.com/mgomes/quill/quill"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		stop()
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand once the persistent
// flags are parsed.
type app struct {
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "quill",
		Short: "Run and measure quill programs",
		Long: `quill executes class definitions described in YAML program documents.

Commands:
  run     - invoke one method and print its result
  test    - run every [Test] method and measure statement coverage
  cover   - inspect, merge and track coverage reports
  version - print build and engine information`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $QUILL_CONFIG or ./quill.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newRunCmd(a),
		newTestCmd(a),
		newCoverCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) setup() error {
	var (
		cfg *config.Config
		err error
	)
	if a.cfgFile != "" {
		cfg, err = config.Load(a.cfgFile)
	} else {
		cfg, err = config.Discover()
	}
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.NewLogger(a.stderr, a.verbose)
	return nil
}

func (a *app) newEngine() (*quill.Engine, error) {
	return quill.NewEngine(a.cfg.EngineConfig(a.logger))
}

// load decodes the program at path and installs it next to the standard
// library. System.print writes to the command's stdout.
func (a *app) load(path string) (*quill.Registry, *program.Program, error) {
	prog, err := program.Load(path)
	if err != nil {
		return nil, nil, err
	}
	reg := quill.NewRegistry()
	if err := quill.RegisterStandardLibrary(reg, a.stdout); err != nil {
		return nil, nil, fmt.Errorf("register standard library: %w", err)
	}
	if err := program.Install(reg, prog); err != nil {
		return nil, nil, err
	}
	a.logger.Debug("program loaded", "source", prog.Source, "classes", len(prog.Classes))
	return reg, prog, nil
}

// execContext bounds ctx by the configured engine timeout, if any.
func (a *app) execContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := a.cfg.Engine.Timeout.Duration; timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
