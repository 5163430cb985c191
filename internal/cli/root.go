package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"milepost/internal/config"
	"milepost/internal/output"
)

// NewRootCommand builds the root command with all subcommands attached.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "milepost",
		Short: "Milestone workflow orchestrator",
		Long: `milepost sequences milestones across ordered phases, executing them one
at a time through implementation, project checks, criterion verification,
multi-domain review consensus, and commit.

Plan files live in the plan directory (one markdown file per phase); the
resume record makes interrupted runs recoverable.`,
		SilenceErrors: true,
	}

	root.AddCommand(
		newNextCommand(app),
		newAutoCommand(app),
		newResumeCommand(app),
		newStatusCommand(app),
		newRawCommand(app),
	)

	return root
}

// ExecuteResult is the outcome of one command invocation.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// Run executes the CLI against the given app and argument list. Tests call
// this directly to assert on exit codes without process termination.
func Run(ctx context.Context, app *App, args []string) ExecuteResult {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(os.Stdout)

	if err := root.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{}
}

// Execute is the process entry point: load configuration, build the app for
// the current directory, run the command, and exit with its code.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	root, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	printer := output.NewPrinter()
	printer.SetTruncation(cfg.Output.TruncateLines, cfg.Output.TruncateLength)

	app, err := NewApp(cfg, config.NewWorkspace(root, cfg), printer)
	if err != nil {
		printer.Error("%v", err)
		os.Exit(1)
	}

	res := Run(context.Background(), app, os.Args[1:])
	if res.Err != nil {
		if _, ok := IsExitError(res.Err); !ok {
			printer.Error("%v", res.Err)
		}
	}
	os.Exit(res.ExitCode)
}
