package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"milepost/internal/claude"
)

func newRawCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "raw <prompt>",
		Short: "Run an arbitrary prompt",
		Long: `Run an arbitrary prompt directly through the Claude executor, streaming
events to the terminal. Useful for testing prompt templates or one-off
commands.

Example:
  milepost raw "List all Go files in the project"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			req := claude.Request{
				Prompt: strings.Join(args, " "),
				Model:  app.Config.Claude.Model,
			}
			res, err := app.Executor.Execute(cmd.Context(), req, app.Printer.Event)
			if err != nil {
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}

			app.Printer.Duration("finished", res.Duration)
			if res.ExitCode != 0 || res.IsError {
				app.Printer.Failure("session failed (exit %d)", res.ExitCode)
				code := res.ExitCode
				if code == 0 {
					code = 1
				}
				return NewExitError(code)
			}
			return nil
		},
	}
}
