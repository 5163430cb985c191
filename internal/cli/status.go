package cli

import (
	"github.com/spf13/cobra"
)

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show plan progress",
		Long: `Show per-phase and overall milestone counts, completion percentages,
and the next eligible milestone. Read-only: safe to run while another
invocation is executing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			summary, err := app.Reporter.Summarize()
			if err != nil {
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}
			app.Reporter.Render(app.Printer, summary)
			return nil
		},
	}
}
