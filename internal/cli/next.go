package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"milepost/internal/plan"
)

func newNextCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "next [count]",
		Short: "Execute the next milestone(s)",
		Long: `Execute the next eligible milestone, or the next count milestones in
sequence. No continuation gate runs between milestones; use auto for
gated unattended execution.

Example:
  milepost next
  milepost next 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("count must be a positive integer, got %q", args[0])
				}
				count = n
			}
			cmd.SilenceUsage = true

			if err := app.checkNoInterruptedRun(); err != nil {
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}

			for i := 0; i < count; i++ {
				key, err := app.Locator.Next()
				if errors.Is(err, plan.ErrPlanComplete) {
					app.Printer.Success("plan complete; nothing left to execute")
					return nil
				}
				if err != nil {
					app.Printer.Error("%v", err)
					return NewExitError(1)
				}

				if count > 1 {
					app.Printer.Header("milestone %d/%d", i+1, count)
				}
				if err := app.Runner.Execute(cmd.Context(), key); err != nil {
					app.Printer.Error("%v", err)
					return NewExitError(1)
				}
			}
			return nil
		},
	}
}
