package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"milepost/internal/engine"
	"milepost/internal/plan"
)

func newAutoCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "auto",
		Short: "Execute milestones until completion or a HALT",
		Long: `Execute milestones in a loop. Between milestones the continuation
analyst classifies the next one as PROCEED or HALT; a HALT stops the loop
cleanly, printing the analyst's questions and the milestone key where work
stopped. The first milestone runs ungated: invoking auto is itself the
operator's go-ahead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if err := app.checkNoInterruptedRun(); err != nil {
				app.Printer.Error("%v", err)
				return NewExitError(1)
			}

			executed := 0
			for {
				key, err := app.Locator.Next()
				if errors.Is(err, plan.ErrPlanComplete) {
					app.Printer.Success("plan complete after %d milestone(s) this run", executed)
					if summary, serr := app.Reporter.Summarize(); serr == nil {
						app.Reporter.Render(app.Printer, summary)
					}
					return nil
				}
				if err != nil {
					app.Printer.Error("%v", err)
					return NewExitError(1)
				}

				if executed > 0 {
					halted, err := app.gateNext(cmd, key)
					if err != nil {
						app.Printer.Error("%v", err)
						return NewExitError(1)
					}
					if halted {
						return nil
					}
				}

				if err := app.Runner.Execute(cmd.Context(), key); err != nil {
					app.Printer.Error("%v", err)
					return NewExitError(1)
				}
				executed++
			}
		},
	}
}

// gateNext runs the continuation analyst on the next milestone. Returns
// halted=true for a clean HALT (questions printed, loop stops, exit 0) and a
// non-nil error for hard analyst failures.
func (a *App) gateNext(cmd *cobra.Command, key plan.MilestoneKey) (bool, error) {
	graph, err := a.Store.LoadGraph()
	if err != nil {
		return false, err
	}
	milestone, ok := graph.Milestone(key)
	if !ok {
		return false, fmt.Errorf("milestone %s vanished from the plan: %w", key, plan.ErrNotFound)
	}
	phase, _ := graph.Phase(key.Phase)

	decision, err := a.Analyst.Classify(cmd.Context(), milestone, phase)
	if err != nil {
		// The analyst's failure decision is still a HALT, but a broken
		// analyst is a hard error, not a clean stop.
		a.Printer.Questions(decision.Questions)
		return false, err
	}

	if decision.Kind == engine.DecisionProceed {
		a.Printer.Info("analyst: PROCEED to %s", key)
		return false, nil
	}

	a.Printer.Header("halted before %s: %s", key, milestone.Title)
	a.Printer.Info("the analyst needs human input before continuing:")
	a.Printer.Questions(decision.Questions)
	a.Printer.Info("answer in the plan file, then run 'milepost auto' or 'milepost next'")
	return true, nil
}
