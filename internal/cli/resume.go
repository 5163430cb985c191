package cli

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"milepost/internal/plan"
	"milepost/internal/resume"
)

func newResumeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Inspect an interrupted run and choose resume, skip, or cancel",
		Long: `Inspect the resume record left by an interrupted run. The choice is
always explicit:

  resume - re-run the interrupted milestone from the top
  skip   - clear the record without re-running (the milestone stays
           InProgress in the plan)
  cancel - leave everything untouched`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			rec, err := app.Resume.Load()
			if err != nil {
				// Malformed records are cleared on load; nothing to act on.
				app.Printer.Warn("%v", err)
				return nil
			}
			if rec == nil {
				app.Printer.Info("no interrupted run")
				return nil
			}
			if rec.Status == resume.StateComplete {
				app.Printer.Info("last run for %s completed normally; clearing stale record", rec.MilestoneKey)
				if err := app.Resume.Clear(); err != nil {
					app.Printer.Warn("%v", err)
				}
				return nil
			}

			app.Printer.Header("interrupted run found")
			app.Printer.Info("milestone: %s", rec.MilestoneKey)
			app.Printer.Info("phase file: %s", rec.PhaseFilePath)
			app.Printer.Info("started: %s", rec.StartedAt.Format("2006-01-02 15:04:05 MST"))

			switch app.promptChoice() {
			case "r", "resume":
				key, err := plan.ParseKey(rec.MilestoneKey)
				if err != nil {
					app.Printer.Error("resume record holds an invalid key: %v", err)
					if cerr := app.Resume.Clear(); cerr != nil {
						app.Printer.Warn("%v", cerr)
					}
					return NewExitError(1)
				}
				if err := app.Runner.Resume(cmd.Context(), key); err != nil {
					app.Printer.Error("%v", err)
					return NewExitError(1)
				}
			case "s", "skip":
				if err := app.Resume.Clear(); err != nil {
					app.Printer.Error("%v", err)
					return NewExitError(1)
				}
				app.Printer.Info("record cleared; %s remains InProgress in the plan", rec.MilestoneKey)
			default:
				app.Printer.Info("cancelled; record left in place")
			}
			return nil
		},
	}
}

// promptChoice reads the operator's decision from the app's input source.
// Anything unrecognized, including EOF, counts as cancel.
func (a *App) promptChoice() string {
	a.Printer.Prompt("[r]esume, [s]kip, or [c]ancel?")
	scanner := bufio.NewScanner(a.Stdin)
	if !scanner.Scan() {
		return "c"
	}
	return strings.ToLower(strings.TrimSpace(scanner.Text()))
}
