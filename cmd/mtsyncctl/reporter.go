package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/edirooss/mtsync/internal/action"
	"github.com/edirooss/mtsync/internal/engine"
)

// cliReporter renders analysis and execution progress to a terminal,
// coloring each action kind: cyan for patches and reorders, green for
// inserts, red for deletes.
type cliReporter struct {
	out io.Writer
}

var _ engine.Reporter = (*cliReporter)(nil)

func (r *cliReporter) AnalysisStarted() {
	fmt.Fprintln(r.out, color.New(color.Faint).Sprint("analyzing desired configuration..."))
}

func (r *cliReporter) AnalysisDone(actions []action.Action) {
	if len(actions) == 0 {
		fmt.Fprintln(r.out, color.GreenString("device already matches the desired configuration"))
		return
	}
	fmt.Fprintf(r.out, "%d action(s) planned:\n", len(actions))
	for _, a := range actions {
		r.printAction(a)
	}
}

func (r *cliReporter) printAction(a action.Action) {
	var paint func(format string, args ...interface{}) string
	switch a.Kind {
	case action.PATCH, action.POST:
		paint = color.CyanString
	case action.PUT:
		paint = color.GreenString
	case action.DELETE:
		paint = color.RedString
	default:
		paint = color.WhiteString
	}

	fmt.Fprintln(r.out, paint("  %-6s %s", a.Kind.String(), a.Path))
	for _, line := range a.Diff() {
		fmt.Fprintf(r.out, "      %s\n", line)
	}
}

func (r *cliReporter) ActionStarting(a action.Action) {
	fmt.Fprintf(r.out, "-> %s %s\n", a.Kind, a.Path)
}

func (r *cliReporter) ActionDone(a action.Action, err error) {
	if err != nil {
		fmt.Fprintln(r.out, color.RedString("   failed: %v", err))
		return
	}
	fmt.Fprintln(r.out, color.GreenString("   ok"))
}

func (r *cliReporter) ActionSkipped(a action.Action, reason string) {
	fmt.Fprintln(r.out, color.YellowString("   skipped: %s", reason))
}
