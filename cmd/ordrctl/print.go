package main

import (
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/mitchellh/go-wordwrap"

	"github.com/casperin/ordr"
)

// printOutcome writes a colored, human-readable rendering of an outcome:
// green for Completed, red for Failed with a wrapped reason, yellow for
// Cancelled.
func printOutcome(w io.Writer, outcome ordr.Outcome) {
	switch outcome.Kind {
	case ordr.Completed:
		fmt.Fprintln(w, color.Green.Sprint("Completed"))
	case ordr.Cancelled:
		fmt.Fprintln(w, color.Yellow.Sprint("Cancelled"))
	case ordr.Failed:
		fmt.Fprintln(w, color.Red.Sprintf("Failed: %s", outcome.Node))
		fmt.Fprintln(w, wordwrap.WrapString(outcome.Reason, 80))
	}
	fmt.Fprintf(w, "duration: %s\n", outcome.Duration)

	snap := outcome.Snapshot()
	if len(snap) == 0 {
		return
	}
	fmt.Fprintln(w, "store:")
	for id := range snap {
		fmt.Fprintf(w, "  %s\n", id)
	}
}
