package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"drai/internal/observ"
	"drai/internal/pipeline"
)

// printTimings writes the phase table of timer to stderr. A nil timer
// means --timings was not given.
func printTimings(cmd *cobra.Command, timer *observ.Timer) {
	if timer == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
}

// printStageTimings writes one line per finished stage of a unit.
func printStageTimings(out io.Writer, unit string, timings pipeline.Timings) {
	if out == nil {
		return
	}
	for _, stage := range []pipeline.Stage{pipeline.StageExpandMacro, pipeline.StageExpand, pipeline.StageWriteOutput} {
		if !timings.Has(stage) {
			continue
		}
		fmt.Fprintf(out, "%s: %s %.1f ms\n", unit, stage, toMillis(timings.Duration(stage)))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
