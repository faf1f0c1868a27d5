package main

import (
	"fmt"
	"io"
	"time"

	"dvgen/internal/buildpipeline"
	"dvgen/internal/observ"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings, includeEmit bool) {
	if out == nil {
		return
	}
	var printErr error
	if timings.Has(buildpipeline.StageLoad) {
		_, printErr = fmt.Fprintf(out, "loaded %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageLoad)))
		if printErr != nil {
			panic(printErr)
		}
	}
	if timings.Has(buildpipeline.StageResolve) {
		_, printErr = fmt.Fprintf(out, "resolved %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageResolve)))
		if printErr != nil {
			panic(printErr)
		}
	}
	if timings.Has(buildpipeline.StageDeclare) || timings.Has(buildpipeline.StageInitialize) || timings.Has(buildpipeline.StageThunks) {
		generated := timings.Sum(buildpipeline.StageDeclare, buildpipeline.StageInitialize, buildpipeline.StageThunks)
		_, printErr = fmt.Fprintf(out, "generated %.1f ms\n", toMillis(generated))
		if printErr != nil {
			panic(printErr)
		}
	}
	if timings.Has(buildpipeline.StageCheck) {
		_, printErr = fmt.Fprintf(out, "checked %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageCheck)))
		if printErr != nil {
			panic(printErr)
		}
	}
	if includeEmit && timings.Has(buildpipeline.StageEmit) {
		_, printErr = fmt.Fprintf(out, "emitted %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageEmit)))
		if printErr != nil {
			panic(printErr)
		}
	}
}

// printPhaseTimings writes the per-unit phase breakdown gathered by --timings.
func printPhaseTimings(out io.Writer, timer *observ.Timer) {
	if out == nil || timer == nil {
		return
	}
	fmt.Fprint(out, timer.Summary())
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
