package main

import (
	"fmt"
	"io"

	"dotgate/internal/observ"
)

// printTimings writes one line per phase of the run, verification phases
// summed over all units.
func printTimings(out io.Writer, report observ.Report) {
	if out == nil || len(report.Phases) == 0 {
		return
	}
	for _, p := range report.Phases {
		if p.Note != "" {
			fmt.Fprintf(out, "%s %.1f ms (%s)\n", p.Name, p.DurationMS, p.Note)
			continue
		}
		fmt.Fprintf(out, "%s %.1f ms\n", p.Name, p.DurationMS)
	}
	fmt.Fprintf(out, "total %.1f ms\n", report.TotalMS)
}
