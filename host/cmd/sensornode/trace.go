package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"sensornode/core"
	"sensornode/host/tracefile"
)

var traceCmd = &cobra.Command{
	Use:   "trace FILE",
	Short: "Print a trace file written by run --trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := tracefile.ReadFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if f.Reason != "" {
			fmt.Fprintf(out, "halted: %s\n", f.Reason)
		}
		for m, us := range f.Residency {
			if us != 0 {
				fmt.Fprintf(out, "%s %v\n", core.EnergyMode(m), time.Duration(us)*time.Microsecond)
			}
		}
		printTrace(out, f.TraceEvents())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
}

// printTrace writes one line per trace event, oldest first
func printTrace(w io.Writer, events []core.TraceEvent) {
	for _, e := range events {
		fmt.Fprintf(w, "%10d us  %-8s code=%-3d value=0x%X\n", e.Clock, e.Kind, e.Code, e.Value)
	}
}
