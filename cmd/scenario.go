package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/dmcache/testbench"
	"github.com/sarchlab/dmcache/trace"
)

func newScenarioCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scenario",
		Short: "Run the built-in reference scenario and print every cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cycles := trace.NewMemoryWriter()

			_, err := runScript(cmd, opts, testbench.ReferenceScenario(), cycles)
			printCycles(cmd.OutOrStdout(), cycles.Records)

			return err
		},
	}
}

func printCycles(w io.Writer, records []trace.Record) {
	if len(records) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CYCLE\tOP\tADDR\tUI_IN\tUO_OUT\tHIT\tDATA")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%08b\t%08b\t%t\t%d\n",
			r.Cycle, r.Op, r.Address, r.UIIn, r.UOOut, r.Hit, r.Data)
	}
	_ = tw.Flush()
}
