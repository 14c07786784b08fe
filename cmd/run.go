package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/spf13/cobra"

	"github.com/sarchlab/dmcache/chip"
	"github.com/sarchlab/dmcache/testbench"
	"github.com/sarchlab/dmcache/timing/cache"
	"github.com/sarchlab/dmcache/trace"
)

// errMismatch is returned when a script ran but an expectation failed.
var errMismatch = errors.New("outputs did not match expectations")

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script.json>",
		Short: "Run a test script against the chip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := testbench.LoadScript(args[0])
			if err != nil {
				return err
			}

			_, err = runScript(cmd, opts, script, nil)
			return err
		},
	}
}

// runScript builds the chip from opts, runs script and prints the report.
// Extra writers receive the trace alongside any requested trace files.
func runScript(
	cmd *cobra.Command,
	opts *options,
	script testbench.Script,
	extra trace.Writer,
) (testbench.Result, error) {
	if opts.freqKHz <= 0 {
		return testbench.Result{}, fmt.Errorf("freq-khz must be > 0")
	}

	config, err := opts.cacheConfig()
	if err != nil {
		return testbench.Result{}, err
	}

	log := opts.logger(cmd)
	ctrl := cache.New(config, cache.WithLogger(log.WithName("cache")))
	top, err := chip.NewTopWithController(ctrl)
	if err != nil {
		return testbench.Result{}, err
	}

	writer, err := openTrace(opts, extra)
	if err != nil {
		return testbench.Result{}, err
	}
	defer writer.Close()

	bench := testbench.New(top,
		testbench.WithFreq(sim.Freq(opts.freqKHz)*sim.KHz),
		testbench.WithTraceWriter(writer),
		testbench.WithLogger(log.WithName("bench")),
	)

	result, err := bench.Run(script)
	if err != nil {
		return result, err
	}

	printResult(cmd.OutOrStdout(), result)

	if !result.Passed() {
		return result, errMismatch
	}
	return result, nil
}

func openTrace(opts *options, extra trace.Writer) (trace.MultiWriter, error) {
	var writers trace.MultiWriter
	if extra != nil {
		writers = append(writers, extra)
	}
	if opts.traceCSV != "" {
		writers = append(writers, trace.NewCSVWriter(opts.traceCSV))
	}
	if opts.traceDB != "" {
		writers = append(writers, trace.NewSQLiteWriter(opts.traceDB))
	}

	if err := writers.Init(); err != nil {
		_ = writers.Close()
		return nil, err
	}
	return writers, nil
}

func printResult(w io.Writer, result testbench.Result) {
	status := "PASS"
	if !result.Passed() {
		status = "FAIL"
	}

	fmt.Fprintf(w, "%s %s (run %s)\n", status, result.Script, result.RunID)
	fmt.Fprintf(w, "Cycles: %d (%.6g s simulated)\n",
		result.Cycles, result.EndTime-result.StartTime)

	stats := result.Stats
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  reads\t%d\thits\t%d\tmisses\t%d\n",
		stats.Reads, stats.ReadHits, stats.ReadMisses)
	fmt.Fprintf(tw, "  writes\t%d\thits\t%d\tmisses\t%d\n",
		stats.Writes, stats.WriteHits, stats.WriteMisses)
	fmt.Fprintf(tw, "  idle\t%d\treset\t%d\thit rate\t%.2f\n",
		stats.IdleCycles, stats.ResetCycles, stats.HitRate())
	_ = tw.Flush()

	for _, m := range result.Mismatches {
		fmt.Fprintf(w, "  mismatch: %s\n", m)
	}
}
