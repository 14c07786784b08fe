package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/dmcache/testbench"
)

func newWorkloadCmd(opts *options) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "workload [name...]",
		Short: "Run built-in workloads (all of them if no name is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, s := range testbench.Workloads() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d cycles\n", s.Name, s.Cycles())
				}
				return nil
			}

			scripts := testbench.Workloads()
			if len(args) > 0 {
				scripts = scripts[:0:0]
				for _, name := range args {
					s, err := testbench.Workload(name)
					if err != nil {
						return err
					}
					scripts = append(scripts, s)
				}
			}

			failed := 0
			for _, s := range scripts {
				_, err := runScript(cmd, opts, s, nil)
				switch {
				case errors.Is(err, errMismatch):
					failed++
				case err != nil:
					return err
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d workloads failed: %w", failed, len(scripts), errMismatch)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List workloads instead of running them")

	return cmd
}

func newRandomCmd(opts *options) *cobra.Command {
	var (
		seed  uint64
		steps int
	)

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Run random traffic checked against a reference model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 {
				return fmt.Errorf("steps must be > 0")
			}

			_, err := runScript(cmd, opts, testbench.RandomScript(seed, steps), nil)
			return err
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&steps, "steps", 1000, "Number of random requests")

	return cmd
}
