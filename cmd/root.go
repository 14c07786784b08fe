// Package cmd provides the dmcache command-line interface.
// It runs clocked test scripts against the direct-mapped cache chip model.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/dmcache/timing/cache"
)

// Environment variables used as flag defaults. They may also come from a
// .env file in the working directory.
const (
	envConfig   = "DMCACHE_CONFIG"
	envTraceCSV = "DMCACHE_TRACE_CSV"
	envTraceDB  = "DMCACHE_TRACE_DB"
)

// options holds the flags shared by all commands.
type options struct {
	configPath string
	freqKHz    float64
	traceCSV   string
	traceDB    string
	cpuProfile string
	verbosity  int

	profileFile *os.File
}

// Execute loads .env defaults, runs the root command with the process
// arguments and exits.
func Execute() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		atexit.Exit(1)
	}

	if err := execute(newRootCmd()); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// execute runs root. A CPU profile started by --cpuprofile is stopped before
// it returns, whether or not the command failed.
func execute(root *rootCommand) error {
	defer root.opts.stopProfile()
	return root.Execute()
}

// rootCommand is the cobra root together with the options its flags fill.
type rootCommand struct {
	*cobra.Command
	opts *options
}

func newRootCmd() *rootCommand {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "dmcache",
		Short: "Cycle-accurate direct-mapped cache controller model.",
		Long: `dmcache clocks a model of a single-cycle, direct-mapped data ` +
			`cache chip through test scripts and checks its outputs.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", os.Getenv(envConfig),
		"Path to cache configuration JSON file")
	flags.Float64Var(&opts.freqKHz, "freq-khz", 100,
		"Clock frequency in kHz")
	flags.StringVar(&opts.traceCSV, "trace-csv", os.Getenv(envTraceCSV),
		"Write a per-cycle trace to this CSV file")
	flags.StringVar(&opts.traceDB, "trace-db", os.Getenv(envTraceDB),
		"Write a per-cycle trace to this SQLite database")
	flags.StringVar(&opts.cpuProfile, "cpuprofile", "",
		"Write a CPU profile to this file")
	flags.CountVarP(&opts.verbosity, "verbose", "v",
		"Verbose output (repeat for per-cycle logging)")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newScenarioCmd(opts),
		newConfigCmd(opts),
		newWorkloadCmd(opts),
		newRandomCmd(opts),
	)

	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return opts.startProfile()
	}

	return &rootCommand{Command: rootCmd, opts: opts}
}

// logger returns a logger writing to the command's stderr. Without -v it
// discards everything.
func (o *options) logger(cmd *cobra.Command) logr.Logger {
	if o.verbosity == 0 {
		return logr.Discard()
	}

	w := cmd.ErrOrStderr()
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: o.verbosity - 1})
}

func (o *options) startProfile() error {
	if o.cpuProfile == "" {
		return nil
	}

	f, err := os.Create(o.cpuProfile)
	if err != nil {
		return fmt.Errorf("failed to create CPU profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}

	o.profileFile = f
	atexit.Register(o.stopProfile)

	return nil
}

func (o *options) stopProfile() {
	if o.profileFile == nil {
		return
	}

	pprof.StopCPUProfile()
	_ = o.profileFile.Close()
	o.profileFile = nil
}

// cacheConfig returns the configuration selected by --config.
func (o *options) cacheConfig() (cache.Config, error) {
	if o.configPath == "" {
		return cache.DefaultConfig(), nil
	}
	return cache.LoadConfig(o.configPath)
}
