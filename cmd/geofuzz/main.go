// Command geofuzz drives a geometrization engine across an image corpus and
// reports every run that breaks the engine contract.
//
// Usage:
//
//	geofuzz [run] [flags]     execute a batch (default)
//	geofuzz plan [flags]      print the batch plan without executing it
//	geofuzz shapes            list the supported shape kinds
//	geofuzz ledger [batch-id] list recorded batches or the runs of one batch
//
// Exit codes: 0 every run passed, 1 at least one run failed, 2 setup error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/gogpu/geofuzz"
	"github.com/gogpu/geofuzz/internal/config"
)

// defaultConfigPath is read when --config is not given. It may be absent.
const defaultConfigPath = "geofuzz.yaml"

// app holds the flag values and output streams of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string

	inputDir      string
	outputDir     string
	batchSeed     uint32
	compositeRuns int
	minSteps      int
	maxSteps      int
	shapes        string
	combine       string
	engineDecides bool
	jobs          int
	runTimeout    time.Duration
	ledgerPath    string

	logger *slog.Logger
}

// exitError carries a process exit code. A nil err means the reason has
// already been reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func setupError(err error) error {
	return &exitError{code: geofuzz.ExitSetup, err: err}
}

func newRootCmd(a *app) *cobra.Command {
	defaults := config.DefaultConfig()

	root := &cobra.Command{
		Use:   "geofuzz",
		Short: "Corpus-driven fuzz harness for geometrization engines",
		Long: `geofuzz runs a geometrization engine over every image in the input
directory: once per shape kind, once with randomized shape kinds, and over
randomly paired composite images. Every reported score must lie in [0, 1].

Run without a subcommand to execute a batch.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runBatch,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file (default "+defaultConfigPath+" if present)")
	pf.StringVar(&a.logLevel, "log-level", defaults.Logging.Level, "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", defaults.Logging.Format, "log format: text, json")
	pf.StringVar(&a.inputDir, "input-dir", defaults.InputDir, "corpus directory")
	pf.StringVar(&a.outputDir, "output-dir", defaults.OutputDir, "output directory")
	pf.Uint32Var(&a.batchSeed, "batch-seed", 0, "batch seed (default random, logged)")
	pf.IntVar(&a.compositeRuns, "composite-runs", defaults.Batch.CompositeRuns, "number of composite runs")
	pf.IntVar(&a.minSteps, "min-steps", defaults.Batch.MinSteps, "minimum steps per run")
	pf.IntVar(&a.maxSteps, "max-steps", defaults.Batch.MaxSteps, "maximum steps per run")
	pf.StringVar(&a.shapes, "shapes", "", "comma separated shape kinds to sweep (default all)")
	pf.StringVar(&a.combine, "combine", defaults.Batch.Combine, "composite channel policy: normalized, truncate")
	pf.BoolVar(&a.engineDecides, "engine-decides", false, "let the engine choose shape kinds in unpinned runs")
	pf.IntVar(&a.jobs, "jobs", defaults.Batch.Jobs, "concurrent runs")
	pf.DurationVar(&a.runTimeout, "run-timeout", 0, "per-run deadline (0 = none)")
	pf.StringVar(&a.ledgerPath, "ledger", "", "SQLite run ledger path (empty = none)")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Execute a batch",
			Args:  cobra.NoArgs,
			RunE:  a.runBatch,
		},
		newPlanCmd(a),
		newShapesCmd(a),
		newLedgerCmd(a),
	)
	return root
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return geofuzz.ExitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "geofuzz: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "geofuzz: %v\n", err)
	return geofuzz.ExitSetup
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
