package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gogpu/geofuzz/internal/ledger"
)

func newLedgerCmd(a *app) *cobra.Command {
	var failedOnly bool
	cmd := &cobra.Command{
		Use:   "ledger [batch-id]",
		Short: "List recorded batches, or the runs of one batch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return setupError(err)
			}
			if cfg.Ledger.Path == "" {
				return setupError(fmt.Errorf("no ledger configured: pass --ledger"))
			}
			l, err := ledger.Open(cfg.Ledger.Path)
			if err != nil {
				return setupError(err)
			}
			defer func() { _ = l.Close() }()

			if len(args) == 0 {
				return a.listBatches(cmd, l)
			}
			return a.listRuns(cmd, l, args[0], failedOnly)
		},
	}
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "only runs that did not pass")
	return cmd
}

func (a *app) listBatches(cmd *cobra.Command, l *ledger.Ledger) error {
	batches, err := l.Batches(cmd.Context())
	if err != nil {
		return setupError(err)
	}
	if len(batches) == 0 {
		fmt.Fprintln(a.stdout, "No batches recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BATCH\tSEED\tSTARTED\tRUNS\tPASSED\tFAILED\tCANCELED")
	for _, b := range batches {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%d\t%d\n",
			b.ID, b.Seed, humanize.Time(b.Started), b.Runs, b.Passed, b.Failed, b.Canceled)
	}
	return tw.Flush()
}

func (a *app) listRuns(cmd *cobra.Command, l *ledger.Ledger, id string, failedOnly bool) error {
	runs, err := l.Runs(cmd.Context(), id, failedOnly)
	if err != nil {
		return setupError(err)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tKIND\tSTATUS\tSHAPES\tSEED\tSTEP\tERROR")
	for _, r := range runs {
		step := "-"
		if r.FailStep >= 0 {
			step = fmt.Sprint(r.FailStep)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%#016x\t%s\t%s\n",
			r.Index, r.Kind, r.Status, r.Shapes, r.Seed, step, r.Error)
	}
	return tw.Flush()
}
