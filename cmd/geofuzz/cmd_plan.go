package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPlanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the batch plan without executing it",
		Long: `Print every run the batch would execute: its kind, assets, shape set,
seed, step count and output path. Nothing is decoded or written.`,
		Args: cobra.NoArgs,
		RunE: a.runPlan,
	}
}

func (a *app) runPlan(cmd *cobra.Command, _ []string) error {
	p, err := a.prepare(cmd)
	if err != nil {
		return err
	}
	if err := p.plan.Route(p.router); err != nil {
		return setupError(err)
	}

	fmt.Fprintf(a.stdout, "batch seed %d: %d assets, %d runs (%d sweep, %d composite)\n",
		p.plan.BatchSeed, len(p.plan.Assets), len(p.plan.Runs),
		p.plan.SweepRuns(), len(p.plan.Runs)-p.plan.SweepRuns())

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tKIND\tSHAPES\tSTEPS\tSEED\tOUTPUT")
	for _, r := range p.plan.Runs {
		shapes := r.Pin.String()
		if !r.Pinned() {
			shapes = "random"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%#016x\t%s\n", r.Index, r.Kind, shapes, r.Steps, r.Seed, r.OutputPath)
	}
	return tw.Flush()
}
