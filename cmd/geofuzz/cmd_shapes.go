package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/geofuzz"
)

func newShapesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shapes",
		Short: "List the supported shape kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, k := range geofuzz.ShapeKinds() {
				fmt.Fprintf(a.stdout, "%2d  %s\n", uint8(k), k)
			}
			return nil
		},
	}
}
