package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osmdigest/osmdigest/extract"
	"github.com/osmdigest/osmdigest/store"
)

func newExtractCmd() *cobra.Command {
	var minLon, maxLon, minLat, maxLat float64
	cmd := &cobra.Command{
		Use:   "extract <source.osmdigest> <dest.osmdigest>",
		Short: "Extract a bounding-box subset of a store into a fresh store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := store.Open(args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			var last string
			for p, err := range extract.Extract(cmd.Context(), src, args[1], minLon, maxLon, minLat, maxLat) {
				if err != nil {
					return err
				}
				last = p.String()
			}
			fmt.Printf("extracted: %s\n", last)
			return nil
		},
	}
	cmd.Flags().Float64Var(&minLon, "min-lon", 0, "minimum longitude")
	cmd.Flags().Float64Var(&maxLon, "max-lon", 0, "maximum longitude")
	cmd.Flags().Float64Var(&minLat, "min-lat", 0, "minimum latitude")
	cmd.Flags().Float64Var(&maxLat, "max-lat", 0, "maximum latitude")
	return cmd
}
