package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osmdigest/osmdigest/codec"
	"github.com/osmdigest/osmdigest/store"
	"github.com/osmdigest/osmdigest/validator"
)

func newConvertCmd() *cobra.Command {
	var lenient bool
	cmd := &cobra.Command{
		Use:   "convert <input.osm> <output.osmdigest>",
		Short: "Validate an OSM XML file and write it to a relational store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := codec.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			var opts []validator.Option
			if lenient {
				opts = append(opts, validator.WithLenientVisibility())
			}

			var last string
			for p, err := range store.Convert(cmd.Context(), args[1], validator.Records(in, opts...)) {
				if err != nil {
					return err
				}
				last = p.String()
			}
			fmt.Printf("converted: %s\n", last)
			return nil
		},
	}
	cmd.Flags().BoolVar(&lenient, "lenient-visibility", false, "treat visible=false primitives as deleted rather than rejecting them")
	return cmd
}
