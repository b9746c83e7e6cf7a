package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osmdigest/osmdigest/explain"
	"github.com/osmdigest/osmdigest/store"
)

func newQueryCmd() *cobra.Command {
	var tagPairs []string
	cmd := &cobra.Command{
		Use:   "query <store.osmdigest>",
		Short: "Search nodes by a conjunctive set of key=value tag pairs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(args[0])
			if err != nil {
				return err
			}
			defer st.Close()

			predicate := map[string]string{}
			for _, kv := range tagPairs {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --tag %q, expected key=value", kv)
				}
				predicate[k] = v
			}

			nodes, err := st.SearchNodeTags(predicate)
			if err != nil {
				return err
			}
			for _, n := range nodes {
				fmt.Println(explain.Node(n))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&tagPairs, "tag", nil, "key=value pair; may be repeated for a conjunctive predicate")
	return cmd
}
