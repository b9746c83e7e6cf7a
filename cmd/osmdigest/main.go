// Command osmdigest is a thin CLI wrapper around package osmdigest's
// validate/convert/extract/search operations. It carries no ingestion
// logic of its own; every subcommand calls straight into the library.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/osmdigest/osmdigest/ctxlog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "osmdigest",
		Short: "Validate, convert, extract, and query OSM XML digests",
	}
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	viper.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))
	viper.SetEnvPrefix("OSMDIGEST")
	viper.AutomaticEnv()

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var level slog.Level
		if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
		return nil
	}

	root.AddCommand(newConvertCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newQueryCmd())
	return root
}
