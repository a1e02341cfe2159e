// Package main provides the unitab CLI: a catalog-driven engine that
// extracts uploaded CSV payloads into one canonical wide table.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unitab-io/unitab/catalog/catfile"
	"github.com/unitab-io/unitab/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "unitab",
		Short: "Canonical wide-table CSV extraction",
		Long: `unitab extracts per-source CSV payloads into a single wide table whose
columns are a canonical attribute vocabulary, following cross-reference
joins and data mappings declared in a catalog.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newExtractCmd(),
		newSchemaCmd(),
		newVersionCmd(),
	)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the catalog file JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := json.MarshalIndent(catfile.Schema(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal schema: %w", err)
			}

			out = append(out, '\n')
			_, err = cmd.OutOrStdout().Write(out)

			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())

			return err
		},
	}
}
