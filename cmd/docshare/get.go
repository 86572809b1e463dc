package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/docshare/internal/app"
	"github.com/dshills/docshare/internal/document"
)

func newGetCmd(flags *rootFlags) *cobra.Command {
	var f document.Format
	cmd := &cobra.Command{
		Use:   "get key [path...]",
		Short: "Print JSON from a seeded key",
		Long: `Get stores the seed documents and prints the values at the given paths
of key. With no path the whole document is printed. A single "$" path
prints an array of every match; a legacy path such as ".a.b" prints the
first match.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), app.Options{
				ConfigPath: flags.config,
				SeedPath:   flags.seed,
			})
			if err != nil {
				return err
			}
			defer a.Shutdown()

			out, err := a.Get(cmd.Context(), args[0], f, args[1:]...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Indent, "indent", "", "indentation string for nested levels")
	cmd.Flags().StringVar(&f.Prefix, "prefix", "", "string printed at the start of each line")
	cmd.Flags().BoolVar(&f.SortKeys, "sort-keys", false, "sort object members by name")
	return cmd
}
