package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	config string
	seed   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "docshare",
		Short: "Shared JSON documents with a versioned capability API",
		Long: `docshare keeps JSON documents in an in-process keyspace and exports a
versioned capability table (DocShare_V1, DocShare_V2) that extensions use
to open keys, resolve paths and inspect values.

Examples:
  docshare run --seed data.json ext/counter.lua   Seed, then run one extension
  docshare run --config docshare.toml --watch     Run configured extensions, reload on change
  docshare get --seed data.json user '$.name'     Read a path from a seeded key`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "config file (TOML or YAML)")
	root.PersistentFlags().StringVarP(&flags.seed, "seed", "s", "", "JSON or YAML file of documents to store at startup")

	root.AddCommand(newRunCmd(flags))
	root.AddCommand(newGetCmd(flags))
	root.AddCommand(newVersionCmd())
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docshare %s\n", getVersionString())
		},
	}
}
