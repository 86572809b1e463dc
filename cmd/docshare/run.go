package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/docshare/internal/app"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		watch  bool
		events bool
	)
	cmd := &cobra.Command{
		Use:   "run [extension...]",
		Short: "Seed the keyspace, export the API and run extensions",
		Long: `Run loads the configuration, stores the seed documents, exports the
capability tables and runs every extension once: first those in the
configured extension directory, then the paths given as arguments. An
extension path is a .lua file or a directory with an extension.json
manifest.

With --watch, run keeps going after the extensions finish and applies
config file changes (log level, notification mask) until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.Options{
				ConfigPath: flags.config,
				SeedPath:   flags.seed,
				Extensions: args,
				Watch:      watch,
			}
			if events {
				opts.Events = cmd.OutOrStdout()
			}

			a, err := app.New(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			if err := a.Run(cmd.Context()); err != nil {
				return err
			}
			if watch {
				<-cmd.Context().Done()
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and reload the config file on change")
	cmd.Flags().BoolVarP(&events, "events", "e", false, "print delivered keyspace notifications")
	return cmd
}
