package main

import (
	"context"

	"github.com/aretw0/easel/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Accepts scenario documents on POST /runs, runs them in the background and
streams their steps on /runs/{id}/events. Metrics are served on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		return cli.Serve(ctx, cli.ServeOptions{
			EnvOptions: envOptions(cmd),
			Addr:       addr,
			Debug:      debugFlag(cmd),
		}, cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
}
