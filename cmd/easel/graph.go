package main

import (
	"github.com/aretw0/easel/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <scenario.yaml>",
	Short: "Export the scenario as a flowchart",
	Long: `Outputs a Mermaid diagram (graph TD) of the scenario steps and their guards.
With --run, the outcome of a recorded run is overlaid on the steps.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, _ := cmd.Flags().GetString("run")
		return cli.Graph(cmd.Context(), cli.GraphOptions{
			EnvOptions: envOptions(cmd),
			Path:       args[0],
			RunID:      runID,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("run", "", "Overlay the outcome of this run")
}
