package main

import (
	"github.com/aretw0/easel/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Run a scenario",
	Long: `Runs the scenario file in a fresh editor and prints a report.
The exit status is non-zero when the run fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watchMode, _ := cmd.Flags().GetBool("watch")
		jsonMode, _ := cmd.Flags().GetBool("json")
		runID, _ := cmd.Flags().GetString("run-id")

		return cli.Execute(cli.RunOptions{
			EnvOptions: envOptions(cmd),
			Path:       args[0],
			RunID:      runID,
			Watch:      watchMode,
			JSON:       jsonMode,
			Debug:      debugFlag(cmd),
			Stdout:     cmd.OutOrStdout(),
			Stderr:     cmd.ErrOrStderr(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Print the run record as JSON")
	runCmd.Flags().BoolP("watch", "w", false, "Run again whenever the scenario file changes")
	runCmd.Flags().String("run-id", "", "Run ID (default: a random UUID)")
}
