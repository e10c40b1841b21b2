package main

import (
	"fmt"

	"github.com/aretw0/easel/internal/cli"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage recorded runs",
	Long:  `List, show, and remove the run records kept by the selected store.`,
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.RunStore) error {
			return cli.ListRuns(cmd.Context(), store, cmd.OutOrStdout())
		})
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the report of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withStore(cmd, func(store ports.RunStore) error {
			return cli.ShowRun(cmd.Context(), store, args[0], asJSON, cmd.OutOrStdout())
		})
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <run-id>...",
	Short: "Remove one or more runs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.RunStore) error {
			failed := 0
			for _, id := range args {
				if err := cli.DeleteRun(cmd.Context(), store, id, cmd.OutOrStdout()); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("failed to remove %d run(s)", failed)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsLsCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsRmCmd)

	runsShowCmd.Flags().Bool("json", false, "Print the raw run record")
}

func withStore(cmd *cobra.Command, fn func(ports.RunStore) error) error {
	store, closeStore, err := cli.OpenStore(cmd.Context(), envOptions(cmd))
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(store)
}
