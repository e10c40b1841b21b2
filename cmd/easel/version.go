package main

import (
	"fmt"

	"github.com/aretw0/easel/internal/cli"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of easel",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), cli.VersionString())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
