package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liveenity/liveenity"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the liveenity version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "liveenity %s\n", liveenity.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
