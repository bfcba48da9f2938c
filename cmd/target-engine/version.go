package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of target-engine",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("target-engine %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
