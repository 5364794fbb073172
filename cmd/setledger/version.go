package main

import (
	"fmt"

	"github.com/aretw0/setledger"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of setledger",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("setledger version %s\n", setledger.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
