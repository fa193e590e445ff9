package main

import (
	"github.com/spf13/cobra"
)

var flagConfigPath string

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Inspect and verify docforge record-log and document-file artifacts",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to a YAML configuration file (accepted, but not read by any subcommand)")
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(verifyCmd)
}
