// Command docctl inspects and verifies record-log and document-file
// artifacts produced by this module.
package main

import (
	"fmt"
	"os"
)

const appName = "docctl"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
