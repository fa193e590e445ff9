package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docforge/docforge/docfile"
	"github.com/docforge/docforge/recordlog"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a record-log or document-file artifact for integrity",
}

var verifyRecordlogCmd = &cobra.Command{
	Use:   "recordlog <path>",
	Short: "Recover a record-log and report how many records passed their CRC check",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := recordlog.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		fmt.Printf("ok: %d records recovered\n", r.LogicalLen())
		return nil
	},
}

var verifyDocfileCmd = &cobra.Command{
	Use:   "docfile <path>",
	Short: "Cross-check every segment frame against its directory entry, re-hash uncompressed segments, and print the whole-file digest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := docfile.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.Verify(); err != nil {
			return err
		}
		digest, err := r.ComputeDigest()
		if err != nil {
			return err
		}
		fmt.Printf("ok: %d segments verified, digest %x\n", r.SegmentCount(), digest)
		return nil
	},
}

func init() {
	verifyCmd.AddCommand(verifyRecordlogCmd)
	verifyCmd.AddCommand(verifyDocfileCmd)
}
