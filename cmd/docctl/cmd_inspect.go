package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docforge/docforge/docfile"
	"github.com/docforge/docforge/recordlog"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a summary of a record-log or document-file artifact",
}

var inspectRecordlogCmd = &cobra.Command{
	Use:   "recordlog <path>",
	Short: "Summarize a record-log file's recovered records and logical-end marker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := recordlog.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		fmt.Printf("records: %d\n", r.LogicalLen())
		if count, ok := r.LastLogicalEnd(); ok {
			fmt.Printf("logical end marker: %d records\n", count)
		} else {
			fmt.Println("logical end marker: none (file was never closed cleanly)")
		}
		return nil
	},
}

var inspectDocfileCmd = &cobra.Command{
	Use:   "docfile <path>",
	Short: "Summarize a document-file's directory and digest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := docfile.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		fmt.Printf("segments: %d\n", r.SegmentCount())
		digest, err := r.ComputeDigest()
		if err != nil {
			return err
		}
		fmt.Printf("digest: %x\n", digest)
		for i := 0; i < r.SegmentCount(); i++ {
			info, _, err := r.GetSegment(i)
			if err != nil {
				return err
			}
			fmt.Printf("  [%d] kind=%s compression=%s uncompressed=%d compressed=%d sha256=%x\n",
				i, info.Kind, info.Compression, info.UncompressedLen, info.CompressedLen, info.SHA256)
		}
		return nil
	},
}

func init() {
	inspectCmd.AddCommand(inspectRecordlogCmd)
	inspectCmd.AddCommand(inspectDocfileCmd)
}
