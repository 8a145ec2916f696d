// Command wipetrace scans disk images for evidence of deliberate data
// wiping and can serve the same pipeline over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "wipetrace",
		Short: "Forensic disk-wipe detection",
		Long: `wipetrace streams a raw disk image block by block, classifies each
block's wipe signature, aggregates the suspicious regions, and scores the
scan's overall deliberate-wipe intent.`,
	}

	root.AddCommand(createScanCommand())
	root.AddCommand(createServeCommand())
	root.AddCommand(createHashCommand())
	root.AddCommand(createVerifyCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
