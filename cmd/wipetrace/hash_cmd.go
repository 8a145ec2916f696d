package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/forensix-labs/wipetrace/internal/config"
	"github.com/forensix-labs/wipetrace/internal/forensics/hashing"
)

// Allow tests to inject a fake hash function.
var runHashFile = hashing.HashFile

func createHashCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash IMAGE_PATH",
		Short: "compute the SHA-256 of a disk image",
		Args:  cobra.ExactArgs(1),
		RunE:  executeHash,
	}
	return cmd
}

func executeHash(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg := config.Default()

	var bar *progressbar.ProgressBar
	sha, err := runHashFile(path, cfg.IO.HashChunk, func(done, total int64) {
		if total <= 0 {
			return
		}
		if bar == nil {
			bar = progressbar.Default(total, "hashing")
		}
		bar.Set64(done)
	})
	if err != nil {
		return fmt.Errorf("hash image: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), sha)
	return nil
}
