package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forensix-labs/wipetrace/internal/forensics/evidence"
)

// Allow tests to inject a fake verifier.
var runVerifyEvidence = evidence.Verify

func createVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify RESULT_DOCUMENT KEYRING SIGNATURE",
		Short: "verify a result document's detached OpenPGP signature",
		Args:  cobra.ExactArgs(3),
		RunE:  executeVerify,
	}
	return cmd
}

func executeVerify(cmd *cobra.Command, args []string) error {
	docPath, keyringPath, sigPath := args[0], args[1], args[2]

	docData, err := os.ReadFile(docPath)
	if err != nil {
		return fmt.Errorf("read result document: %w", err)
	}

	if err := runVerifyEvidence(docData, keyringPath, sigPath); err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "signature OK")
	return nil
}
