package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/forensix-labs/wipetrace/internal/forensics/evidence"
)

func resetVerifyFlags() {
	runVerifyEvidence = evidence.Verify
}

func TestVerifyCommandPrintsOKOnValidSignature(t *testing.T) {
	defer resetVerifyFlags()
	runVerifyEvidence = func(docData []byte, keyringPath, sigPath string) error {
		return nil
	}

	dir := t.TempDir()
	docPath := filepath.Join(dir, "result.json")
	os.WriteFile(docPath, []byte(`{"session_id":"SID-DEADBEEF"}`), 0o644)

	cmd := createVerifyCommand()
	out, err := execCmd(t, cmd, docPath, "keyring.asc", "result.json.asc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "signature OK\n" {
		t.Fatalf("want confirmation on stdout, got %q", out)
	}
}

func TestVerifyCommandSurfacesVerificationFailure(t *testing.T) {
	defer resetVerifyFlags()
	runVerifyEvidence = func(docData []byte, keyringPath, sigPath string) error {
		return errors.New("signature does not verify")
	}

	dir := t.TempDir()
	docPath := filepath.Join(dir, "result.json")
	os.WriteFile(docPath, []byte(`{"session_id":"SID-DEADBEEF"}`), 0o644)

	cmd := createVerifyCommand()
	_, err := execCmd(t, cmd, docPath, "keyring.asc", "result.json.asc")
	if err == nil {
		t.Fatalf("want error surfaced from verifier")
	}
}

func TestVerifyCommandMissingDocumentIsError(t *testing.T) {
	defer resetVerifyFlags()
	cmd := createVerifyCommand()
	_, err := execCmd(t, cmd, "/nonexistent/result.json", "keyring.asc", "result.json.asc")
	if err == nil {
		t.Fatalf("want error for missing result document")
	}
}
