package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/forensix-labs/wipetrace/internal/config"
	"github.com/forensix-labs/wipetrace/internal/engine/block"
	"github.com/forensix-labs/wipetrace/internal/engine/orchestrator"
	"github.com/forensix-labs/wipetrace/internal/engine/scorer"
	"github.com/forensix-labs/wipetrace/internal/utils/logger"
)

func TestMain(m *testing.M) {
	restore := logger.SetForTest()
	defer restore()
	os.Exit(m.Run())
}

func resetScanFlags() {
	scanOutputFormat = "text"
	scanOutputPath = ""
	scanConfigPath = ""
	scanSealKeyring = ""
	scanSealSigPath = ""
	runOrchestrator = orchestrator.Run
}

func fakeOutcome() *orchestrator.Outcome {
	return &orchestrator.Outcome{
		Results: []block.Result{{BlockID: 0, WipeType: block.ZeroWipe, Entropy: 0, Confidence: 0.97, IsSuspicious: true}},
		Regions: nil,
		Stats:   scorer.ScanStats{TotalBlocks: 1, Verdict: scorer.High, IntentScore: 80, WipeTypeCounts: map[string]int64{}},
	}
}

func execCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCreateScanCommandMetadata(t *testing.T) {
	defer resetScanFlags()
	cmd := createScanCommand()

	if cmd.Use != "scan [flags] IMAGE_PATH SESSION_ID [SHA256]" {
		t.Errorf("unexpected Use: %q", cmd.Use)
	}
	if cmd.Flags().Lookup("format") == nil {
		t.Error("--format flag should be registered")
	}
}

func TestScanCommandRejectsUnsupportedFormat(t *testing.T) {
	defer resetScanFlags()
	cmd := createScanCommand()

	dir := t.TempDir()
	imagePath := filepath.Join(dir, "disk.img")
	os.WriteFile(imagePath, []byte{0x00}, 0o644)

	_, err := execCmd(t, cmd, "--format", "xml", imagePath, "SID-00000000")
	if err == nil {
		t.Fatalf("want error for unsupported format")
	}
}

func TestScanCommandRequiresSessionID(t *testing.T) {
	defer resetScanFlags()
	cmd := createScanCommand()

	dir := t.TempDir()
	imagePath := filepath.Join(dir, "disk.img")
	os.WriteFile(imagePath, []byte{0x00}, 0o644)

	_, err := execCmd(t, cmd, imagePath)
	if err == nil {
		t.Fatalf("want error when session id is omitted")
	}
}

func TestScanCommandRendersTextOutput(t *testing.T) {
	defer resetScanFlags()
	runOrchestrator = func(ctx context.Context, path string, cfg *config.Config, opts orchestrator.Options) (*orchestrator.Outcome, error) {
		return fakeOutcome(), nil
	}

	dir := t.TempDir()
	imagePath := filepath.Join(dir, "disk.img")
	os.WriteFile(imagePath, []byte{0x00}, 0o644)

	outPath := filepath.Join(dir, "result.json")
	cmd := createScanCommand()

	out, err := execCmd(t, cmd, "--out", outPath, imagePath, "SID-DEADBEEF", "deadbeefcafe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("HIGH")) {
		t.Fatalf("want verdict HIGH in output, got %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("SID-DEADBEEF")) {
		t.Fatalf("want the given session id echoed in output, got %q", out)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("want result document written, got %v", err)
	}
}

func TestScanCommandSurfacesOrchestratorError(t *testing.T) {
	defer resetScanFlags()
	runOrchestrator = func(ctx context.Context, path string, cfg *config.Config, opts orchestrator.Options) (*orchestrator.Outcome, error) {
		return nil, errors.New("boom")
	}

	dir := t.TempDir()
	imagePath := filepath.Join(dir, "disk.img")
	os.WriteFile(imagePath, []byte{0x00}, 0o644)

	cmd := createScanCommand()
	_, err := execCmd(t, cmd, imagePath, "SID-00000000")
	if err == nil {
		t.Fatalf("want error surfaced from orchestrator")
	}
}

func TestScanCommandSealsResultDocumentWhenKeyringGiven(t *testing.T) {
	defer resetScanFlags()
	runOrchestrator = func(ctx context.Context, path string, cfg *config.Config, opts orchestrator.Options) (*orchestrator.Outcome, error) {
		return fakeOutcome(), nil
	}

	dir := t.TempDir()
	imagePath := filepath.Join(dir, "disk.img")
	os.WriteFile(imagePath, []byte{0x00}, 0o644)

	keyringPath := writeTestPrivateKeyring(t, dir)

	outPath := filepath.Join(dir, "result.json")
	sigPath := filepath.Join(dir, "result.json.asc")
	cmd := createScanCommand()

	_, err := execCmd(t, cmd, "--out", outPath, "--seal-key", keyringPath, "--seal-out", sigPath,
		imagePath, "SID-DEADBEEF", "deadbeefcafe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(sigPath); err != nil {
		t.Fatalf("want signature written, got %v", err)
	}
}
