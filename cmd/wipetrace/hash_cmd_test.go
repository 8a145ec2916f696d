package main

import (
	"testing"

	"github.com/forensix-labs/wipetrace/internal/forensics/hashing"
)

func resetHashFlags() {
	runHashFile = hashing.HashFile
}

func TestHashCommandPrintsDigest(t *testing.T) {
	defer resetHashFlags()
	runHashFile = func(path string, chunkSize int64, progress hashing.ProgressFunc) (string, error) {
		return "deadbeef", nil
	}

	cmd := createHashCommand()
	out, err := execCmd(t, cmd, "anything.img")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "deadbeef\n" {
		t.Fatalf("want digest on stdout, got %q", out)
	}
}
