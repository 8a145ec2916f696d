package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/forensix-labs/wipetrace/internal/engine/scanerr"
)

func TestHashFileMatchesStdlibSHA256(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.raw")
	data := []byte("the quick brown fox jumps over the lazy dog, many times over")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := sha256.Sum256(data)
	got, err := HashFile(path, 8, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != hex.EncodeToString(want[:]) {
		t.Fatalf("hash mismatch: want %s got %s", hex.EncodeToString(want[:]), got)
	}
}

func TestHashFileMissingFileIsInputError(t *testing.T) {
	_, err := HashFile("/nonexistent/path/image.raw", 1024, nil)
	if err == nil {
		t.Fatalf("want error for missing file")
	}
	var inputErr *scanerr.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("want *scanerr.InputError for missing file, got %T: %v", err, err)
	}
}

func TestHashFileReportsProgress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.raw")
	data := make([]byte, 100)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var lastDone int64
	_, err := HashFile(path, 10, func(done, total int64) {
		if done < lastDone {
			t.Fatalf("progress regressed")
		}
		lastDone = done
		if total != 100 {
			t.Fatalf("want total 100, got %d", total)
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lastDone != 100 {
		t.Fatalf("want final progress 100, got %d", lastDone)
	}
}
