// Package hashing computes the SHA-256 of an image file in bounded
// chunks, mirroring hash_file() from the source's hashing module.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/forensix-labs/wipetrace/internal/engine/scanerr"
)

// ProgressFunc receives bytes hashed so far and the file's total size.
type ProgressFunc func(bytesDone, totalBytes int64)

// HashFile streams path through SHA-256 in chunkSize-byte reads,
// reporting progress if progress is non-nil.
func HashFile(path string, chunkSize int64, progress ProgressFunc) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", scanerr.NewInput("hash", err)
		}
		return "", scanerr.NewIO("hash", err)
	}
	defer f.Close()

	var total int64
	if info, err := f.Stat(); err == nil {
		total = info.Size()
	}

	if chunkSize <= 0 {
		chunkSize = 1024 * 1024
	}

	h := sha256.New()
	buf := make([]byte, chunkSize)
	var done int64
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			done += int64(n)
			if progress != nil {
				progress(done, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", scanerr.NewIO("hash", readErr)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
