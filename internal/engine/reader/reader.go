// Package reader streams a raw disk image in fixed-size blocks.
//
// It never loads the full image into memory, reads in large chunks to
// minimize syscall overhead, and exposes a random-access ReadBlock for
// tooling that wants to fetch a single block (e.g. a hex-viewer
// collaborator, or re-classifying one block in isolation).
package reader

import (
	"context"
	"io"
	"os"

	"github.com/forensix-labs/wipetrace/internal/config"
	"github.com/forensix-labs/wipetrace/internal/engine/block"
	"github.com/forensix-labs/wipetrace/internal/engine/scanerr"
)

// BlockReader streams a raw image file as a sequence of fixed-size
// blocks, optionally bounded to [startBlock, endBlock].
type BlockReader struct {
	cfg *config.Config

	path        string
	file        *os.File
	compression Compression

	blockSize  int64
	startBlock int64
	endBlock   int64 // inclusive; -1 means "to EOF"

	imageSize   int64 // -1 when unknown (compressed source)
	totalBlocks int64 // -1 when unknown (compressed source)
}

// Option configures Open.
type Option func(*BlockReader)

// WithRange restricts the emitted block range to [start, end] inclusive.
// end == -1 means "through EOF".
func WithRange(start, end int64) Option {
	return func(r *BlockReader) {
		r.startBlock = start
		r.endBlock = end
	}
}

// Open opens path for streaming. It fails with scanerr.InputError when
// the path does not resolve.
func Open(path string, cfg *config.Config, opts ...Option) (*BlockReader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, scanerr.NewInput("open", err)
		}
		return nil, scanerr.NewIO("open", err)
	}

	r := &BlockReader{
		cfg:        cfg,
		path:       path,
		file:       f,
		blockSize:  int64(cfg.BlockSize),
		startBlock: 0,
		endBlock:   -1,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.compression = detectCompression(path)

	if r.compression == NoCompression {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, scanerr.NewIO("stat", err)
		}
		r.imageSize = info.Size()
		r.totalBlocks = (r.imageSize + r.blockSize - 1) / r.blockSize
	} else {
		// A compressed stream's decompressed size isn't known without a
		// full pass; progress reporting degrades to "blocks done" only.
		r.imageSize = -1
		r.totalBlocks = -1
	}

	return r, nil
}

// Close releases the underlying file handle.
func (r *BlockReader) Close() error {
	return r.file.Close()
}

// ImageSize returns the image size in bytes, or -1 if unknown (a
// compressed source whose decompressed size hasn't been measured).
func (r *BlockReader) ImageSize() int64 { return r.imageSize }

// TotalBlocks returns the block count, or -1 if unknown.
func (r *BlockReader) TotalBlocks() int64 { return r.totalBlocks }

// SupportsRandomAccess reports whether ReadBlock can be used — false for
// compressed sources, which cannot seek.
func (r *BlockReader) SupportsRandomAccess() bool { return r.compression == NoCompression }

// Each streams every Block in [startBlock, endBlock] to fn in ascending
// ID order, stopping early — without error — if ctx is cancelled between
// blocks. fn errors abort the scan and are returned wrapped as IOError.
func (r *BlockReader) Each(ctx context.Context, fn func(block.Block) error) error {
	src, cleanup, err := r.openStream()
	if err != nil {
		return err
	}
	defer cleanup()

	chunkBlocks := int64(r.cfg.IO.ReadChunkBlocks)
	if chunkBlocks <= 0 {
		chunkBlocks = 1024
	}
	chunkSize := chunkBlocks * r.blockSize
	buf := make([]byte, chunkSize)

	blockID := r.startBlock
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if r.endBlock >= 0 && blockID > r.endBlock {
			return nil
		}

		n, readErr := io.ReadFull(src, buf)
		if n == 0 {
			if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
				return nil
			}
			if readErr != nil {
				return scanerr.NewIO("read", readErr)
			}
		}

		for off := 0; off < n; off += int(r.blockSize) {
			if err := ctx.Err(); err != nil {
				return nil
			}
			if r.endBlock >= 0 && blockID > r.endBlock {
				return nil
			}

			end := off + int(r.blockSize)
			if end > n {
				end = n
			}
			data := buf[off:end]
			if len(data) == 0 {
				break
			}

			blk := block.Block{
				ID:     blockID,
				Offset: blockID * r.blockSize,
				Data:   append([]byte(nil), data...),
			}
			if err := fn(blk); err != nil {
				return scanerr.NewIO("classify", err)
			}
			blockID++
		}

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			return nil
		}
		if readErr != nil {
			return scanerr.NewIO("read", readErr)
		}
	}
}

func (r *BlockReader) openStream() (io.Reader, func(), error) {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return nil, func() {}, scanerr.NewIO("seek", err)
	}

	decompressed, closer, err := wrapDecompress(r.file, r.compression)
	if err != nil {
		return nil, func() {}, scanerr.NewIO("decompress", err)
	}

	if r.compression == NoCompression && r.startBlock > 0 {
		if _, err := r.file.Seek(r.startBlock*r.blockSize, io.SeekStart); err != nil {
			return nil, func() {}, scanerr.NewIO("seek", err)
		}
	} else if r.compression != NoCompression && r.startBlock > 0 {
		// Compressed sources can't seek: skip by discarding bytes.
		if _, err := io.CopyN(io.Discard, decompressed, r.startBlock*r.blockSize); err != nil && err != io.EOF {
			return nil, func() {}, scanerr.NewIO("skip", err)
		}
	}

	return decompressed, closer, nil
}

// ReadBlock performs a random-access read of a single block by ID.
func (r *BlockReader) ReadBlock(id int64) (block.Block, error) {
	if !r.SupportsRandomAccess() {
		return block.Block{}, scanerr.ErrRandomAccessUnsupported
	}

	offset := id * r.blockSize
	if offset >= r.imageSize {
		return block.Block{}, scanerr.NewInput("read_block", io.ErrUnexpectedEOF)
	}

	buf := make([]byte, r.blockSize)
	n, err := r.file.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return block.Block{}, scanerr.NewIO("read_block", err)
	}

	return block.Block{ID: id, Offset: offset, Data: buf[:n]}, nil
}
