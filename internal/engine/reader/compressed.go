package reader

import (
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// Compression identifies the transparent decompression applied to an
// image's byte stream before it reaches the classifier. Forensic images
// are routinely shipped compressed to save chain-of-custody storage;
// random-access ReadBlock is unavailable on a compressed source since
// decompression streams can't seek.
type Compression int

const (
	NoCompression Compression = iota
	Gzip
	Xz
)

func detectCompression(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".gz"), strings.HasSuffix(path, ".gzip"):
		return Gzip
	case strings.HasSuffix(path, ".xz"):
		return Xz
	default:
		return NoCompression
	}
}

// wrapDecompress wraps r for the given compression, returning a cleanup
// func that releases any decompressor-owned resources (the underlying
// file is closed separately by the caller).
func wrapDecompress(r io.Reader, c Compression) (io.Reader, func(), error) {
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, func() {}, err
		}
		return zr, func() { zr.Close() }, nil
	case Xz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, func() {}, err
		}
		return xr, func() {}, nil
	default:
		return r, func() {}, nil
	}
}
