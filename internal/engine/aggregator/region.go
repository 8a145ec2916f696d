// Package aggregator turns a flat, ascending-block_id stream of
// classifier results into a Region list: contiguous runs of suspicious
// blocks, noise-absorbed, size-filtered, multi-pass consolidated,
// false-positive suppressed, and confidence-scored.
package aggregator

import "github.com/forensix-labs/wipetrace/internal/engine/block"

// Region is a contiguous (or noise-absorbed) span of suspicious blocks
// sharing a single wipe classification.
type Region struct {
	ID          int
	WipeType    block.WipeType
	Blocks      []int64 // member block ids, ascending, unique
	StartOffset int64
	EndOffset   int64 // inclusive last byte of the region
	Size        int64
	BlockCount  int
	AvgEntropy  float64
	Confidence  float64
}
