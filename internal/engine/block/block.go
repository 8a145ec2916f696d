// Package block defines the data types shared across the scan pipeline:
// raw Blocks read from an image, the per-block classification result,
// and the closed WipeType enum.
package block

import "fmt"

// WipeType is the closed set of per-block classification labels. It is a
// tagged variant rather than a bare string so that callers are forced
// through an exhaustive switch instead of string comparison.
type WipeType uint8

const (
	Normal WipeType = iota
	ZeroWipe
	FFWipe
	RandomWipe
	MultiPass
	LikelyZeroWipe
	LikelyFFWipe
	LowEntropySuspect
	Unallocated
)

var wipeTypeNames = [...]string{
	Normal:            "NORMAL",
	ZeroWipe:          "ZERO_WIPE",
	FFWipe:            "FF_WIPE",
	RandomWipe:        "RANDOM_WIPE",
	MultiPass:         "MULTI_PASS",
	LikelyZeroWipe:    "LIKELY_ZERO_WIPE",
	LikelyFFWipe:      "LIKELY_FF_WIPE",
	LowEntropySuspect: "LOW_ENTROPY_SUSPECT",
	Unallocated:       "UNALLOCATED",
}

// String returns the wire label for t, e.g. "ZERO_WIPE".
func (t WipeType) String() string {
	if int(t) < len(wipeTypeNames) {
		return wipeTypeNames[t]
	}
	return fmt.Sprintf("WipeType(%d)", uint8(t))
}

// MarshalJSON encodes the wipe type as its string label.
func (t WipeType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// ParseWipeType resolves a wire label back to a WipeType.
func ParseWipeType(s string) (WipeType, bool) {
	for i, name := range wipeTypeNames {
		if name == s {
			return WipeType(i), true
		}
	}
	return Normal, false
}

// IsSuspicious reports whether t warrants forensic attention.
func (t WipeType) IsSuspicious() bool {
	switch t {
	case ZeroWipe, FFWipe, RandomWipe, MultiPass,
		LikelyZeroWipe, LikelyFFWipe, LowEntropySuspect:
		return true
	default:
		return false
	}
}

// IsStrong reports whether t belongs to the "strong wipe" evidence class:
// ZERO_WIPE, FF_WIPE, RANDOM_WIPE, MULTI_PASS.
func (t WipeType) IsStrong() bool {
	switch t {
	case ZeroWipe, FFWipe, RandomWipe, MultiPass:
		return true
	default:
		return false
	}
}

// IsPartial reports whether t belongs to the "partial wipe" evidence
// class that requires strong-wipe corroboration to survive aggregation.
func (t WipeType) IsPartial() bool {
	switch t {
	case LikelyZeroWipe, LikelyFFWipe, LowEntropySuspect:
		return true
	default:
		return false
	}
}

// Block is one fixed-size slice of the image, the unit of classification.
type Block struct {
	ID     int64
	Offset int64
	Data   []byte
}

// Result is the classifier's output for a single block.
type Result struct {
	BlockID      int64
	Offset       int64
	WipeType     WipeType
	Entropy      float64
	Confidence   float64
	DominantByte byte
	DominantPct  float64
	ZeroRatio    float64
	FFRatio      float64
	IsSuspicious bool
}
