package aggregator

import (
	"sort"

	"github.com/forensix-labs/wipetrace/internal/config"
	"github.com/forensix-labs/wipetrace/internal/engine/block"
	"github.com/forensix-labs/wipetrace/internal/engine/scanerr"
)

// Aggregate runs the six-stage pipeline over results, which must be in
// ascending block_id order. Returns an InternalError if that ordering
// invariant is violated — a programmer-logic bug further up the
// pipeline, not a recoverable condition.
func Aggregate(results []block.Result, cfg *config.Config) ([]Region, error) {
	if err := checkMonotone(results); err != nil {
		return nil, err
	}

	byID := make(map[int64]block.Result, len(results))
	for _, r := range results {
		byID[r.BlockID] = r
	}
	blockSize := int64(cfg.BlockSize)

	regions := mergeConsecutive(results)
	regions = absorbNoise(regions, byID, blockSize, cfg.Aggregator.MaxNormalGap)
	regions = sizeFilter(regions, cfg.Aggregator.MinRegionBlocks)
	regions = detectMultiPass(regions, byID, blockSize, cfg.Aggregator.MultiPassGapBlocks, cfg.Aggregator.MultiPassMinBands)
	regions = suppressFalsePositives(regions, cfg.Aggregator.IsolationWindow)
	regions = scoreConfidence(regions, byID, cfg.Confidence)

	sort.Slice(regions, func(i, j int) bool { return regions[i].StartOffset < regions[j].StartOffset })
	for i := range regions {
		regions[i].ID = i + 1
	}

	return regions, nil
}

func checkMonotone(results []block.Result) error {
	for i := 1; i < len(results); i++ {
		if results[i].BlockID <= results[i-1].BlockID {
			return scanerr.NewInternal("aggregate", errNonMonotone(results[i-1].BlockID, results[i].BlockID))
		}
	}
	return nil
}

type nonMonotoneErr struct{ prev, next int64 }

func (e nonMonotoneErr) Error() string {
	return "non-monotone block ids reached the aggregator"
}

func errNonMonotone(prev, next int64) error { return nonMonotoneErr{prev, next} }

// stage 1 — merge consecutive suspicious blocks of identical type into a
// Region per run.
func mergeConsecutive(results []block.Result) []Region {
	var regions []Region
	var cur *Region

	for _, r := range results {
		if !r.IsSuspicious {
			cur = nil
			continue
		}
		if cur != nil && cur.WipeType == r.WipeType && r.BlockID == cur.Blocks[len(cur.Blocks)-1]+1 {
			cur.Blocks = append(cur.Blocks, r.BlockID)
			continue
		}
		regions = append(regions, Region{WipeType: r.WipeType, Blocks: []int64{r.BlockID}})
		cur = &regions[len(regions)-1]
	}
	return regions
}

// stage 2 — fuse neighbouring same-type regions separated by a small gap,
// since real wipe tools skip filesystem metadata blocks.
func absorbNoise(regions []Region, byID map[int64]block.Result, blockSize int64, maxGap int) []Region {
	if len(regions) == 0 {
		return regions
	}

	var out []Region
	cur := regions[0]
	for i := 1; i < len(regions); i++ {
		next := regions[i]
		gap := next.Blocks[0] - cur.Blocks[len(cur.Blocks)-1] - 1
		if next.WipeType == cur.WipeType && gap >= 0 && gap <= int64(maxGap) {
			for id := cur.Blocks[len(cur.Blocks)-1] + 1; id < next.Blocks[0]; id++ {
				cur.Blocks = append(cur.Blocks, id)
			}
			cur.Blocks = append(cur.Blocks, next.Blocks...)
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)

	for i := range out {
		finalize(&out[i], byID, blockSize)
	}
	return out
}

// stage 3 — drop isolated regions too small to be meaningful evidence.
func sizeFilter(regions []Region, minBlocks int) []Region {
	var out []Region
	for _, r := range regions {
		if r.BlockCount >= minBlocks {
			out = append(out, r)
		}
	}
	return out
}

// stage 4 — greedily consolidate alternating strong-wipe bands (the
// Gutmann/DoD multi-pass signature) into a single MULTI_PASS region.
func detectMultiPass(regions []Region, byID map[int64]block.Result, blockSize int64, gapBlocks, minBands int) []Region {
	var out []Region
	i := 0
	for i < len(regions) {
		if !regions[i].WipeType.IsStrong() {
			out = append(out, regions[i])
			i++
			continue
		}

		group := []Region{regions[i]}
		j := i + 1
		for j < len(regions) {
			prev := group[len(group)-1]
			next := regions[j]
			if !next.WipeType.IsStrong() || next.WipeType == prev.WipeType {
				break
			}
			gap := next.Blocks[0] - prev.Blocks[len(prev.Blocks)-1] - 1
			if gap < 0 || gap > int64(gapBlocks) {
				break
			}
			group = append(group, next)
			j++
		}

		if len(group) >= minBands {
			merged := Region{WipeType: block.MultiPass}
			for _, g := range group {
				merged.Blocks = append(merged.Blocks, g.Blocks...)
			}
			sort.Slice(merged.Blocks, func(a, b int) bool { return merged.Blocks[a] < merged.Blocks[b] })
			finalize(&merged, byID, blockSize)
			out = append(out, merged)
			i = j
		} else {
			out = append(out, regions[i])
			i++
		}
	}
	return out
}

// stage 5 — drop PARTIAL regions with no surviving STRONG evidence within
// ISOLATION_WINDOW blocks; such regions are more likely sparse legitimate
// content than deliberate wiping.
func suppressFalsePositives(regions []Region, isolationWindow int) []Region {
	var strongBlocks []int64
	for _, r := range regions {
		if r.WipeType.IsStrong() {
			strongBlocks = append(strongBlocks, r.Blocks...)
		}
	}
	sort.Slice(strongBlocks, func(i, j int) bool { return strongBlocks[i] < strongBlocks[j] })

	var out []Region
	for _, r := range regions {
		if !r.WipeType.IsPartial() {
			out = append(out, r)
			continue
		}
		lo := r.Blocks[0] - int64(isolationWindow)
		hi := r.Blocks[len(r.Blocks)-1] + int64(isolationWindow)
		if hasBlockInRange(strongBlocks, lo, hi) {
			out = append(out, r)
		}
	}
	return out
}

func hasBlockInRange(sorted []int64, lo, hi int64) bool {
	idx := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= lo })
	return idx < len(sorted) && sorted[idx] <= hi
}

// stage 6 — combine member confidence, region size, suspicious density,
// and a per-type adjustment into the region's final confidence.
func scoreConfidence(regions []Region, byID map[int64]block.Result, weights config.ConfidenceWeights) []Region {
	for i := range regions {
		r := &regions[i]

		var sumConf float64
		var suspicious int
		for _, id := range r.Blocks {
			res := byID[id]
			sumConf += res.Confidence
			if res.IsSuspicious {
				suspicious++
			}
		}
		avgConf := sumConf / float64(len(r.Blocks))

		sizeBonus := min1(float64(r.BlockCount)/weights.SizeBonusDivisor) * weights.SizeBonusWeight
		densityRatio := float64(suspicious) / float64(len(r.Blocks))
		densityBonus := (densityRatio - 0.5) * weights.DensityBonusWeight
		typeAdj := weights.TypeAdjustments[r.WipeType.String()]

		r.Confidence = round3(clamp01(avgConf + sizeBonus + densityBonus + typeAdj))
	}
	return regions
}

func finalize(r *Region, byID map[int64]block.Result, blockSize int64) {
	sort.Slice(r.Blocks, func(i, j int) bool { return r.Blocks[i] < r.Blocks[j] })
	first, last := r.Blocks[0], r.Blocks[len(r.Blocks)-1]
	r.BlockCount = len(r.Blocks)
	r.StartOffset = first * blockSize
	r.EndOffset = (last+1)*blockSize - 1
	r.Size = r.EndOffset - r.StartOffset + 1

	var sum float64
	for _, id := range r.Blocks {
		if res, ok := byID[id]; ok {
			sum += res.Entropy
		}
	}
	r.AvgEntropy = round3(sum / float64(len(r.Blocks)))
}

func min1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round3(v float64) float64 {
	return float64(int64(v*1000+sign(v)*0.5)) / 1000
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
