// Package scorer computes the scan-level ScanStats: a density fast-path
// floor combined with a weighted-evidence score, the two folded into a
// single verdict where density can only raise it.
package scorer

import (
	"math"

	"github.com/forensix-labs/wipetrace/internal/config"
	"github.com/forensix-labs/wipetrace/internal/engine/aggregator"
	"github.com/forensix-labs/wipetrace/internal/engine/block"
)

// Verdict is the closed taxonomy of scan-level outcomes, ordered
// NEGLIGIBLE < LOW < MEDIUM < HIGH.
type Verdict uint8

const (
	Negligible Verdict = iota
	Low
	Medium
	High
)

var verdictNames = [...]string{Negligible: "NEGLIGIBLE", Low: "LOW", Medium: "MEDIUM", High: "HIGH"}

func (v Verdict) String() string { return verdictNames[v] }

// MarshalJSON encodes the verdict as its string label.
func (v Verdict) MarshalJSON() ([]byte, error) { return []byte(`"` + v.String() + `"`), nil }

// ScanStats is the scan-level summary assembled from every block result
// and the aggregated region list.
type ScanStats struct {
	TotalBlocks        int64
	SuspiciousBlocks   int64
	SuspiciousPct      float64
	WipeDensity        float64
	RegionsCount       int
	AvgEntropyFlagged  float64
	IntentScore        int
	Verdict            Verdict
	WipeTypeCounts      map[string]int64
}

// Compute derives the scan-level stats and verdict from the full block
// result stream and the aggregator's region list. O(N) in the block
// count.
func Compute(results []block.Result, regions []aggregator.Region, weights config.ScorerWeights) ScanStats {
	stats := ScanStats{
		TotalBlocks:    int64(len(results)),
		RegionsCount:   len(regions),
		WipeTypeCounts: make(map[string]int64),
	}
	if len(results) == 0 {
		stats.Verdict = Negligible
		return stats
	}

	var entropySum float64
	for _, r := range results {
		stats.WipeTypeCounts[r.WipeType.String()]++
		if r.IsSuspicious {
			stats.SuspiciousBlocks++
			entropySum += r.Entropy
		}
	}

	stats.SuspiciousPct = round2(100 * float64(stats.SuspiciousBlocks) / float64(stats.TotalBlocks))
	stats.WipeDensity = round4(float64(stats.SuspiciousBlocks) / float64(stats.TotalBlocks))
	if stats.SuspiciousBlocks > 0 {
		stats.AvgEntropyFlagged = round3(entropySum / float64(stats.SuspiciousBlocks))
	}

	densityVerdict := densityFloor(stats.WipeDensity, stats.SuspiciousBlocks, weights)
	raw := weightedScore(results, regions, weights)
	stats.IntentScore = clampScore(int(math.Round(raw)))
	scoreVerdict := verdictFromScore(stats.IntentScore, weights)

	stats.Verdict = maxVerdict(densityVerdict, scoreVerdict)
	return stats
}

func densityFloor(density float64, suspicious int64, w config.ScorerWeights) Verdict {
	switch {
	case density > w.DensityHighFloor:
		return High
	case density > w.DensityMediumFloor:
		return Medium
	case density > w.DensityLowFloor:
		return Low
	case suspicious >= int64(w.DensityLowMinCount):
		return Low
	default:
		return Negligible
	}
}

func weightedScore(results []block.Result, regions []aggregator.Region, w config.ScorerWeights) float64 {
	susp := 0
	for _, r := range results {
		if r.IsSuspicious {
			susp++
		}
	}
	suspPct := 100 * float64(susp) / float64(len(results))

	var randomRegions, multiPassRegions int
	var partialBlocks, strongBlocks int
	var confSum float64
	for _, r := range regions {
		switch r.WipeType {
		case block.RandomWipe:
			randomRegions++
		case block.MultiPass:
			multiPassRegions++
		}
		if r.WipeType.IsStrong() {
			strongBlocks += r.BlockCount
		}
		if r.WipeType.IsPartial() {
			partialBlocks += r.BlockCount
		}
		confSum += r.Confidence
	}

	score := minF(suspPct/w.CoverageMaxPct, 1) * w.CoveragePoints
	score += minF(float64(len(regions))/w.RegionsMaxCount, 1) * w.RegionsPoints
	score += minF(float64(randomRegions)/w.RandomMaxCount, 1) * w.RandomPoints
	score += minF(float64(multiPassRegions)/w.MultiPassMaxCnt, 1) * w.MultiPassPoints

	if partialBlocks > strongBlocks && strongBlocks < w.StrongFloor {
		score -= w.PartialPenalty
	}
	if len(regions) > 0 {
		avgConf := confSum / float64(len(regions))
		if avgConf < w.LowConfThreshold {
			score -= w.LowConfPenalty
		}
	}

	return score
}

func verdictFromScore(score int, w config.ScorerWeights) Verdict {
	switch {
	case score >= w.ScoreHighMin:
		return High
	case score >= w.ScoreMediumMin:
		return Medium
	case score >= w.ScoreLowMin:
		return Low
	default:
		return Negligible
	}
}

func maxVerdict(a, b Verdict) Verdict {
	if a > b {
		return a
	}
	return b
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func minF(v, cap float64) float64 {
	if v > cap {
		return cap
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
