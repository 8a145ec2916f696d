// Package config holds the single configuration object shared by every
// pipeline component (block size, classifier thresholds, aggregator
// tuning, scorer weights, and I/O limits). Components take it by
// reference; nothing duplicates these constants as package globals.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BlockSize is the compile-time block size, fixed at one NTFS/ext4
// cluster. The source system shipped two reader variants (512 and 4096
// byte blocks) with divergent thresholds; mixing block sizes across
// components is a configuration error, so this is the only constant
// every package imports for it.
const BlockSize = 4096

// ClassifierThresholds holds the per-block decision-tree cutoffs.
type ClassifierThresholds struct {
	ZeroFFStrongMin   float64 `yaml:"zero_ff_strong_min"`
	ZeroFFPartialMin  float64 `yaml:"zero_ff_partial_min"`
	EntropyFillMax    float64 `yaml:"entropy_fill_max"`
	NonZeroEntropyMin float64 `yaml:"non_zero_entropy_min"`

	EntropyRandomMin  float64 `yaml:"entropy_random_min"`
	UniformityWipeMax float64 `yaml:"uniformity_wipe_max"`

	EntropyLowMin      float64 `yaml:"entropy_low_min"`
	EntropyLowMax      float64 `yaml:"entropy_low_max"`
	SuspectDominantMax float64 `yaml:"suspect_dominant_max"`
	SuspectUniformMax  float64 `yaml:"suspect_uniform_max"`

	MultiPassLo       float64 `yaml:"multi_pass_lo"`
	MultiPassHi       float64 `yaml:"multi_pass_hi"`
	MultiPassUnifMax  float64 `yaml:"multi_pass_unif_max"`

	UnallocatedDomMin float64 `yaml:"unallocated_dom_min"`

	StructureBucketRatio float64 `yaml:"structure_bucket_ratio"`
	StructureRunLength   int     `yaml:"structure_run_length"`
}

// AggregatorThresholds holds the region-aggregation tuning knobs.
type AggregatorThresholds struct {
	MinRegionBlocks    int `yaml:"min_region_blocks"`
	MaxNormalGap       int `yaml:"max_normal_gap"`
	MultiPassGapBlocks int `yaml:"multi_pass_gap_blocks"`
	MultiPassMinBands  int `yaml:"multi_pass_min_bands"`
	IsolationWindow    int `yaml:"isolation_window"`
}

// ConfidenceWeights holds the region-confidence formula coefficients.
type ConfidenceWeights struct {
	SizeBonusDivisor   float64            `yaml:"size_bonus_divisor"`
	SizeBonusWeight    float64            `yaml:"size_bonus_weight"`
	DensityBonusWeight float64            `yaml:"density_bonus_weight"`
	TypeAdjustments    map[string]float64 `yaml:"type_adjustments"`
}

// ScorerWeights holds the weighted-evidence intent-score coefficients.
type ScorerWeights struct {
	CoverageMaxPct   float64 `yaml:"coverage_max_pct"`
	CoveragePoints   float64 `yaml:"coverage_points"`
	RegionsMaxCount  float64 `yaml:"regions_max_count"`
	RegionsPoints    float64 `yaml:"regions_points"`
	RandomMaxCount   float64 `yaml:"random_max_count"`
	RandomPoints     float64 `yaml:"random_points"`
	MultiPassMaxCnt  float64 `yaml:"multi_pass_max_count"`
	MultiPassPoints  float64 `yaml:"multi_pass_points"`
	PartialPenalty   float64 `yaml:"partial_penalty"`
	StrongFloor      int     `yaml:"strong_floor"`
	LowConfPenalty   float64 `yaml:"low_conf_penalty"`
	LowConfThreshold float64 `yaml:"low_conf_threshold"`

	DensityHighFloor   float64 `yaml:"density_high_floor"`
	DensityMediumFloor float64 `yaml:"density_medium_floor"`
	DensityLowFloor    float64 `yaml:"density_low_floor"`
	DensityLowMinCount int     `yaml:"density_low_min_count"`

	ScoreHighMin   int `yaml:"score_high_min"`
	ScoreMediumMin int `yaml:"score_medium_min"`
	ScoreLowMin    int `yaml:"score_low_min"`
}

// IOLimits holds the upload/session I/O ceilings.
type IOLimits struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	UploadChunk    int64 `yaml:"upload_chunk_bytes"`
	HashChunk      int64 `yaml:"hash_chunk_bytes"`
	ReadChunkBlocks int  `yaml:"read_chunk_blocks"`
	ProgressInterval int `yaml:"progress_interval_blocks"`
}

// Config is the single object every component receives by reference.
type Config struct {
	BlockSize   int                  `yaml:"block_size"`
	Classifier  ClassifierThresholds `yaml:"classifier"`
	Aggregator  AggregatorThresholds `yaml:"aggregator"`
	Confidence  ConfidenceWeights    `yaml:"confidence"`
	Scorer      ScorerWeights        `yaml:"scorer"`
	IO          IOLimits             `yaml:"io"`
}

// Default returns the pipeline's built-in threshold configuration.
func Default() *Config {
	return &Config{
		BlockSize: BlockSize,
		Classifier: ClassifierThresholds{
			ZeroFFStrongMin:      0.90,
			ZeroFFPartialMin:     0.60,
			EntropyFillMax:       0.20,
			NonZeroEntropyMin:    3.5,
			EntropyRandomMin:     7.60,
			UniformityWipeMax:    0.0140,
			EntropyLowMin:        0.21,
			EntropyLowMax:        1.50,
			SuspectDominantMax:   0.85,
			SuspectUniformMax:    0.020,
			MultiPassLo:          3.5,
			MultiPassHi:          6.5,
			MultiPassUnifMax:     0.0080,
			UnallocatedDomMin:    0.70,
			StructureBucketRatio: 2.8,
			StructureRunLength:   64,
		},
		Aggregator: AggregatorThresholds{
			MinRegionBlocks:    16,
			MaxNormalGap:       8,
			MultiPassGapBlocks: 4,
			MultiPassMinBands:  3,
			IsolationWindow:    50,
		},
		Confidence: ConfidenceWeights{
			SizeBonusDivisor:   512,
			SizeBonusWeight:    0.10,
			DensityBonusWeight: 0.10,
			TypeAdjustments: map[string]float64{
				"ZERO_WIPE":           0,
				"FF_WIPE":             -0.02,
				"RANDOM_WIPE":         -0.04,
				"MULTI_PASS":          -0.08,
				"LIKELY_ZERO_WIPE":    -0.12,
				"LIKELY_FF_WIPE":      -0.12,
				"LOW_ENTROPY_SUSPECT": -0.15,
			},
		},
		Scorer: ScorerWeights{
			CoverageMaxPct:     10,
			CoveragePoints:     40,
			RegionsMaxCount:    10,
			RegionsPoints:      20,
			RandomMaxCount:     3,
			RandomPoints:       25,
			MultiPassMaxCnt:    2,
			MultiPassPoints:    15,
			PartialPenalty:     10,
			StrongFloor:        10,
			LowConfPenalty:     5,
			LowConfThreshold:   0.55,
			DensityHighFloor:   0.30,
			DensityMediumFloor: 0.10,
			DensityLowFloor:    0.02,
			DensityLowMinCount: 2,
			ScoreHighMin:       70,
			ScoreMediumMin:     35,
			ScoreLowMin:        10,
		},
		IO: IOLimits{
			MaxUploadBytes:   8 * 1024 * 1024 * 1024,
			UploadChunk:      1 * 1024 * 1024,
			HashChunk:        1 * 1024 * 1024,
			ReadChunkBlocks:  1024,
			ProgressInterval: 1024,
		},
	}
}

// Merge overlays non-zero fields of override onto defaults; a zero field
// in override always falls back to the default.
func Merge(override, defaults *Config) *Config {
	merged := *override

	if merged.BlockSize == 0 {
		merged.BlockSize = defaults.BlockSize
	}
	mergeClassifier(&merged.Classifier, defaults.Classifier)
	mergeAggregator(&merged.Aggregator, defaults.Aggregator)
	mergeConfidence(&merged.Confidence, defaults.Confidence)
	mergeScorer(&merged.Scorer, defaults.Scorer)
	mergeIO(&merged.IO, defaults.IO)

	return &merged
}

func mergeClassifier(c *ClassifierThresholds, d ClassifierThresholds) {
	if c.ZeroFFStrongMin == 0 {
		c.ZeroFFStrongMin = d.ZeroFFStrongMin
	}
	if c.ZeroFFPartialMin == 0 {
		c.ZeroFFPartialMin = d.ZeroFFPartialMin
	}
	if c.EntropyFillMax == 0 {
		c.EntropyFillMax = d.EntropyFillMax
	}
	if c.NonZeroEntropyMin == 0 {
		c.NonZeroEntropyMin = d.NonZeroEntropyMin
	}
	if c.EntropyRandomMin == 0 {
		c.EntropyRandomMin = d.EntropyRandomMin
	}
	if c.UniformityWipeMax == 0 {
		c.UniformityWipeMax = d.UniformityWipeMax
	}
	if c.EntropyLowMin == 0 {
		c.EntropyLowMin = d.EntropyLowMin
	}
	if c.EntropyLowMax == 0 {
		c.EntropyLowMax = d.EntropyLowMax
	}
	if c.SuspectDominantMax == 0 {
		c.SuspectDominantMax = d.SuspectDominantMax
	}
	if c.SuspectUniformMax == 0 {
		c.SuspectUniformMax = d.SuspectUniformMax
	}
	if c.MultiPassLo == 0 {
		c.MultiPassLo = d.MultiPassLo
	}
	if c.MultiPassHi == 0 {
		c.MultiPassHi = d.MultiPassHi
	}
	if c.MultiPassUnifMax == 0 {
		c.MultiPassUnifMax = d.MultiPassUnifMax
	}
	if c.UnallocatedDomMin == 0 {
		c.UnallocatedDomMin = d.UnallocatedDomMin
	}
	if c.StructureBucketRatio == 0 {
		c.StructureBucketRatio = d.StructureBucketRatio
	}
	if c.StructureRunLength == 0 {
		c.StructureRunLength = d.StructureRunLength
	}
}

func mergeAggregator(a *AggregatorThresholds, d AggregatorThresholds) {
	if a.MinRegionBlocks == 0 {
		a.MinRegionBlocks = d.MinRegionBlocks
	}
	if a.MaxNormalGap == 0 {
		a.MaxNormalGap = d.MaxNormalGap
	}
	if a.MultiPassGapBlocks == 0 {
		a.MultiPassGapBlocks = d.MultiPassGapBlocks
	}
	if a.MultiPassMinBands == 0 {
		a.MultiPassMinBands = d.MultiPassMinBands
	}
	if a.IsolationWindow == 0 {
		a.IsolationWindow = d.IsolationWindow
	}
}

func mergeConfidence(c *ConfidenceWeights, d ConfidenceWeights) {
	if c.SizeBonusDivisor == 0 {
		c.SizeBonusDivisor = d.SizeBonusDivisor
	}
	if c.SizeBonusWeight == 0 {
		c.SizeBonusWeight = d.SizeBonusWeight
	}
	if c.DensityBonusWeight == 0 {
		c.DensityBonusWeight = d.DensityBonusWeight
	}
	if len(c.TypeAdjustments) == 0 {
		c.TypeAdjustments = d.TypeAdjustments
	}
}

func mergeScorer(s *ScorerWeights, d ScorerWeights) {
	if s.CoverageMaxPct == 0 {
		s.CoverageMaxPct = d.CoverageMaxPct
	}
	if s.CoveragePoints == 0 {
		s.CoveragePoints = d.CoveragePoints
	}
	if s.RegionsMaxCount == 0 {
		s.RegionsMaxCount = d.RegionsMaxCount
	}
	if s.RegionsPoints == 0 {
		s.RegionsPoints = d.RegionsPoints
	}
	if s.RandomMaxCount == 0 {
		s.RandomMaxCount = d.RandomMaxCount
	}
	if s.RandomPoints == 0 {
		s.RandomPoints = d.RandomPoints
	}
	if s.MultiPassMaxCnt == 0 {
		s.MultiPassMaxCnt = d.MultiPassMaxCnt
	}
	if s.MultiPassPoints == 0 {
		s.MultiPassPoints = d.MultiPassPoints
	}
	if s.PartialPenalty == 0 {
		s.PartialPenalty = d.PartialPenalty
	}
	if s.StrongFloor == 0 {
		s.StrongFloor = d.StrongFloor
	}
	if s.LowConfPenalty == 0 {
		s.LowConfPenalty = d.LowConfPenalty
	}
	if s.LowConfThreshold == 0 {
		s.LowConfThreshold = d.LowConfThreshold
	}
	if s.DensityHighFloor == 0 {
		s.DensityHighFloor = d.DensityHighFloor
	}
	if s.DensityMediumFloor == 0 {
		s.DensityMediumFloor = d.DensityMediumFloor
	}
	if s.DensityLowFloor == 0 {
		s.DensityLowFloor = d.DensityLowFloor
	}
	if s.DensityLowMinCount == 0 {
		s.DensityLowMinCount = d.DensityLowMinCount
	}
	if s.ScoreHighMin == 0 {
		s.ScoreHighMin = d.ScoreHighMin
	}
	if s.ScoreMediumMin == 0 {
		s.ScoreMediumMin = d.ScoreMediumMin
	}
	if s.ScoreLowMin == 0 {
		s.ScoreLowMin = d.ScoreLowMin
	}
}

func mergeIO(io *IOLimits, d IOLimits) {
	if io.MaxUploadBytes == 0 {
		io.MaxUploadBytes = d.MaxUploadBytes
	}
	if io.UploadChunk == 0 {
		io.UploadChunk = d.UploadChunk
	}
	if io.HashChunk == 0 {
		io.HashChunk = d.HashChunk
	}
	if io.ReadChunkBlocks == 0 {
		io.ReadChunkBlocks = d.ReadChunkBlocks
	}
	if io.ProgressInterval == 0 {
		io.ProgressInterval = d.ProgressInterval
	}
}

// Load reads a YAML override file and merges it onto Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return Merge(&override, Default()), nil
}
