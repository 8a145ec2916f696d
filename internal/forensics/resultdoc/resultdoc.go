// Package resultdoc assembles and (de)serializes the scan result
// document: the single JSON artifact a completed scan leaves behind.
package resultdoc

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"sigs.k8s.io/yaml"

	"github.com/forensix-labs/wipetrace/internal/engine/orchestrator"
)


// Stats is the rounded, wire-ready scan summary.
type Stats struct {
	TotalBlocks       int64            `json:"total_blocks"`
	SuspiciousBlocks  int64            `json:"suspicious_blocks"`
	SuspiciousPct     float64          `json:"suspicious_pct"`
	WipeDensity       float64          `json:"wipe_density"`
	RegionsCount      int              `json:"regions_count"`
	AvgEntropyFlagged float64          `json:"avg_entropy_flagged"`
	IntentScore       int              `json:"intent_score"`
	Verdict           string           `json:"verdict"`
	WipeTypeCounts    map[string]int64 `json:"wipe_type_counts"`
}

// RegionDoc is one wire-ready region entry.
type RegionDoc struct {
	ID         int     `json:"id"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Size       int64   `json:"size"`
	Type       string  `json:"type"`
	Entropy    float64 `json:"entropy"`
	Confidence float64 `json:"confidence"`
	BlockCount int     `json:"block_count"`
}

// BlockDoc is one wire-ready block entry (id, type, entropy only — not
// the full classifier Result, which is internal detail).
type BlockDoc struct {
	ID      int64   `json:"id"`
	Type    string  `json:"type"`
	Entropy float64 `json:"entropy"`
}

// Document is the full result document written after a completed scan.
type Document struct {
	SessionID  string     `json:"session_id"`
	Filename   string     `json:"filename"`
	SHA256     string     `json:"sha256"`
	SizeBytes  int64      `json:"size_bytes"`
	SizeHuman  string     `json:"size_human"`
	ScannedAt  time.Time  `json:"scanned_at"`
	Stats      Stats      `json:"stats"`
	Regions    []RegionDoc `json:"regions"`
	Blocks     []BlockDoc  `json:"blocks"`
}

// Build assembles the wire document from an orchestrator outcome and the
// session's bookkeeping fields. scannedAt must be supplied by the caller
// since this package never reads the clock itself.
func Build(sessionID, filename, sha256Hex string, sizeBytes int64, scannedAt time.Time, out *orchestrator.Outcome) Document {
	doc := Document{
		SessionID: sessionID,
		Filename:  filename,
		SHA256:    sha256Hex,
		SizeBytes: sizeBytes,
		SizeHuman: humanize.IBytes(uint64(sizeBytes)),
		ScannedAt: scannedAt.UTC(),
		Stats: Stats{
			TotalBlocks:       out.Stats.TotalBlocks,
			SuspiciousBlocks:  out.Stats.SuspiciousBlocks,
			SuspiciousPct:     round2(out.Stats.SuspiciousPct),
			WipeDensity:       round4(out.Stats.WipeDensity),
			RegionsCount:      out.Stats.RegionsCount,
			AvgEntropyFlagged: round3(out.Stats.AvgEntropyFlagged),
			IntentScore:       out.Stats.IntentScore,
			Verdict:           out.Stats.Verdict.String(),
			WipeTypeCounts:    out.Stats.WipeTypeCounts,
		},
	}

	for _, r := range out.Regions {
		doc.Regions = append(doc.Regions, RegionDoc{
			ID:         r.ID,
			Start:      r.StartOffset,
			End:        r.EndOffset,
			Size:       r.Size,
			Type:       r.WipeType.String(),
			Entropy:    round3(r.AvgEntropy),
			Confidence: round3(r.Confidence),
			BlockCount: r.BlockCount,
		})
	}

	for _, b := range out.Results {
		doc.Blocks = append(doc.Blocks, BlockDoc{
			ID:      b.BlockID,
			Type:    b.WipeType.String(),
			Entropy: round3(b.Entropy),
		})
	}

	return doc
}

// WriteJSON marshals doc as indented JSON to path.
func WriteJSON(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result document %s: %w", path, err)
	}
	return nil
}

// ToYAML renders doc as YAML, used by the CLI's --format yaml output.
func ToYAML(doc Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// ReadJSON loads a previously written result document.
func ReadJSON(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read result document %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse result document %s: %w", path, err)
	}
	return doc, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
