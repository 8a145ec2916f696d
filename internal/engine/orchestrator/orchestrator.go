// Package orchestrator runs Phases 1-4 of the scan pipeline — read,
// classify, aggregate, score — and reports progress to a caller-supplied
// callback. It holds no session state itself; that lives in
// internal/forensics/session. No partial results escape a failed run.
package orchestrator

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/forensix-labs/wipetrace/internal/config"
	"github.com/forensix-labs/wipetrace/internal/engine/aggregator"
	"github.com/forensix-labs/wipetrace/internal/engine/block"
	"github.com/forensix-labs/wipetrace/internal/engine/classifier"
	"github.com/forensix-labs/wipetrace/internal/engine/reader"
	"github.com/forensix-labs/wipetrace/internal/engine/scorer"
	"github.com/forensix-labs/wipetrace/internal/utils/logger"
)

// ProgressFunc receives the running count of classified blocks and the
// total block count (-1 if unknown, e.g. a compressed source).
type ProgressFunc func(blocksDone, totalBlocks int64)

// Outcome is the pipeline's output: every block's classification, the
// aggregated regions, and the scan-level stats.
type Outcome struct {
	Results []block.Result
	Regions []aggregator.Region
	Stats   scorer.ScanStats
}

// Workers bounds the classify-phase worker pool. 0 uses GOMAXPROCS.
type Options struct {
	Workers  int
	Progress ProgressFunc
}

// Run streams path block-by-block, classifies every block (optionally in
// parallel), aggregates the results into regions, and scores the scan.
// It returns nil, nil if ctx is cancelled mid-run — cancellation discards
// partial state rather than surfacing it.
func Run(ctx context.Context, path string, cfg *config.Config, opts Options) (*Outcome, error) {
	log := logger.Logger()

	br, err := reader.Open(path, cfg)
	if err != nil {
		return nil, err
	}
	defer br.Close()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	total := br.TotalBlocks()
	progressEvery := int64(cfg.IO.ProgressInterval)
	if progressEvery <= 0 {
		progressEvery = 1024
	}

	type job struct{ blk block.Block }
	jobs := make(chan job, workers*2)
	resultsCh := make(chan block.Result, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				resultsCh <- classifier.Classify(j.blk.ID, j.blk.Offset, j.blk.Data, cfg)
			}
		}()
	}

	var collectWG sync.WaitGroup
	collectWG.Add(1)
	var results []block.Result
	var done int64
	go func() {
		defer collectWG.Done()
		for r := range resultsCh {
			results = append(results, r)
			done++
			if opts.Progress != nil && done%progressEvery == 0 {
				opts.Progress(done, total)
			}
		}
	}()

	readErr := br.Each(ctx, func(blk block.Block) error {
		jobs <- job{blk: blk}
		return nil
	})
	close(jobs)
	wg.Wait()
	close(resultsCh)
	collectWG.Wait()

	if readErr != nil {
		return nil, readErr
	}
	if ctx.Err() != nil {
		log.Infow("scan cancelled, discarding partial state", "path", path, "blocks_done", done)
		return nil, nil
	}

	if opts.Progress != nil {
		opts.Progress(done, total)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].BlockID < results[j].BlockID })

	regions, err := aggregator.Aggregate(results, cfg)
	if err != nil {
		return nil, err
	}

	stats := scorer.Compute(results, regions, cfg.Scorer)

	return &Outcome{Results: results, Regions: regions, Stats: stats}, nil
}
