// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent coordinates the aggregation pipeline: query refinement,
// parallel source retrieval, bounded enrichment, scoring, and ranking.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/pdiddy/pharma-agent/internal/enrich"
	"github.com/pdiddy/pharma-agent/internal/scoring"
	"github.com/pdiddy/pharma-agent/internal/sources"
	"github.com/pdiddy/pharma-agent/pkg/types"
)

const defaultWorkers = 5

// Agent owns the concurrency policy and the final ordering contract of the
// pipeline. Source retrieval fans out unbounded (one task per source, small
// fixed N); enrichment is capped by a worker pool to protect the extraction
// service.
type Agent struct {
	sources  []sources.Source
	enricher *enrich.Enricher
	refiner  enrich.Refiner
	cfg      types.PipelineConfig
	logger   *slog.Logger
}

// New builds an Agent. refiner may be nil to skip query refinement.
func New(srcs []sources.Source, enricher *enrich.Enricher, refiner enrich.Refiner, cfg types.PipelineConfig) *Agent {
	return &Agent{
		sources:  srcs,
		enricher: enricher,
		refiner:  refiner,
		cfg:      cfg,
		logger:   slog.Default().With("component", "agent"),
	}
}

// Run executes the full pipeline for one query and returns studies ranked by
// relevance score, descending. An empty result means no source produced
// records (or every enrichment failed); it is not an error. Progress and
// per-source warnings go to w.
//
// Ties in the final ordering preserve enrichment completion order, which is
// not reproducible run to run; only the score ordering is deterministic.
func (a *Agent) Run(ctx context.Context, query string, w io.Writer) ([]*types.Study, error) {
	if query == "" {
		return nil, fmt.Errorf("query is empty: provide a research question")
	}
	if len(a.sources) == 0 {
		return nil, fmt.Errorf("no data sources configured")
	}

	searchQuery := a.refineQuery(ctx, query, w)

	pool := a.collectRecords(ctx, searchQuery, w)
	if len(pool) == 0 {
		return nil, nil
	}

	// Enrichment reconciles against the original question, not the keyword
	// form, so the extraction judges relevance to what the user asked.
	studies := a.enrichAll(ctx, pool, query, w)

	for _, s := range studies {
		scoring.Score(s)
	}

	sort.SliceStable(studies, func(i, j int) bool {
		return studies[i].RelevanceScore > studies[j].RelevanceScore
	})

	return studies, nil
}

// refineQuery converts the natural-language query into search keywords.
// Refinement is best-effort: any failure falls back to the original query.
func (a *Agent) refineQuery(ctx context.Context, query string, w io.Writer) string {
	if a.refiner == nil {
		return query
	}

	refined, err := a.refiner.Refine(ctx, query)
	if err != nil {
		a.logger.Warn("query refinement failed, using original query", "err", err)
		return query
	}

	fmt.Fprintf(w, "Original query: %s\n", query)
	fmt.Fprintf(w, "Optimized search keywords: %s\n\n", refined)
	return refined
}

// collectRecords fans the query out to every source concurrently and merges
// the results in completion order. A failing source contributes nothing and
// is reported as a warning.
func (a *Agent) collectRecords(ctx context.Context, query string, w io.Writer) []types.RawRecord {
	type sourceResult struct {
		records []types.RawRecord
		err     error
		name    types.SourceTag
	}

	ch := make(chan sourceResult, len(a.sources))
	var wg sync.WaitGroup

	for _, src := range a.sources {
		wg.Add(1)
		go func(src sources.Source) {
			defer wg.Done()
			limit := a.cfg.Sources.Limit(src.Name())
			records, err := src.Search(ctx, query, limit)
			ch <- sourceResult{records: records, err: err, name: src.Name()}
		}(src)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var pool []types.RawRecord
	for sr := range ch {
		if sr.err != nil {
			a.logger.Warn("source failed", "source", sr.name, "err", sr.err)
			fmt.Fprintf(w, "warning: source %s failed: %v\n", sr.name, sr.err)
			continue
		}
		pool = append(pool, sr.records...)
	}
	return pool
}

// enrichAll runs the extraction calls through a bounded worker pool and
// collects the studies that succeeded, in completion order. A failed
// enrichment drops its record and never fails the batch.
func (a *Agent) enrichAll(ctx context.Context, pool []types.RawRecord, query string, w io.Writer) []*types.Study {
	size := a.cfg.Extraction.Workers
	if size <= 0 {
		size = defaultWorkers
	}

	workers, err := ants.NewPool(size)
	if err != nil {
		// Pool construction only fails on invalid size; fall back to serial.
		a.logger.Warn("worker pool unavailable, enriching serially", "err", err)
		return a.enrichSerial(ctx, pool, query, w)
	}
	defer workers.Release()

	// mu guards both the studies slice and the progress writer; workers
	// must not write to w unsynchronized.
	var (
		mu      sync.Mutex
		studies []*types.Study
		wg      sync.WaitGroup
	)

	for _, raw := range pool {
		raw := raw
		wg.Add(1)
		task := func() {
			defer wg.Done()
			study, err := a.enricher.Enrich(ctx, raw, query)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Warn("enrichment failed, dropping record", "id", raw.ID, "err", err)
				fmt.Fprintf(w, "warning: could not analyze %s: record skipped\n", raw.ID)
				return
			}
			studies = append(studies, study)
		}
		if err := workers.Submit(task); err != nil {
			wg.Done()
			a.logger.Warn("submitting enrichment task failed", "id", raw.ID, "err", err)
		}
	}

	wg.Wait()
	return studies
}

// enrichSerial is the degraded path when no pool could be created.
func (a *Agent) enrichSerial(ctx context.Context, pool []types.RawRecord, query string, w io.Writer) []*types.Study {
	var studies []*types.Study
	for _, raw := range pool {
		study, err := a.enricher.Enrich(ctx, raw, query)
		if err != nil {
			a.logger.Warn("enrichment failed, dropping record", "id", raw.ID, "err", err)
			fmt.Fprintf(w, "warning: could not analyze %s: record skipped\n", raw.ID)
			continue
		}
		studies = append(studies, study)
	}
	return studies
}
