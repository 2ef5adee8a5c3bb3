// Package pipeline orchestrates one claim run: analysis fan-out,
// categorization, merge, concurrent checks, scoring and report
// assembly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/claimlens/claimlens/internal/analyze"
	"github.com/claimlens/claimlens/internal/checks"
	"github.com/claimlens/claimlens/internal/classify"
	"github.com/claimlens/claimlens/internal/merge"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/progress"
	"github.com/claimlens/claimlens/internal/report"
	"github.com/claimlens/claimlens/internal/score"
	"github.com/claimlens/claimlens/internal/store"
	"github.com/claimlens/claimlens/internal/worker"
)

// ErrNoUsableData marks a run where no document produced usable
// extraction data.
var ErrNoUsableData = errors.New("no usable document data")

// Options tune one claim run.
type Options struct {
	EnableTariffCheck     bool
	Tariffs               []model.TariffEntry
	HospitalID            string
	PayerID               string
	IgnoreDiscrepancies   bool
	IncludePayerChecklist bool
}

// Pipeline runs claims end to end.
type Pipeline struct {
	analyzer    analyze.Analyzer
	pool        *worker.Pool
	categorizer *classify.Categorizer
	merger      *merge.Merger
	scorer      *score.Scorer
	builder     *report.Builder
	store       store.Store
	cfg         *model.Config
}

// New wires a pipeline from its stages.
func New(cfg *model.Config, analyzer analyze.Analyzer, pool *worker.Pool, st store.Store) *Pipeline {
	return &Pipeline{
		analyzer:    analyzer,
		pool:        pool,
		categorizer: classify.New(),
		merger:      merge.New(merge.Policy{OverrideFields: cfg.Merge.OverrideFields}),
		scorer:      score.New(cfg.Scoring),
		builder:     report.New(),
		store:       st,
		cfg:         cfg,
	}
}

// Run processes one claim to a terminal state. It always stores the
// outcome: completed with results and a report, or failed with an
// error. Progress events are best effort and monotonically
// non-decreasing.
func (p *Pipeline) Run(ctx context.Context, claim *model.Claim, docs []analyze.Document, opts Options, pub progress.Publisher) error {
	timeout := p.cfg.Pipeline.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tracker := newTracker(claim.ID, pub)
	started := time.Now()
	logger := log.With().Str("claim_id", claim.ID).Logger()

	// Documents are staged in a run-scoped workspace that is removed
	// on every exit path.
	tmpDir, err := os.MkdirTemp("", "claimlens-"+claim.ID)
	if err != nil {
		return p.fail(ctx, claim, tracker, fmt.Errorf("create workspace: %w", err))
	}
	defer os.RemoveAll(tmpDir)
	docs = stageDocuments(tmpDir, docs)

	tracker.Emit("initializing", "Starting claim processing", 0)

	// Stage 1: per-document analysis.
	tracker.Emit("analyzing", fmt.Sprintf("Analyzing %d document(s)", len(docs)), 10)
	extractions, notes, excluded := p.analyzeDocuments(ctx, docs)
	claim.Notes = append(claim.Notes, notes...)
	if len(extractions) == 0 {
		return p.fail(ctx, claim, tracker, fmt.Errorf("%w: all %d document(s) failed analysis", ErrNoUsableData, len(docs)))
	}

	// Stage 2: categorization.
	tracker.Emit("categorizing", "Categorizing documents", 35)
	buckets := p.categorizer.Categorize(extractions)

	// Stage 3: merge.
	tracker.Emit("merging", "Merging document data", 45)
	merged := p.merger.Merge(buckets)
	if merged.Hospital.IsEmpty() && merged.Insurer.IsEmpty() && merged.ApprovalMissing() {
		return p.fail(ctx, claim, tracker, fmt.Errorf("%w: documents produced no mergeable content", ErrNoUsableData))
	}
	if merged.ApprovalMissing() {
		claim.Notes = append(claim.Notes, "no approval document found; approval-dependent checks are limited")
	}

	// Stage 4: concurrent checks.
	tracker.Emit("checking", "Running quality checks", 55)
	checkList := checks.ForClaim(&p.cfg.Checks, relevantTariffs(opts), opts.EnableTariffCheck)
	for _, c := range checkList {
		if li, ok := c.(*checks.LineItemChecklist); ok {
			li.IncludePayerChecklist = opts.IncludePayerChecklist
		}
	}
	results := checks.RunAll(ctx, checkList, merged, &p.cfg.Checks)
	for name, res := range results {
		if res.Failed() {
			logger.Warn().Str("check", name).Str("error", res.Error).Msg("check degraded")
			claim.Notes = append(claim.Notes, fmt.Sprintf("%s check excluded from scoring: %s", name, res.Error))
		}
	}
	claim.Results = results

	if err := ctx.Err(); err != nil {
		return p.fail(ctx, claim, tracker, fmt.Errorf("processing timed out: %w", err))
	}

	// Stage 5: scoring.
	tracker.Emit("scoring", "Calculating accuracy score", 90)
	claim.Score = p.scorer.Calculate(results, opts.IgnoreDiscrepancies)

	// Stage 6: report.
	tracker.Emit("reporting", "Generating final report", 95)
	claim.Report = p.builder.Build(report.Input{
		ClaimID:       claim.ID,
		ClaimNumber:   claim.ClaimNumber,
		Merged:        merged,
		Results:       results,
		Score:         claim.Score,
		DocumentCount: len(docs),
		ExcludedDocs:  excluded,
		Caveats:       claim.Notes,
	})

	claim.Transition(model.StatusCompleted)
	if err := p.store.UpdateClaim(ctx, claim); err != nil {
		logger.Error().Err(err).Msg("store completed claim")
	}

	tracker.Emit(progress.StepCompleted,
		fmt.Sprintf("Processing complete! Accuracy: %.1f%%", claim.Score.Score), 100)
	logger.Info().
		Float64("score", claim.Score.Score).
		Bool("passed", claim.Score.Passed).
		Dur("elapsed", time.Since(started)).
		Msg("claim processed")
	return nil
}

// analyzeDocuments fans analysis out over the pool. Malformed replies
// keep the document with a minimal extraction; hard failures exclude
// it with a caveat.
func (p *Pipeline) analyzeDocuments(ctx context.Context, docs []analyze.Document) ([]model.DocumentExtraction, []string, []string) {
	analyzed := p.pool.AnalyzeAll(ctx, p.analyzer, docs)

	var extractions []model.DocumentExtraction
	var notes, excluded []string
	for _, res := range analyzed {
		switch {
		case res.Err == nil:
			extractions = append(extractions, res.Extraction)
		case errors.Is(res.Err, analyze.ErrMalformed):
			extractions = append(extractions, res.Extraction)
			notes = append(notes, fmt.Sprintf("document %s returned unparseable analysis; carried with empty data", res.Document.Name))
		default:
			excluded = append(excluded, res.Document.Name)
			notes = append(notes, fmt.Sprintf("document %s excluded: %v", res.Document.Name, res.Err))
		}
	}
	return extractions, notes, excluded
}

// relevantTariffs keeps tariff entries scoped to the claim's hospital
// and payer. Entries without identifiers apply everywhere.
func relevantTariffs(opts Options) []model.TariffEntry {
	var out []model.TariffEntry
	for _, t := range opts.Tariffs {
		if t.HospitalID != "" && opts.HospitalID != "" && t.HospitalID != opts.HospitalID {
			continue
		}
		if t.PayerID != "" && opts.PayerID != "" && t.PayerID != opts.PayerID {
			continue
		}
		out = append(out, t)
	}
	return out
}

// stageDocuments copies document content into the run workspace so
// analyzers that read from disk see one consistent location. Staging
// failures are not fatal; the in-memory content is still used.
func stageDocuments(dir string, docs []analyze.Document) []analyze.Document {
	staged := make([]analyze.Document, len(docs))
	for i, doc := range docs {
		if len(doc.Content) > 0 {
			path := filepath.Join(dir, fmt.Sprintf("%03d-%s", i, filepath.Base(doc.Name)))
			if err := os.WriteFile(path, doc.Content, 0600); err == nil {
				doc.Path = path
			}
		}
		staged[i] = doc
	}
	return staged
}

// fail stores the claim in its terminal failed state. Failed claims
// stay queryable by status and error message only, so any partial
// results attached earlier in the run are dropped.
func (p *Pipeline) fail(ctx context.Context, claim *model.Claim, tracker *tracker, err error) error {
	claim.Error = err.Error()
	claim.Results = nil
	claim.Score = nil
	claim.Report = nil
	claim.Transition(model.StatusFailed)
	if uerr := p.store.UpdateClaim(ctx, claim); uerr != nil {
		log.Error().Err(uerr).Str("claim_id", claim.ID).Msg("store failed claim")
	}
	tracker.Emit(progress.StepError, err.Error(), 100)
	log.Error().Err(err).Str("claim_id", claim.ID).Msg("claim processing failed")
	return err
}
