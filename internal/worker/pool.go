// Package worker fans document analysis calls out over a bounded pool
// with provider rate limiting.
package worker

import (
	"context"
	"sync"

	"github.com/claimlens/claimlens/internal/analyze"
	"github.com/claimlens/claimlens/internal/model"
)

// AnalyzeResult pairs one document's extraction with its outcome.
// Index preserves the input order.
type AnalyzeResult struct {
	Index      int
	Document   analyze.Document
	Extraction model.DocumentExtraction
	Err        error
}

// Pool runs analysis calls concurrently, bounded by worker count and
// the provider rate limiter.
type Pool struct {
	workers  int
	limiter  *Limiter
	provider string
}

// NewPool creates a pool. Worker count defaults to 5.
func NewPool(workers int, limiter *Limiter, provider string) *Pool {
	if workers <= 0 {
		workers = 5
	}
	return &Pool{workers: workers, limiter: limiter, provider: provider}
}

// AnalyzeAll analyzes every document and returns results in input
// order. Individual failures are carried in the result, never aborting
// the batch; only context cancellation stops early.
func (p *Pool) AnalyzeAll(ctx context.Context, analyzer analyze.Analyzer, docs []analyze.Document) []AnalyzeResult {
	results := make([]AnalyzeResult, len(docs))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc analyze.Document) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = AnalyzeResult{Index: i, Document: doc, Err: ctx.Err()}
				return
			}

			if p.limiter != nil {
				if err := p.limiter.Wait(ctx, p.provider); err != nil {
					results[i] = AnalyzeResult{Index: i, Document: doc, Err: err}
					return
				}
			}

			ext, err := analyzer.Analyze(ctx, doc)
			results[i] = AnalyzeResult{Index: i, Document: doc, Extraction: ext, Err: err}
		}(i, doc)
	}

	wg.Wait()
	return results
}
