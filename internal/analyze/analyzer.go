// Package analyze is the boundary to the document analysis
// collaborator that turns raw claim documents into structured
// extractions.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

var (
	// ErrRateLimited marks a transient quota rejection from the
	// analysis service. Only these failures are retried.
	ErrRateLimited = errors.New("analysis rate limited")

	// ErrMalformed marks a reply that could not be parsed. The caller
	// receives a minimal extraction alongside it.
	ErrMalformed = errors.New("malformed analysis reply")
)

// Document is one raw claim document handed to the analyzer.
type Document struct {
	Name     string
	Path     string
	Content  []byte
	MIMEType string
}

// Analyzer produces a structured extraction for one document.
type Analyzer interface {
	Analyze(ctx context.Context, doc Document) (model.DocumentExtraction, error)
}

// Func adapts a plain function to the Analyzer interface.
type Func func(ctx context.Context, doc Document) (model.DocumentExtraction, error)

func (f Func) Analyze(ctx context.Context, doc Document) (model.DocumentExtraction, error) {
	return f(ctx, doc)
}

// analyzeSleepFunc allows tests to replace sleeping during retries.
var analyzeSleepFunc = time.Sleep

// WithRetry wraps an analyzer with bounded retries on rate-limit
// failures. Backoff doubles per attempt from baseDelay (2s, 4s, 8s by
// default). Other failures return immediately.
func WithRetry(inner Analyzer, maxRetries int, baseDelay time.Duration) Analyzer {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	return Func(func(ctx context.Context, doc Document) (model.DocumentExtraction, error) {
		var lastErr error
		for attempt := 0; attempt < maxRetries; attempt++ {
			if attempt > 0 {
				delay := baseDelay << (attempt - 1)
				select {
				case <-ctx.Done():
					return model.DocumentExtraction{}, ctx.Err()
				default:
				}
				analyzeSleepFunc(delay)
			}

			ext, err := inner.Analyze(ctx, doc)
			if err == nil || !isRetryable(err) {
				return ext, err
			}
			lastErr = err
		}
		return model.DocumentExtraction{}, fmt.Errorf("analysis of %s failed after %d attempts: %w", doc.Name, maxRetries, lastErr)
	})
}

// isRetryable recognizes rate-limit signals from the analysis service.
func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, signal := range []string{"429", "rate limit", "quota", "resource exhausted", "too many requests"} {
		if strings.Contains(msg, signal) {
			return true
		}
	}
	return false
}

// MinimalExtraction is the placeholder recorded when a document's
// analysis reply cannot be parsed. The document stays in the pipeline
// without contributing data.
func MinimalExtraction(name string) model.DocumentExtraction {
	return model.DocumentExtraction{
		FileName: name,
		Root: model.Mapping(map[string]model.Value{
			"document_descriptor": model.Mapping(map[string]model.Value{
				"probable_document_type": model.String("Unknown"),
				"extraction_failed":      model.Bool(true),
			}),
		}),
	}
}

// JSONPassthrough returns an analyzer that parses the document content
// as a pre-extracted JSON tree. Used when documents have already been
// analyzed upstream, and in tests.
func JSONPassthrough() Analyzer {
	return Func(func(_ context.Context, doc Document) (model.DocumentExtraction, error) {
		root, err := model.FromJSON(doc.Content)
		if err != nil {
			return MinimalExtraction(doc.Name), fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return model.DocumentExtraction{FileName: doc.Name, Root: root}, nil
	})
}

// NewAnalyzer builds the configured analyzer, wrapped with the retry
// policy.
func NewAnalyzer(cfg model.AnalysisConfig) (Analyzer, error) {
	var inner Analyzer
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		a, err := NewOpenAIAnalyzer(cfg)
		if err != nil {
			return nil, err
		}
		inner = a
	case "json", "passthrough":
		inner = JSONPassthrough()
	default:
		return nil, fmt.Errorf("unknown analysis provider: %s", cfg.Provider)
	}
	return WithRetry(inner, cfg.MaxRetries, cfg.RetryBaseDelay), nil
}
