// Package service is the claim processing facade: submission,
// retrieval and progress subscription.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/claimlens/claimlens/internal/analyze"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/pipeline"
	"github.com/claimlens/claimlens/internal/progress"
	"github.com/claimlens/claimlens/internal/store"
)

var (
	// ErrConfiguration marks a submission rejected before any
	// processing started.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrClaimActive marks an attempt to process a claim that is
	// already running.
	ErrClaimActive = errors.New("claim is already being processed")
)

// Receipt is the synchronous acknowledgement of a submission.
type Receipt struct {
	ClaimID     string            `json:"claim_id"`
	ClaimNumber string            `json:"claim_number"`
	SessionID   string            `json:"session_id"`
	Status      model.ClaimStatus `json:"status"`
}

// Summary is one row of a claim listing.
type Summary struct {
	ClaimID     string            `json:"claim_id"`
	ClaimNumber string            `json:"claim_number"`
	Status      model.ClaimStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	Score       *float64          `json:"score,omitempty"`
	Passed      *bool             `json:"passed,omitempty"`
}

// Service accepts claims and drives them through the pipeline.
type Service struct {
	store    store.Store
	registry *progress.Registry
	pipe     *pipeline.Pipeline

	mu     sync.Mutex
	active map[string]struct{}
}

// New wires a Service.
func New(st store.Store, registry *progress.Registry, pipe *pipeline.Pipeline) *Service {
	return &Service{
		store:    st,
		registry: registry,
		pipe:     pipe,
		active:   make(map[string]struct{}),
	}
}

// Submit validates the request, stores a processing claim and launches
// the run asynchronously. Configuration problems are rejected here,
// before any work starts.
func (s *Service) Submit(ctx context.Context, docs []analyze.Document, opts pipeline.Options) (*Receipt, error) {
	if err := validate(docs, opts); err != nil {
		return nil, err
	}

	claim := &model.Claim{
		ID:          uuid.NewString(),
		ClaimNumber: newClaimNumber(),
		SessionID:   uuid.NewString(),
		Status:      model.StatusProcessing,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateClaim(ctx, claim); err != nil {
		return nil, fmt.Errorf("store claim: %w", err)
	}

	// Open the session stream before the run starts so events emitted
	// ahead of the caller attaching stay buffered. OnProgress returns
	// this same stream.
	s.registry.Subscribe(claim.SessionID)

	go func() {
		// The run outlives the submission request.
		if err := s.Process(context.Background(), claim, docs, opts); err != nil {
			log.Debug().Err(err).Str("claim_id", claim.ID).Msg("background run ended with error")
		}
	}()

	return &Receipt{
		ClaimID:     claim.ID,
		ClaimNumber: claim.ClaimNumber,
		SessionID:   claim.SessionID,
		Status:      model.StatusProcessing,
	}, nil
}

// Process runs one claim synchronously, enforcing one active run per
// claim id.
func (s *Service) Process(ctx context.Context, claim *model.Claim, docs []analyze.Document, opts pipeline.Options) error {
	s.mu.Lock()
	if _, busy := s.active[claim.ID]; busy {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrClaimActive, claim.ID)
	}
	s.active[claim.ID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.active, claim.ID)
		s.mu.Unlock()
	}()

	return s.pipe.Run(ctx, claim, docs, opts, s.registry.Publisher(claim.SessionID))
}

// GetClaim returns the stored claim record.
func (s *Service) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	return s.store.GetClaim(ctx, id)
}

// ListClaims summarizes all stored claims, newest first.
func (s *Service) ListClaims(ctx context.Context) ([]Summary, error) {
	claims, err := s.store.ListClaims(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(claims))
	for _, c := range claims {
		sum := Summary{
			ClaimID:     c.ID,
			ClaimNumber: c.ClaimNumber,
			Status:      c.Status,
			CreatedAt:   c.CreatedAt,
		}
		if c.Score != nil {
			sum.Score = &c.Score.Score
			sum.Passed = &c.Score.Passed
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// OnProgress attaches to the progress stream for a session. The stream
// is opened at submission time, so events published before the caller
// attaches, including the terminal one, are still delivered.
func (s *Service) OnProgress(sessionID string) <-chan progress.Event {
	return s.registry.Subscribe(sessionID)
}

// Unsubscribe closes a session's progress stream.
func (s *Service) Unsubscribe(sessionID string) {
	s.registry.Unsubscribe(sessionID)
}

func validate(docs []analyze.Document, opts pipeline.Options) error {
	if len(docs) == 0 {
		return fmt.Errorf("%w: no documents submitted", ErrConfiguration)
	}
	if opts.EnableTariffCheck {
		if len(opts.Tariffs) == 0 {
			return fmt.Errorf("%w: tariff check enabled without tariff data", ErrConfiguration)
		}
		if opts.HospitalID == "" || opts.PayerID == "" {
			return fmt.Errorf("%w: tariff check requires hospital and payer identifiers", ErrConfiguration)
		}
	}
	return nil
}

func newClaimNumber() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "CLM-" + id[:8]
}
