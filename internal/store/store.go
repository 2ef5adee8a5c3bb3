// Package store persists claim records behind a small key-value
// interface.
package store

import (
	"context"
	"errors"

	"github.com/claimlens/claimlens/internal/model"
)

// ErrNotFound is returned when no claim exists under the given id.
var ErrNotFound = errors.New("claim not found")

// Store is the claim persistence boundary.
type Store interface {
	CreateClaim(ctx context.Context, claim *model.Claim) error
	GetClaim(ctx context.Context, id string) (*model.Claim, error)
	UpdateClaim(ctx context.Context, claim *model.Claim) error
	ListClaims(ctx context.Context) ([]*model.Claim, error)
}
