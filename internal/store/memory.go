package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/claimlens/claimlens/internal/model"
)

// MemoryStore keeps claims in process memory with a TTL. Entries expire
// together with their session's usefulness.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a store whose entries live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

func (s *MemoryStore) CreateClaim(_ context.Context, claim *model.Claim) error {
	if claim.ID == "" {
		return fmt.Errorf("claim id is required")
	}
	if _, exists := s.cache.Get(claim.ID); exists {
		return fmt.Errorf("claim %s already exists", claim.ID)
	}
	s.cache.SetDefault(claim.ID, claim)
	return nil
}

func (s *MemoryStore) GetClaim(_ context.Context, id string) (*model.Claim, error) {
	raw, found := s.cache.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	return raw.(*model.Claim), nil
}

func (s *MemoryStore) UpdateClaim(_ context.Context, claim *model.Claim) error {
	if _, found := s.cache.Get(claim.ID); !found {
		return ErrNotFound
	}
	s.cache.SetDefault(claim.ID, claim)
	return nil
}

// ListClaims returns all live claims, newest first.
func (s *MemoryStore) ListClaims(_ context.Context) ([]*model.Claim, error) {
	items := s.cache.Items()
	claims := make([]*model.Claim, 0, len(items))
	for _, item := range items {
		claims = append(claims, item.Object.(*model.Claim))
	}
	sort.Slice(claims, func(i, j int) bool {
		return claims[i].CreatedAt.After(claims[j].CreatedAt)
	})
	return claims, nil
}
