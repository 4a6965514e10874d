package repository

import (
	"context"
	"sync"

	"github.com/agroledger/cropchain/internal/exchange/model"
)

// In-memory implementations of the three collection stores. They mirror the
// PostgreSQL repositories' behavior, including ErrNotFound semantics, and
// return copies so callers can never mutate stored records in place.

// MemoryCropRepository is an in-memory, thread-safe crop store.
type MemoryCropRepository struct {
	mu    sync.RWMutex
	crops []*model.CropAsset
}

// NewMemoryCropRepository creates an empty MemoryCropRepository.
func NewMemoryCropRepository() *MemoryCropRepository {
	return &MemoryCropRepository{}
}

// Create appends a new crop asset.
func (r *MemoryCropRepository) Create(_ context.Context, crop *model.CropAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *crop
	r.crops = append(r.crops, &c)
	return nil
}

// GetByID retrieves a crop by its identifier.
func (r *MemoryCropRepository) GetByID(_ context.Context, cropID string) (*model.CropAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.crops {
		if c.CropID == cropID {
			out := *c
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// List returns all crops in registration order.
func (r *MemoryCropRepository) List(_ context.Context) ([]*model.CropAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.CropAsset, len(r.crops))
	for i, c := range r.crops {
		cc := *c
		out[i] = &cc
	}
	return out, nil
}

// MemoryTokenRepository is an in-memory, thread-safe token store.
type MemoryTokenRepository struct {
	mu     sync.RWMutex
	tokens []*model.CropToken
}

// NewMemoryTokenRepository creates an empty MemoryTokenRepository.
func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{}
}

// Create appends a new token.
func (r *MemoryTokenRepository) Create(_ context.Context, token *model.CropToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := *token
	r.tokens = append(r.tokens, &t)
	return nil
}

// GetByID retrieves a token by its identifier.
func (r *MemoryTokenRepository) GetByID(_ context.Context, tokenID string) (*model.CropToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t := r.find(tokenID); t != nil {
		out := *t
		return &out, nil
	}
	return nil, ErrNotFound
}

// List returns all tokens, optionally filtered by status.
func (r *MemoryTokenRepository) List(_ context.Context, status model.TokenStatus) ([]*model.CropToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.CropToken
	for _, t := range r.tokens {
		if status != "" && t.Status != status {
			continue
		}
		tt := *t
		out = append(out, &tt)
	}
	return out, nil
}

// UpdateStatus moves a token to a new lifecycle state.
func (r *MemoryTokenRepository) UpdateStatus(_ context.Context, tokenID string, status model.TokenStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.find(tokenID)
	if t == nil {
		return ErrNotFound
	}
	t.Status = status
	return nil
}

// Transfer reassigns ownership and moves the token to a new state atomically.
func (r *MemoryTokenRepository) Transfer(_ context.Context, tokenID, newOwnerID string, status model.TokenStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.find(tokenID)
	if t == nil {
		return ErrNotFound
	}
	t.OwnerID = newOwnerID
	t.Status = status
	return nil
}

// find must be called with the lock held.
func (r *MemoryTokenRepository) find(tokenID string) *model.CropToken {
	for _, t := range r.tokens {
		if t.TokenID == tokenID {
			return t
		}
	}
	return nil
}

// MemorySettlementRepository is an in-memory, thread-safe settlement store.
type MemorySettlementRepository struct {
	mu          sync.RWMutex
	settlements []*model.SettlementRecord
}

// NewMemorySettlementRepository creates an empty MemorySettlementRepository.
func NewMemorySettlementRepository() *MemorySettlementRepository {
	return &MemorySettlementRepository{}
}

// Create appends a new settlement record.
func (r *MemorySettlementRepository) Create(_ context.Context, s *model.SettlementRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ss := *s
	r.settlements = append(r.settlements, &ss)
	return nil
}

// GetByID retrieves a settlement by its identifier.
func (r *MemorySettlementRepository) GetByID(_ context.Context, settlementID string) (*model.SettlementRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.settlements {
		if s.SettlementID == settlementID {
			out := *s
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// List returns all settlements in creation order.
func (r *MemorySettlementRepository) List(_ context.Context) ([]*model.SettlementRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.SettlementRecord, len(r.settlements))
	for i, s := range r.settlements {
		ss := *s
		out[i] = &ss
	}
	return out, nil
}
