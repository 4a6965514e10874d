package oracle

import (
	"context"
	"sync"
	"time"
)

type pairKey struct {
	cropType string
	marketID string
}

// MemorySource is an in-memory PriceSource for tests and development.
type MemorySource struct {
	mu     sync.RWMutex
	quotes map[pairKey]*Quote
}

// NewMemory creates an empty MemorySource.
func NewMemory() *MemorySource {
	return &MemorySource{quotes: make(map[pairKey]*Quote)}
}

// Set records a quote for the commodity/market pair, replacing any previous one.
func (s *MemorySource) Set(cropType, marketID string, pricePerKg float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[pairKey{cropType, marketID}] = &Quote{
		CropType:   cropType,
		MarketID:   marketID,
		PricePerKg: pricePerKg,
		Source:     "memory",
		Timestamp:  time.Now().UTC(),
	}
}

// PricePerKg implements PriceSource.
func (s *MemorySource) PricePerKg(_ context.Context, cropType, marketID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.quotes[pairKey{cropType, marketID}]; ok {
		return q.PricePerKg, nil
	}
	return 0, ErrNoQuote
}
