// Package oracle supplies per-kilogram commodity prices for trade settlement.
//
// A PriceSource answers "what does one kg of this commodity cost at this
// market". Production wires a PostgresSource over the seeded prices table
// with a StaticSource fallback; the static table alone is enough for
// development and tests.
package oracle

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNoQuote is returned by a PriceSource that has no price for the
// requested commodity/market pair.
var ErrNoQuote = errors.New("no price quote for commodity/market pair")

// Quote is one oracle price observation.
type Quote struct {
	CropType   string    `json:"crop_type"`
	MarketID   string    `json:"market_id"`
	PricePerKg float64   `json:"price_per_kg"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

// PriceSource resolves the unit price for a commodity at a market.
type PriceSource interface {
	PricePerKg(ctx context.Context, cropType, marketID string) (float64, error)
}

// defaultPrices is the static fallback table, keyed by lowercased commodity.
var defaultPrices = map[string]float64{
	"wheat":  22.0,
	"rice":   28.0,
	"cotton": 45.0,
}

// globalDefaultPrice covers commodities absent from the static table.
const globalDefaultPrice = 20.0

// StaticSource serves the built-in default price table. It never fails:
// unknown commodities fall back to the global default, so a chain ending in
// a StaticSource always produces a price.
type StaticSource struct{}

// NewStatic creates a StaticSource.
func NewStatic() StaticSource { return StaticSource{} }

// PricePerKg implements PriceSource. The market is ignored: defaults are
// per commodity only.
func (StaticSource) PricePerKg(_ context.Context, cropType, _ string) (float64, error) {
	if p, ok := defaultPrices[strings.ToLower(cropType)]; ok {
		return p, nil
	}
	return globalDefaultPrice, nil
}

// Fallback chains price sources: each is tried in order, and ErrNoQuote
// moves on to the next. Any other error is a storage failure and propagates.
type Fallback []PriceSource

// PricePerKg implements PriceSource.
func (f Fallback) PricePerKg(ctx context.Context, cropType, marketID string) (float64, error) {
	for _, src := range f {
		price, err := src.PricePerKg(ctx, cropType, marketID)
		if errors.Is(err, ErrNoQuote) {
			continue
		}
		if err != nil {
			return 0, err
		}
		return price, nil
	}
	return 0, ErrNoQuote
}
