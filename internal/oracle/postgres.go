package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads oracle quotes from the prices table.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgresSource backed by the given connection pool.
func NewPostgres(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// PricePerKg implements PriceSource. The newest quote for the pair wins.
func (s *PostgresSource) PricePerKg(ctx context.Context, cropType, marketID string) (float64, error) {
	var price float64
	err := s.pool.QueryRow(ctx,
		`SELECT price_per_kg FROM prices
		 WHERE crop_type = $1 AND market_id = $2
		 ORDER BY ts DESC LIMIT 1`,
		cropType, marketID,
	).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNoQuote
	}
	if err != nil {
		return 0, fmt.Errorf("query price: %w", err)
	}
	return price, nil
}

// Quotes returns all stored quotes, newest first. Used by the read API.
func (s *PostgresSource) Quotes(ctx context.Context) ([]*Quote, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT crop_type, market_id, price_per_kg, source, ts
		 FROM prices ORDER BY ts DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var quotes []*Quote
	for rows.Next() {
		q := &Quote{}
		if err := rows.Scan(&q.CropType, &q.MarketID, &q.PricePerKg, &q.Source, &q.Timestamp); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
