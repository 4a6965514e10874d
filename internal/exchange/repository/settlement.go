package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agroledger/cropchain/internal/exchange/model"
)

// SettlementRepository provides access to settlement records in PostgreSQL.
// Settlements are write-once: there is no update operation.
type SettlementRepository struct {
	db *pgxpool.Pool
}

// NewSettlementRepository creates a new SettlementRepository.
func NewSettlementRepository(db *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// Create inserts a new settlement record.
func (r *SettlementRepository) Create(ctx context.Context, s *model.SettlementRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO settlements (settlement_id, token_id, seller_id, buyer_id,
		                          price_per_kg, quantity, total_amount, settlement_time, settlement_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.SettlementID, s.TokenID, s.SellerID, s.BuyerID,
		s.PricePerKg, s.Quantity, s.TotalAmount, s.SettlementTime, s.Status,
	)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

// GetByID retrieves a settlement by its identifier.
func (r *SettlementRepository) GetByID(ctx context.Context, settlementID string) (*model.SettlementRecord, error) {
	s := &model.SettlementRecord{}
	err := r.db.QueryRow(ctx,
		`SELECT settlement_id, token_id, seller_id, buyer_id,
		        price_per_kg, quantity, total_amount, settlement_time, settlement_status
		 FROM settlements WHERE settlement_id = $1`, settlementID,
	).Scan(
		&s.SettlementID, &s.TokenID, &s.SellerID, &s.BuyerID,
		&s.PricePerKg, &s.Quantity, &s.TotalAmount, &s.SettlementTime, &s.Status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settlement %s: %w", settlementID, err)
	}
	return s, nil
}

// List returns all settlements in creation order.
func (r *SettlementRepository) List(ctx context.Context) ([]*model.SettlementRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT settlement_id, token_id, seller_id, buyer_id,
		        price_per_kg, quantity, total_amount, settlement_time, settlement_status
		 FROM settlements ORDER BY settlement_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()

	var out []*model.SettlementRecord
	for rows.Next() {
		s := &model.SettlementRecord{}
		if err := rows.Scan(
			&s.SettlementID, &s.TokenID, &s.SellerID, &s.BuyerID,
			&s.PricePerKg, &s.Quantity, &s.TotalAmount, &s.SettlementTime, &s.Status,
		); err != nil {
			return nil, fmt.Errorf("scan settlement row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
