// Package repository provides durable stores for the exchange's three
// record collections: crops, crop tokens, and settlements. Each collection
// has a PostgreSQL implementation for production and an in-memory one for
// tests and single-process development; the audit trail lives in its own
// package (internal/auditchain) because it carries the hashing discipline.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agroledger/cropchain/internal/exchange/model"
)

// ErrNotFound is returned when a record does not exist in its collection.
var ErrNotFound = errors.New("record not found")

// CropRepository provides access to crop assets in PostgreSQL.
// Crops are write-once: there is no update operation.
type CropRepository struct {
	db *pgxpool.Pool
}

// NewCropRepository creates a new CropRepository.
func NewCropRepository(db *pgxpool.Pool) *CropRepository {
	return &CropRepository{db: db}
}

// Create inserts a new crop asset.
func (r *CropRepository) Create(ctx context.Context, crop *model.CropAsset) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO crops (crop_id, crop_type, quantity, quality_grade, market_id, farmer_id, registered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		crop.CropID, crop.CropType, crop.Quantity, crop.QualityGrade,
		crop.MarketID, crop.FarmerID, crop.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("insert crop: %w", err)
	}
	return nil
}

// GetByID retrieves a crop by its identifier.
func (r *CropRepository) GetByID(ctx context.Context, cropID string) (*model.CropAsset, error) {
	crop := &model.CropAsset{}
	err := r.db.QueryRow(ctx,
		`SELECT crop_id, crop_type, quantity, quality_grade, market_id, farmer_id, registered_at
		 FROM crops WHERE crop_id = $1`, cropID,
	).Scan(
		&crop.CropID, &crop.CropType, &crop.Quantity, &crop.QualityGrade,
		&crop.MarketID, &crop.FarmerID, &crop.RegisteredAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get crop %s: %w", cropID, err)
	}
	return crop, nil
}

// List returns all crops in registration order.
func (r *CropRepository) List(ctx context.Context) ([]*model.CropAsset, error) {
	rows, err := r.db.Query(ctx,
		`SELECT crop_id, crop_type, quantity, quality_grade, market_id, farmer_id, registered_at
		 FROM crops ORDER BY crop_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list crops: %w", err)
	}
	defer rows.Close()

	var crops []*model.CropAsset
	for rows.Next() {
		crop := &model.CropAsset{}
		if err := rows.Scan(
			&crop.CropID, &crop.CropType, &crop.Quantity, &crop.QualityGrade,
			&crop.MarketID, &crop.FarmerID, &crop.RegisteredAt,
		); err != nil {
			return nil, fmt.Errorf("scan crop row: %w", err)
		}
		crops = append(crops, crop)
	}
	return crops, rows.Err()
}
