package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agroledger/cropchain/internal/exchange/model"
)

// TokenRepository provides access to crop tokens in PostgreSQL.
type TokenRepository struct {
	db *pgxpool.Pool
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create inserts a new token.
func (r *TokenRepository) Create(ctx context.Context, token *model.CropToken) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO crop_tokens (token_id, linked_crop_id, owner_id, status, audit_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		token.TokenID, token.LinkedCropID, token.OwnerID,
		token.Status, token.AuditHash, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByID retrieves a token by its identifier.
func (r *TokenRepository) GetByID(ctx context.Context, tokenID string) (*model.CropToken, error) {
	token := &model.CropToken{}
	err := r.db.QueryRow(ctx,
		`SELECT token_id, linked_crop_id, owner_id, status, audit_hash, created_at
		 FROM crop_tokens WHERE token_id = $1`, tokenID,
	).Scan(
		&token.TokenID, &token.LinkedCropID, &token.OwnerID,
		&token.Status, &token.AuditHash, &token.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token %s: %w", tokenID, err)
	}
	return token, nil
}

// List returns all tokens, optionally filtered by status. An empty status
// returns every token.
func (r *TokenRepository) List(ctx context.Context, status model.TokenStatus) ([]*model.CropToken, error) {
	rows, err := r.db.Query(ctx,
		`SELECT token_id, linked_crop_id, owner_id, status, audit_hash, created_at
		 FROM crop_tokens
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY token_id ASC`, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*model.CropToken
	for rows.Next() {
		token := &model.CropToken{}
		if err := rows.Scan(
			&token.TokenID, &token.LinkedCropID, &token.OwnerID,
			&token.Status, &token.AuditHash, &token.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// UpdateStatus moves a token to a new lifecycle state.
func (r *TokenRepository) UpdateStatus(ctx context.Context, tokenID string, status model.TokenStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE crop_tokens SET status = $2 WHERE token_id = $1`,
		tokenID, status,
	)
	if err != nil {
		return fmt.Errorf("update token status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Transfer reassigns ownership and moves the token to a new state in one
// statement, so no reader observes the owner and status out of step.
func (r *TokenRepository) Transfer(ctx context.Context, tokenID, newOwnerID string, status model.TokenStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE crop_tokens SET owner_id = $2, status = $3 WHERE token_id = $1`,
		tokenID, newOwnerID, status,
	)
	if err != nil {
		return fmt.Errorf("transfer token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
