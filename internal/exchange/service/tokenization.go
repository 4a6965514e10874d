// Package service contains the ledger engine: the crop → token → settlement
// state machine, its ownership and state-transition rules, and the audit
// events emitted for every mutation. It is the sole writer of all four
// record collections.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agroledger/cropchain/internal/auditchain"
	"github.com/agroledger/cropchain/internal/exchange/model"
	"github.com/agroledger/cropchain/internal/exchange/repository"
	"github.com/agroledger/cropchain/internal/ids"
	"github.com/agroledger/cropchain/internal/oracle"
)

// CropStore is the crop persistence interface for the engine.
// *repository.CropRepository and *repository.MemoryCropRepository satisfy it.
type CropStore interface {
	Create(ctx context.Context, crop *model.CropAsset) error
	GetByID(ctx context.Context, cropID string) (*model.CropAsset, error)
	List(ctx context.Context) ([]*model.CropAsset, error)
}

// TokenStore is the token persistence interface for the engine.
type TokenStore interface {
	Create(ctx context.Context, token *model.CropToken) error
	GetByID(ctx context.Context, tokenID string) (*model.CropToken, error)
	List(ctx context.Context, status model.TokenStatus) ([]*model.CropToken, error)
	UpdateStatus(ctx context.Context, tokenID string, status model.TokenStatus) error
	Transfer(ctx context.Context, tokenID, newOwnerID string, status model.TokenStatus) error
}

// SettlementStore is the settlement persistence interface for the engine.
type SettlementStore interface {
	Create(ctx context.Context, s *model.SettlementRecord) error
	GetByID(ctx context.Context, settlementID string) (*model.SettlementRecord, error)
	List(ctx context.Context) ([]*model.SettlementRecord, error)
}

// TokenizationService orchestrates crop registration, token listing, and
// trade settlement.
//
// A single mutex serialises every read-modify-write sequence, so two
// concurrent listings of the same token cannot both pass the status check,
// and the settlement insert, token transfer, and audit append of a trade
// appear as one unit to concurrent readers. The oracle is consulted before
// the lock is taken; only in-memory and store work happens inside it.
type TokenizationService struct {
	crops       CropStore
	tokens      TokenStore
	settlements SettlementStore
	chain       auditchain.Chain
	prices      oracle.PriceSource
	ids         *ids.Generator
	logger      *zap.Logger

	mu sync.Mutex
}

// NewTokenizationService creates a new TokenizationService.
func NewTokenizationService(
	crops CropStore,
	tokens TokenStore,
	settlements SettlementStore,
	chain auditchain.Chain,
	prices oracle.PriceSource,
	logger *zap.Logger,
) *TokenizationService {
	return &TokenizationService{
		crops:       crops,
		tokens:      tokens,
		settlements: settlements,
		chain:       chain,
		prices:      prices,
		ids:         &ids.Generator{},
		logger:      logger,
	}
}

// RegistrationResult is returned by RegisterCrop.
type RegistrationResult struct {
	Crop  *model.CropAsset `json:"crop"`
	Token *model.CropToken `json:"token"`
}

// RegisterCrop registers a new harvest lot and atomically creates its token.
//
// Quantity positivity is a caller contract enforced at the transport
// boundary; the engine does not re-validate it. Emits CROP_REGISTERED then
// TOKEN_CREATED.
func (s *TokenizationService) RegisterCrop(ctx context.Context, req *model.RegisterCropRequest) (*RegistrationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Microsecond)
	crop := &model.CropAsset{
		CropID:       s.ids.Next("CROP_" + strings.ToUpper(req.CropType)),
		CropType:     req.CropType,
		Quantity:     req.Quantity,
		QualityGrade: req.QualityGrade,
		MarketID:     req.MarketID,
		FarmerID:     req.FarmerID,
		RegisteredAt: now,
	}
	if err := s.crops.Create(ctx, crop); err != nil {
		return nil, fmt.Errorf("persist crop: %w", err)
	}

	// The token's provenance fingerprint uses the chain's hash function
	// seeded from genesis; it identifies the token's creation content and
	// is independent of the chain's running hash.
	auditHash, err := auditchain.HashEvent(
		auditchain.EventTokenCreated, crop.FarmerID, now,
		map[string]any{"crop_id": crop.CropID}, auditchain.GenesisHash,
	)
	if err != nil {
		return nil, fmt.Errorf("compute token audit hash: %w", err)
	}

	token := &model.CropToken{
		TokenID:      s.ids.Next("TOKEN"),
		LinkedCropID: crop.CropID,
		OwnerID:      crop.FarmerID,
		Status:       model.TokenStatusCreated,
		AuditHash:    auditHash,
		CreatedAt:    now,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}

	if _, err := s.chain.LogEvent(ctx, auditchain.EventCropRegistered, crop.FarmerID, map[string]any{
		"crop_id":       crop.CropID,
		"crop_type":     crop.CropType,
		"quantity":      crop.Quantity,
		"quality_grade": string(crop.QualityGrade),
	}); err != nil {
		return nil, fmt.Errorf("audit crop registration: %w", err)
	}
	if _, err := s.chain.LogEvent(ctx, auditchain.EventTokenCreated, crop.FarmerID, map[string]any{
		"token_id": token.TokenID,
		"crop_id":  crop.CropID,
	}); err != nil {
		return nil, fmt.Errorf("audit token creation: %w", err)
	}

	s.logger.Info("crop registered and tokenized",
		zap.String("crop_id", crop.CropID),
		zap.String("token_id", token.TokenID),
		zap.String("farmer_id", crop.FarmerID),
	)
	return &RegistrationResult{Crop: crop, Token: token}, nil
}

// ListToken puts a CREATED token up for sale.
//
// Preconditions checked in order, first failing one wins: the token must
// exist, the seller must own it, and it must still be in CREATED state.
func (s *TokenizationService) ListToken(ctx context.Context, req *model.ListTokenRequest) (*model.CropToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.tokens.GetByID(ctx, req.TokenID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Token not found")
	}
	if err != nil {
		return nil, err
	}

	if token.OwnerID != req.SellerID {
		return nil, unauthorized("Unauthorized: You don't own this token")
	}
	if token.Status != model.TokenStatusCreated {
		return nil, invalidState("Token cannot be listed. Current status: %s", token.Status)
	}

	if err := s.tokens.UpdateStatus(ctx, token.TokenID, model.TokenStatusListed); err != nil {
		return nil, fmt.Errorf("update token status: %w", err)
	}
	token.Status = model.TokenStatusListed

	if _, err := s.chain.LogEvent(ctx, auditchain.EventTokenListed, req.SellerID, map[string]any{
		"token_id": token.TokenID,
	}); err != nil {
		return nil, fmt.Errorf("audit token listing: %w", err)
	}

	s.logger.Info("token listed",
		zap.String("token_id", token.TokenID),
		zap.String("seller_id", req.SellerID),
	)
	return token, nil
}

// ExecuteTrade settles a trade on a LISTED token: it creates a COMPLETED
// settlement record at the oracle price, transfers the token to the buyer,
// and marks it SETTLED — as one unit under the engine lock.
func (s *TokenizationService) ExecuteTrade(ctx context.Context, req *model.TradeRequest) (*model.SettlementRecord, error) {
	// Resolve the price before taking the lock: the oracle may be remote,
	// and nothing slow is allowed inside the critical section. The token's
	// state is re-checked once the lock is held.
	crop, failure, err := s.tradePrecheck(ctx, req.TokenID)
	if failure != nil || err != nil {
		return nil, firstErr(failure, err)
	}
	pricePerKg, err := s.prices.PricePerKg(ctx, crop.CropType, crop.MarketID)
	if err != nil {
		return nil, fmt.Errorf("price lookup for %s/%s: %w", crop.CropType, crop.MarketID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.tokens.GetByID(ctx, req.TokenID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Token not found")
	}
	if err != nil {
		return nil, err
	}
	if token.Status != model.TokenStatusListed {
		return nil, invalidState("Token not available for trade. Status: %s", token.Status)
	}

	settlement := &model.SettlementRecord{
		SettlementID:   s.ids.Next("SETTLEMENT"),
		TokenID:        token.TokenID,
		SellerID:       token.OwnerID,
		BuyerID:        req.BuyerID,
		PricePerKg:     pricePerKg,
		Quantity:       crop.Quantity,
		TotalAmount:    pricePerKg * crop.Quantity,
		SettlementTime: time.Now().UTC().Truncate(time.Microsecond),
		Status:         model.SettlementCompleted,
	}
	if err := s.settlements.Create(ctx, settlement); err != nil {
		return nil, fmt.Errorf("persist settlement: %w", err)
	}

	if err := s.tokens.Transfer(ctx, token.TokenID, req.BuyerID, model.TokenStatusSettled); err != nil {
		return nil, fmt.Errorf("transfer token: %w", err)
	}

	if _, err := s.chain.LogEvent(ctx, auditchain.EventTradeSettled, req.BuyerID, map[string]any{
		"token_id":      token.TokenID,
		"settlement_id": settlement.SettlementID,
		"seller":        settlement.SellerID,
		"buyer":         settlement.BuyerID,
		"amount":        settlement.TotalAmount,
	}); err != nil {
		return nil, fmt.Errorf("audit trade settlement: %w", err)
	}

	s.logger.Info("trade settled",
		zap.String("token_id", token.TokenID),
		zap.String("settlement_id", settlement.SettlementID),
		zap.Float64("total_amount", settlement.TotalAmount),
	)
	return settlement, nil
}

// tradePrecheck resolves the token and its linked crop without holding the
// engine lock. It reproduces ExecuteTrade's precondition order so callers
// get the right message even when the trade would fail before pricing.
func (s *TokenizationService) tradePrecheck(ctx context.Context, tokenID string) (*model.CropAsset, *Failure, error) {
	token, err := s.tokens.GetByID(ctx, tokenID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Token not found"), nil
	}
	if err != nil {
		return nil, nil, err
	}
	if token.Status != model.TokenStatusListed {
		return nil, invalidState("Token not available for trade. Status: %s", token.Status), nil
	}

	crop, err := s.crops.GetByID(ctx, token.LinkedCropID)
	if errors.Is(err, repository.ErrNotFound) {
		// Unreachable while the one-token-per-crop invariant holds.
		return nil, notFound("Linked crop not found"), nil
	}
	if err != nil {
		return nil, nil, err
	}
	return crop, nil, nil
}

func firstErr(failure *Failure, err error) error {
	if failure != nil {
		return failure
	}
	return err
}
