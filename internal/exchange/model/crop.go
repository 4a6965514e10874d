package model

import "time"

// QualityGrade is the assessed grade of a harvest lot.
type QualityGrade string

const (
	GradeA QualityGrade = "A"
	GradeB QualityGrade = "B"
	GradeC QualityGrade = "C"
)

// TokenStatus represents the lifecycle state of a crop token.
// The state machine only moves forward: CREATED → LISTED → SETTLED.
type TokenStatus string

const (
	TokenStatusCreated TokenStatus = "CREATED"
	TokenStatusListed  TokenStatus = "LISTED"
	// TokenStatusSold is declared for interface compatibility with the wire
	// format; no operation currently assigns it.
	TokenStatusSold    TokenStatus = "SOLD"
	TokenStatusSettled TokenStatus = "SETTLED"
)

// CropAsset is a registered physical harvest lot. Created exactly once by
// registration and immutable thereafter.
type CropAsset struct {
	CropID       string       `json:"crop_id"       db:"crop_id"`
	CropType     string       `json:"crop_type"     db:"crop_type"`
	Quantity     float64      `json:"quantity"      db:"quantity"` // kg
	QualityGrade QualityGrade `json:"quality_grade" db:"quality_grade"`
	MarketID     string       `json:"market_id"     db:"market_id"`
	FarmerID     string       `json:"farmer_id"     db:"farmer_id"`
	RegisteredAt time.Time    `json:"registered_at" db:"registered_at"`
}

// CropToken is the tradable digital representation of one CropAsset.
// Exactly one token exists per crop, created atomically with it.
// OwnerID changes only on settlement.
type CropToken struct {
	TokenID      string      `json:"token_id"       db:"token_id"`
	LinkedCropID string      `json:"linked_crop_id" db:"linked_crop_id"`
	OwnerID      string      `json:"owner_id"       db:"owner_id"`
	Status       TokenStatus `json:"status"         db:"status"`
	// AuditHash is a content fingerprint captured at creation, computed with
	// the audit chain's hash function seeded from the genesis value. It is
	// provenance for the token itself, not part of the chain linkage.
	AuditHash string    `json:"audit_hash" db:"audit_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RegisterCropRequest is the payload for registering a new crop.
// Quantity positivity is enforced at the transport boundary; the engine
// treats it as a caller contract.
type RegisterCropRequest struct {
	CropType     string       `json:"crop_type"     binding:"required"`
	Quantity     float64      `json:"quantity"      binding:"required,gt=0"`
	QualityGrade QualityGrade `json:"quality_grade" binding:"required,oneof=A B C"`
	MarketID     string       `json:"market_id"     binding:"required"`
	FarmerID     string       `json:"farmer_id"     binding:"required"`
}

// ListTokenRequest is the payload for putting a token up for sale.
type ListTokenRequest struct {
	TokenID  string `json:"token_id"  binding:"required"`
	SellerID string `json:"seller_id" binding:"required"`
}

// TradeRequest is the payload for accepting a listed token.
type TradeRequest struct {
	TokenID string `json:"token_id" binding:"required"`
	BuyerID string `json:"buyer_id" binding:"required"`
}
