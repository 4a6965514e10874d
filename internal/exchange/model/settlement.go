package model

import "time"

// SettlementStatus is the outcome state of a settlement record.
type SettlementStatus string

const (
	// SettlementPending and SettlementFailed are declared for interface
	// compatibility; ExecuteTrade settles synchronously and only ever
	// writes COMPLETED.
	SettlementPending   SettlementStatus = "PENDING"
	SettlementCompleted SettlementStatus = "COMPLETED"
	SettlementFailed    SettlementStatus = "FAILED"
)

// SettlementRecord is the immutable outcome of a completed trade.
// TotalAmount is derived: it always equals PricePerKg × Quantity.
type SettlementRecord struct {
	SettlementID   string           `json:"settlement_id"     db:"settlement_id"`
	TokenID        string           `json:"token_id"          db:"token_id"`
	SellerID       string           `json:"seller_id"         db:"seller_id"`
	BuyerID        string           `json:"buyer_id"          db:"buyer_id"`
	PricePerKg     float64          `json:"price_per_kg"      db:"price_per_kg"`
	Quantity       float64          `json:"quantity"          db:"quantity"`
	TotalAmount    float64          `json:"total_amount"      db:"total_amount"`
	SettlementTime time.Time        `json:"settlement_time"   db:"settlement_time"`
	Status         SettlementStatus `json:"settlement_status" db:"settlement_status"`
}
