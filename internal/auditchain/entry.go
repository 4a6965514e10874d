package auditchain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// GenesisHash is the well-known value used as PreviousHash for the first
// entry of the chain. All subsequent entry hashes chain from it.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// EventType tags an audit entry with the operation that produced it.
type EventType string

const (
	EventCropRegistered EventType = "CROP_REGISTERED"
	EventTokenCreated   EventType = "TOKEN_CREATED"
	EventTokenListed    EventType = "TOKEN_LISTED"
	EventTradeSettled   EventType = "TRADE_SETTLED"
)

// Entry is a single immutable fact in the audit chain.
type Entry struct {
	EventID      string         `json:"event_id"`
	EventType    EventType      `json:"event_type"`
	Actor        string         `json:"actor"`
	Timestamp    time.Time      `json:"timestamp"`
	Data         map[string]any `json:"data"`
	PreviousHash string         `json:"previous_hash"`
	CurrentHash  string         `json:"current_hash"`
}

// HashEvent computes the SHA-256 hash over an event's fields and the hash it
// chains from. The data map is serialised as canonical JSON (encoding/json
// sorts map keys), so the digest is reproducible regardless of insertion
// order. Exported because token provenance fingerprints reuse the same
// function seeded from GenesisHash.
func HashEvent(eventType EventType, actor string, ts time.Time, data map[string]any, previousHash string) (string, error) {
	canonical, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal event data: %w", err)
	}
	content := fmt.Sprintf("%s|%s|%s|%s|%s",
		eventType, actor, ts.UTC().Format(time.RFC3339Nano), canonical, previousHash,
	)
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:]), nil
}

// hashEntry recomputes an entry's CurrentHash from its own fields.
func hashEntry(e *Entry) (string, error) {
	return HashEvent(e.EventType, e.Actor, e.Timestamp, e.Data, e.PreviousHash)
}
