package auditchain

import (
	"context"
	"fmt"
)

// Chain is the interface for the append-only audit log.
// Both MemoryChain and PostgresChain implement this interface.
type Chain interface {
	// LogEvent appends a new entry chained to the previous one.
	// The read-compute-append sequence is serialised internally, so two
	// concurrent calls can never fork the chain.
	LogEvent(ctx context.Context, eventType EventType, actor string, data map[string]any) (*Entry, error)

	// Trail returns all entries in insertion order. Callers receive copies;
	// mutating them does not affect the stored chain.
	Trail(ctx context.Context) ([]*Entry, error)

	// Verify walks the full trail and checks both chain linkage
	// (entry[i].PreviousHash == entry[i-1].CurrentHash) and each entry's
	// recomputed hash. Tampering is a query result, not an error: the
	// returned error is reserved for storage failures.
	Verify(ctx context.Context) (*VerifyResult, error)

	// Len returns the number of entries in the trail.
	Len(ctx context.Context) (int, error)

	// Root returns the CurrentHash of the most recent entry, or GenesisHash
	// when the trail is empty.
	Root(ctx context.Context) (string, error)
}

// VerifyResult reports the outcome of an integrity check.
type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Entries int    `json:"total_entries"`

	// EntryID and Index identify the first broken entry when Valid is false.
	EntryID string `json:"entry_id,omitempty"`
	Index   int    `json:"index,omitempty"`
}

// verifyWalk holds the streaming state shared by both Chain implementations.
type verifyWalk struct {
	prevHash string
	index    int
}

func newVerifyWalk() *verifyWalk {
	return &verifyWalk{prevHash: GenesisHash}
}

// step checks one entry against the walk state. It returns a non-nil
// VerifyResult when the chain is broken at this entry, and an error only
// when the entry cannot be rehashed.
func (w *verifyWalk) step(e *Entry) (*VerifyResult, error) {
	if e.PreviousHash != w.prevHash {
		return &VerifyResult{
			Valid:   false,
			Message: fmt.Sprintf("Audit trail tampered at entry %d", w.index),
			EntryID: e.EventID,
			Index:   w.index,
		}, nil
	}

	recomputed, err := hashEntry(e)
	if err != nil {
		return nil, err
	}
	if recomputed != e.CurrentHash {
		return &VerifyResult{
			Valid:   false,
			Message: fmt.Sprintf("Audit entry %d does not match its recorded hash", w.index),
			EntryID: e.EventID,
			Index:   w.index,
		}, nil
	}

	w.prevHash = e.CurrentHash
	w.index++
	return nil, nil
}

// done produces the valid result after a complete walk.
func (w *verifyWalk) done() *VerifyResult {
	if w.index == 0 {
		return &VerifyResult{Valid: true, Message: "Audit log is empty"}
	}
	return &VerifyResult{
		Valid:   true,
		Message: "Audit trail integrity verified",
		Entries: w.index,
	}
}
