package auditchain

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/agroledger/cropchain/internal/ids"
)

// MemoryChain is an in-memory, thread-safe Chain implementation.
// It is primarily useful for testing and for single-process deployments
// that do not require durable persistence across restarts.
type MemoryChain struct {
	mu      sync.RWMutex
	ids     *ids.Generator
	entries []*Entry
}

// NewMemory creates an empty MemoryChain. The first appended entry will
// chain from GenesisHash.
func NewMemory() *MemoryChain {
	return &MemoryChain{ids: &ids.Generator{}}
}

// LogEvent implements Chain.
func (c *MemoryChain) LogEvent(_ context.Context, eventType EventType, actor string, data map[string]any) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevHash := GenesisHash
	if n := len(c.entries); n > 0 {
		prevHash = c.entries[n-1].CurrentHash
	}

	entry := &Entry{
		EventID:      c.ids.Next("EVENT"),
		EventType:    eventType,
		Actor:        actor,
		Timestamp:    time.Now().UTC().Truncate(time.Microsecond),
		Data:         data,
		PreviousHash: prevHash,
	}

	hash, err := hashEntry(entry)
	if err != nil {
		return nil, err
	}
	entry.CurrentHash = hash

	c.entries = append(c.entries, entry)
	return copyEntry(entry), nil
}

// Trail implements Chain.
func (c *MemoryChain) Trail(_ context.Context) ([]*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = copyEntry(e)
	}
	return out, nil
}

// Verify implements Chain.
func (c *MemoryChain) Verify(_ context.Context) (*VerifyResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	walk := newVerifyWalk()
	for _, e := range c.entries {
		broken, err := walk.step(e)
		if err != nil {
			return nil, err
		}
		if broken != nil {
			return broken, nil
		}
	}
	return walk.done(), nil
}

// Len implements Chain.
func (c *MemoryChain) Len(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}

// Root implements Chain.
func (c *MemoryChain) Root(_ context.Context) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.entries) == 0 {
		return GenesisHash, nil
	}
	return c.entries[len(c.entries)-1].CurrentHash, nil
}

func copyEntry(e *Entry) *Entry {
	out := *e
	if e.Data != nil {
		out.Data = maps.Clone(e.Data)
	}
	return &out
}
