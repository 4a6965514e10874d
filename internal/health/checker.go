// Package health runs periodic background integrity checks over the audit
// chain and exposes the latest result to the liveness endpoint. A broken
// chain never takes the service down; it is surfaced and logged so an
// operator can investigate.
package health

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agroledger/cropchain/internal/auditchain"
)

// Config holds integrity check configuration.
type Config struct {
	CheckInterval time.Duration
	CheckTimeout  time.Duration
}

// MetricsRecordFunc is an optional callback for recording check results.
type MetricsRecordFunc func(valid bool)

// Status is a snapshot of the most recent integrity check.
type Status struct {
	ChainValid  bool      `json:"chain_valid"`
	Entries     int       `json:"entries"`
	Message     string    `json:"message,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Checker periodically verifies the audit chain.
type Checker struct {
	chain     auditchain.Chain
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger

	mu     sync.Mutex
	latest Status
}

// New creates a new Checker.
func New(chain auditchain.Chain, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 5 * time.Minute
	}
	if cfg.CheckTimeout == 0 {
		cfg.CheckTimeout = 30 * time.Second
	}
	return &Checker{
		chain:  chain,
		cfg:    cfg,
		latest: Status{ChainValid: true},
		logger: logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (c *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	c.onMetrics = fn
}

// Start runs the check loop until quit is signalled.
func (c *Checker) Start(quit <-chan os.Signal) {
	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CheckTimeout)
			c.Check(ctx)
			cancel()
		case <-quit:
			return
		}
	}
}

// Check runs one integrity pass and records the result.
func (c *Checker) Check(ctx context.Context) {
	res, err := c.chain.Verify(ctx)
	now := time.Now().UTC()

	if err != nil {
		c.logger.Error("health: audit chain verify", zap.Error(err))
		c.setLatest(Status{ChainValid: false, Message: err.Error(), LastChecked: now})
		return
	}

	if c.onMetrics != nil {
		c.onMetrics(res.Valid)
	}
	if !res.Valid {
		c.logger.Warn("health: audit chain integrity FAILED",
			zap.String("entry_id", res.EntryID),
			zap.Int("index", res.Index),
		)
	}
	c.setLatest(Status{
		ChainValid:  res.Valid,
		Entries:     res.Entries,
		Message:     res.Message,
		LastChecked: now,
	})
}

// Latest returns the most recent check result.
func (c *Checker) Latest() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

func (c *Checker) setLatest(s Status) {
	c.mu.Lock()
	c.latest = s
	c.mu.Unlock()
}
