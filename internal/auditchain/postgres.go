package auditchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/agroledger/cropchain/internal/ids"
)

// advisoryLockKey is a stable PostgreSQL advisory lock key used to serialise
// concurrent LogEvent calls. The value is arbitrary but must be consistent
// across all exchange instances.
const advisoryLockKey = int64(7_204_118_650)

// PostgresChain persists the audit chain to a PostgreSQL database.
// It implements the Chain interface.
type PostgresChain struct {
	pool   *pgxpool.Pool
	ids    *ids.Generator
	logger *zap.Logger
}

// NewPostgres creates a PostgresChain backed by the given connection pool.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *PostgresChain {
	return &PostgresChain{pool: pool, ids: &ids.Generator{}, logger: logger}
}

// LogEvent implements Chain.
// It acquires a PostgreSQL advisory lock, reads the chain tail, computes the
// new entry hash, and inserts it — all within a single transaction, so
// concurrent appends cannot both chain from the same tail.
func (c *PostgresChain) LogEvent(ctx context.Context, eventType EventType, actor string, data map[string]any) (*Entry, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// The lock is released automatically when the transaction ends.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	prevHash := GenesisHash
	err = tx.QueryRow(ctx,
		"SELECT current_hash FROM audit_log ORDER BY seq DESC LIMIT 1",
	).Scan(&prevHash)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("read chain tail: %w", err)
	}

	entry := &Entry{
		EventID:      c.ids.Next("EVENT"),
		EventType:    eventType,
		Actor:        actor,
		// Truncated to microseconds so the value survives a round-trip
		// through timestamptz and the hash stays recomputable.
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
		Data:      data,
		PreviousHash: prevHash,
	}
	entry.CurrentHash, err = hashEntry(entry)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO audit_log (event_id, event_type, actor, ts, data, previous_hash, current_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.EventID, entry.EventType, entry.Actor, entry.Timestamp,
		dataJSON, entry.PreviousHash, entry.CurrentHash,
	); err != nil {
		return nil, fmt.Errorf("insert audit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit audit tx: %w", err)
	}

	c.logger.Debug("audit entry appended",
		zap.String("event_id", entry.EventID),
		zap.String("event_type", string(entry.EventType)),
		zap.String("actor", entry.Actor),
	)
	return entry, nil
}

// Trail implements Chain.
func (c *PostgresChain) Trail(ctx context.Context) ([]*Entry, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT event_id, event_type, actor, ts, data, previous_hash, current_hash
		 FROM audit_log ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Verify implements Chain. It streams all rows in insertion order and
// validates the hash chain. O(n) in trail length.
func (c *PostgresChain) Verify(ctx context.Context) (*VerifyResult, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT event_id, event_type, actor, ts, data, previous_hash, current_hash
		 FROM audit_log ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	walk := newVerifyWalk()
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		broken, err := walk.step(e)
		if err != nil {
			return nil, err
		}
		if broken != nil {
			return broken, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return walk.done(), nil
}

// Len implements Chain.
func (c *PostgresChain) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_log").Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}

// Root implements Chain.
func (c *PostgresChain) Root(ctx context.Context) (string, error) {
	hash := GenesisHash
	err := c.pool.QueryRow(ctx,
		"SELECT current_hash FROM audit_log ORDER BY seq DESC LIMIT 1",
	).Scan(&hash)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("get chain root: %w", err)
	}
	return hash, nil
}

func scanEntry(rows pgx.Rows) (*Entry, error) {
	e := &Entry{}
	var dataJSON []byte
	if err := rows.Scan(
		&e.EventID, &e.EventType, &e.Actor, &e.Timestamp,
		&dataJSON, &e.PreviousHash, &e.CurrentHash,
	); err != nil {
		return nil, fmt.Errorf("scan audit row: %w", err)
	}
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &e.Data); err != nil {
			return nil, fmt.Errorf("decode audit data: %w", err)
		}
	}
	return e, nil
}
