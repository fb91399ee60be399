// Package quota enforces the per-user daily optimization allowance.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/promptpilot/promptpilot/internal/database"
	"github.com/promptpilot/promptpilot/pkg/models"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ledger maintains one consumption counter per (user, UTC calendar day)
// and admits requests against a fixed daily ceiling. The counter lives
// in Postgres so admission stays correct across restarts and across
// concurrent service instances.
type Ledger struct {
	pool    querier
	ceiling int
	now     func() time.Time
}

// New constructs a ledger over the shared connection pool.
func New(db *database.DB, ceiling int) *Ledger {
	return NewWithQuerier(db.Pool, ceiling)
}

// NewWithQuerier constructs a ledger over any pgx querier.
func NewWithQuerier(q querier, ceiling int) *Ledger {
	return &Ledger{pool: q, ceiling: ceiling, now: time.Now}
}

// Ceiling returns the configured daily ceiling.
func (l *Ledger) Ceiling() int {
	return l.ceiling
}

// Reserve atomically consumes one unit of the user's daily allowance.
// The increment and the ceiling comparison happen in a single statement:
// the upsert creates the day's row at count 1, or increments an existing
// row only while it is still below the ceiling. Zero rows back means the
// ceiling was reached and nothing was consumed. A separate read followed
// by a write would admit a race window under concurrent calls; this
// collapses check and consume into one serialized write per key.
func (l *Ledger) Reserve(ctx context.Context, userID string) (*models.Reservation, error) {
	day := models.UTCDay(l.now())

	const q = `
		INSERT INTO usage_logs (user_id, date, call_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, date) DO UPDATE
		SET call_count = usage_logs.call_count + 1
		WHERE usage_logs.call_count < $3
		RETURNING call_count
	`

	var count int
	err := l.pool.QueryRow(ctx, q, userID, day, l.ceiling).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		// Ceiling reached; report the settled counter without consuming.
		used, err := l.usedOn(ctx, userID, day)
		if err != nil {
			return nil, err
		}
		return &models.Reservation{Admitted: false, UsedToday: used, Remaining: remaining(used, l.ceiling)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reserve quota: %w", err)
	}

	return &models.Reservation{Admitted: true, UsedToday: count, Remaining: remaining(count, l.ceiling)}, nil
}

// Peek reports the user's current usage without mutating anything. A
// day with no consumption reads as zero; no row is created.
func (l *Ledger) Peek(ctx context.Context, userID string) (*models.Usage, error) {
	now := l.now()
	used, err := l.usedOn(ctx, userID, models.UTCDay(now))
	if err != nil {
		return nil, err
	}

	return &models.Usage{
		UsedToday:      used,
		RemainingToday: remaining(used, l.ceiling),
		Ceiling:        l.ceiling,
		ResetsAt:       models.NextUTCMidnight(now),
	}, nil
}

func (l *Ledger) usedOn(ctx context.Context, userID string, day time.Time) (int, error) {
	const q = `SELECT call_count FROM usage_logs WHERE user_id = $1 AND date = $2`

	var used int
	err := l.pool.QueryRow(ctx, q, userID, day).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage: %w", err)
	}

	return used, nil
}

func remaining(used, ceiling int) int {
	if used >= ceiling {
		return 0
	}
	return ceiling - used
}
