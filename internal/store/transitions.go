package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hferrand/sentry-gate/internal/controller"
	"github.com/hferrand/sentry-gate/internal/infrastructure/database"
)

// timestampLayout is a fixed-width RFC 3339 form. RFC3339Nano trims
// trailing zeros, which breaks lexicographic ORDER BY on the TEXT
// column ('Z' sorts above '.'). Every stored value must use this
// layout so string order matches time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// TransitionLog is the append-only audit trail of accepted state
// changes. It implements the controller's Reporter interface.
type TransitionLog struct {
	db *database.DB
}

// NewTransitionLog creates a transition log over an open database.
func NewTransitionLog(db *database.DB) *TransitionLog {
	return &TransitionLog{db: db}
}

// ReportStateChange appends one transition to the trail.
func (l *TransitionLog) ReportStateChange(ctx context.Context, t controller.Transition) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO state_transitions (id, previous, next, source, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		uuid.New().String(),
		t.Previous.String(),
		t.Next.String(),
		t.Source,
		t.At.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("recording transition: %w", err)
	}
	return nil
}

// Recent returns the latest transitions, newest first, capped at limit.
func (l *TransitionLog) Recent(ctx context.Context, limit int) ([]controller.Transition, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT previous, next, source, occurred_at
		FROM state_transitions
		ORDER BY occurred_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying transitions: %w", err)
	}
	defer rows.Close()

	var out []controller.Transition
	for rows.Next() {
		var prevName, nextName, source, occurredAt string
		if err := rows.Scan(&prevName, &nextName, &source, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning transition row: %w", err)
		}

		var t controller.Transition
		t.Previous, _ = controller.ParseState(prevName)
		t.Next, _ = controller.ParseState(nextName)
		t.Source = source
		t.At, _ = time.Parse(time.RFC3339Nano, occurredAt)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transitions: %w", err)
	}
	return out, nil
}
