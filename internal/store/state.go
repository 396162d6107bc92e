package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hferrand/sentry-gate/internal/controller"
	"github.com/hferrand/sentry-gate/internal/infrastructure/database"
)

// StateStore persists the gateway's boot mode and last known state as a
// single row. It implements the controller's Store interface.
type StateStore struct {
	db *database.DB

	// now is injectable for tests.
	now func() time.Time
}

// NewStateStore creates a state store over an open database.
func NewStateStore(db *database.DB) *StateStore {
	return &StateStore{db: db, now: time.Now}
}

// Load returns the stored boot mode and last state. A missing row is
// not an error; defaults are returned so a fresh install boots
// disarmed.
func (s *StateStore) Load(ctx context.Context) (controller.BootMode, controller.SystemState, error) {
	var modeName, stateName string
	err := s.db.QueryRowContext(ctx,
		"SELECT boot_mode, last_state FROM gateway_state WHERE id = 1",
	).Scan(&modeName, &stateName)
	if errors.Is(err, sql.ErrNoRows) {
		return controller.BootRestoreLast, controller.StateDisarmed, nil
	}
	if err != nil {
		return controller.BootRestoreLast, controller.StateDisarmed,
			fmt.Errorf("loading gateway state: %w", err)
	}

	mode, ok := controller.ParseBootMode(modeName)
	if !ok {
		return controller.BootRestoreLast, controller.StateDisarmed,
			fmt.Errorf("loading gateway state: unknown boot mode %q", modeName)
	}
	state, ok := controller.ParseState(stateName)
	if !ok {
		return controller.BootRestoreLast, controller.StateDisarmed,
			fmt.Errorf("loading gateway state: unknown state %q", stateName)
	}
	return mode, state, nil
}

// Save durably records the boot mode and current state, creating the
// row on first write.
func (s *StateStore) Save(ctx context.Context, mode controller.BootMode, state controller.SystemState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gateway_state (id, boot_mode, last_state, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			boot_mode = excluded.boot_mode,
			last_state = excluded.last_state,
			updated_at = excluded.updated_at
	`, mode.String(), state.String(), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving gateway state: %w", err)
	}
	return nil
}

// SetBootMode updates the boot mode without touching the stored state.
// Used by the remote BOOT_MODE command.
func (s *StateStore) SetBootMode(ctx context.Context, mode controller.BootMode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gateway_state (id, boot_mode, last_state, updated_at)
		VALUES (1, ?, 'disarmed', ?)
		ON CONFLICT (id) DO UPDATE SET
			boot_mode = excluded.boot_mode,
			updated_at = excluded.updated_at
	`, mode.String(), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("setting boot mode: %w", err)
	}
	return nil
}
