package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hferrand/sentry-gate/internal/controller"
	"github.com/hferrand/sentry-gate/internal/infrastructure/database"
	_ "github.com/hferrand/sentry-gate/migrations"
)

func openMigratedDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "gateway.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestStateStoreLoadDefaults(t *testing.T) {
	s := NewStateStore(openMigratedDB(t))

	mode, state, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if mode != controller.BootRestoreLast {
		t.Errorf("mode = %v, want %v", mode, controller.BootRestoreLast)
	}
	if state != controller.StateDisarmed {
		t.Errorf("state = %v, want %v", state, controller.StateDisarmed)
	}
}

func TestStateStoreSaveAndLoad(t *testing.T) {
	s := NewStateStore(openMigratedDB(t))
	ctx := context.Background()

	if err := s.Save(ctx, controller.BootForceArmed, controller.StateAlarm); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	mode, state, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if mode != controller.BootForceArmed {
		t.Errorf("mode = %v, want %v", mode, controller.BootForceArmed)
	}
	if state != controller.StateAlarm {
		t.Errorf("state = %v, want %v", state, controller.StateAlarm)
	}

	// A second save overwrites the single row.
	if err := s.Save(ctx, controller.BootRestoreLast, controller.StateDisarmed); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	mode, state, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if mode != controller.BootRestoreLast || state != controller.StateDisarmed {
		t.Errorf("Load() after overwrite = (%v, %v), want (restore_last, disarmed)", mode, state)
	}
}

func TestSetBootModePreservesState(t *testing.T) {
	s := NewStateStore(openMigratedDB(t))
	ctx := context.Background()

	if err := s.Save(ctx, controller.BootRestoreLast, controller.StateArmed); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.SetBootMode(ctx, controller.BootForceDisarmed); err != nil {
		t.Fatalf("SetBootMode() error = %v", err)
	}

	mode, state, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if mode != controller.BootForceDisarmed {
		t.Errorf("mode = %v, want %v", mode, controller.BootForceDisarmed)
	}
	if state != controller.StateArmed {
		t.Errorf("state = %v, want %v (SetBootMode must not change it)", state, controller.StateArmed)
	}
}

func TestTransitionLogAppendAndRecent(t *testing.T) {
	db := openMigratedDB(t)
	log := NewTransitionLog(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	transitions := []controller.Transition{
		{Previous: controller.StateDisarmed, Next: controller.StateArmed, Source: "keypad-01", At: base},
		{Previous: controller.StateArmed, Next: controller.StateAlarm, Source: "door-01", At: base.Add(time.Minute)},
		{Previous: controller.StateAlarm, Next: controller.StateDisarmed, Source: "remote", At: base.Add(2 * time.Minute)},
	}
	for _, tr := range transitions {
		if err := log.ReportStateChange(ctx, tr); err != nil {
			t.Fatalf("ReportStateChange() error = %v", err)
		}
	}

	recent, err := log.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent() returned %d rows, want 2", len(recent))
	}
	if recent[0].Source != "remote" {
		t.Errorf("newest transition source = %q, want %q", recent[0].Source, "remote")
	}
	if recent[0].Next != controller.StateDisarmed {
		t.Errorf("newest transition next = %v, want %v", recent[0].Next, controller.StateDisarmed)
	}
	if recent[1].Next != controller.StateAlarm {
		t.Errorf("second transition next = %v, want %v", recent[1].Next, controller.StateAlarm)
	}
}

// Whole-second timestamps must not sort above later fractional ones.
// RFC3339Nano drops trailing zeros, and "...00Z" compares greater than
// "...00.5Z" as a string, so the log stores a fixed-width layout.
func TestTransitionLogOrderWithMixedFractions(t *testing.T) {
	db := openMigratedDB(t)
	log := NewTransitionLog(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	transitions := []controller.Transition{
		{Previous: controller.StateDisarmed, Next: controller.StateArmed, Source: "first", At: base},
		{Previous: controller.StateArmed, Next: controller.StateAlarm, Source: "second", At: base.Add(500 * time.Millisecond)},
		{Previous: controller.StateAlarm, Next: controller.StateDisarmed, Source: "third", At: base.Add(time.Second)},
	}
	for _, tr := range transitions {
		if err := log.ReportStateChange(ctx, tr); err != nil {
			t.Fatalf("ReportStateChange() error = %v", err)
		}
	}

	recent, err := log.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Recent() returned %d rows, want 3", len(recent))
	}
	for i, want := range []string{"third", "second", "first"} {
		if recent[i].Source != want {
			t.Errorf("recent[%d].Source = %q, want %q", i, recent[i].Source, want)
		}
	}
	if got := recent[1].At; !got.Equal(base.Add(500 * time.Millisecond)) {
		t.Errorf("recent[1].At = %v, want %v", got, base.Add(500*time.Millisecond))
	}
}
