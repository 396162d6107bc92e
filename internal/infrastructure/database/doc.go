// Package database provides SQLite connectivity for the gateway's
// durable state.
//
// The gateway persists little (boot mode, last known state, the
// transition audit trail) but what it persists must survive power loss,
// so the database opens in WAL mode with a busy timeout and a single
// writer connection. Schema changes ship as embedded migrations applied
// at startup.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
