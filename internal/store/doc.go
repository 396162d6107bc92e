// Package store persists the controller's durable state in SQLite.
//
// Two concerns live here: the single-row gateway state (boot mode plus
// last known system state, consulted once at startup) and the
// append-only transition audit trail. Both write through the shared
// database handle, which is WAL-mode SQLite with a single writer.
package store
