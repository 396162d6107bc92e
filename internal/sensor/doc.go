// Package sensor provides the gateway's sensor registry: the single
// authoritative record of every wireless sensor the gateway has heard
// from or been told about.
//
// The registry is bounded (Capacity entries) and fail-closed: once full,
// unknown sensors are rejected rather than evicting known ones. Records
// are never physically removed; Unregister only clears the registered
// flag, preserving last-seen bookkeeping for diagnostics.
//
// Only the controller goroutine mutates the registry. External readers
// (the API, event reporting) take copies through Lookup and Snapshot,
// which hold the internal lock just long enough to copy.
package sensor
