// Package transport provides the radio-facing edge of the gateway.
//
// Ingest is the receive path: the radio driver's receive callback runs at
// interrupt priority, so OnFrameReceived does the absolute minimum: one
// bounded copy into a value-typed RawFrame and a non-blocking handoff to
// the decoder's queue. It never parses, never blocks, and never touches
// the heap. A full queue drops the frame and bumps a counter; sensors
// resend state via periodic heartbeats, so drops are backpressure, not
// data loss.
//
// Sender is the transmit path consumed by the core for outbound
// broadcasts. The concrete radio driver (point-to-point broadcast today,
// possibly mesh later) lives outside this module and implements Sender.
package transport
