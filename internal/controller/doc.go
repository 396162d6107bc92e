// Package controller implements the gateway's security state machine.
//
// The Controller is the single writer of system state and the sensor
// registry. Every producer (the frame decoder, the local button, the
// remote command channel) submits typed messages onto one bounded
// dispatch queue; the controller goroutine applies them strictly in
// arrival order. That single queue is the whole arbitration story:
// whichever command arrives first wins, deterministically, no matter
// how many producers race.
//
// # Transitions
//
//	any state            Disarm        -> Disarmed  (always succeeds)
//	Disarmed/Alarm/Tamper Arm          -> Armed
//	Armed                Arm           -> rejected (ErrAlreadyArmed)
//	Armed                sensor OPEN   -> Alarm
//	Disarmed             sensor event  -> registry only
//	any state            sensor TAMPER -> Tamper
//	any state            Panic         -> Alarm
//	any state            Heartbeat     -> registry only
//
// Each accepted transition captures the previous state, mutates under a
// short-lived lock, persists synchronously through the Store, notifies
// presentation fire-and-forget, and reports to remote collaborators
// asynchronously. Persistence and reporting failures are logged, never
// rolled back: in-memory state stays authoritative.
package controller
