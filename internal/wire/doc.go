// Package wire defines the typed messages exchanged between the gateway
// and its wireless sensors, and the JSON codec that maps them onto the
// radio envelope.
//
// # Message Model
//
// Message is a tagged variant: one Body type per message kind
// (SensorEvent, Arm, Disarm, Panic, Heartbeat) plus a shared Header
// identifying the sender. A Message is a value type owned by whichever
// goroutine currently holds it; it is never shared after handoff.
//
// # Envelope
//
// The radio envelope is JSON:
//
//	{
//	  "header":  {"ver": 1, "src_id": "DOOR_01", "src_type": "SEC_SENSOR"},
//	  "payload": {"type": "EVENT", "action": "OPEN", "value": 87}
//	}
//
// Historical sensor firmware revisions disagreed on where the OPEN/CLOSED
// flag lives (payload.action vs payload.value); Decode accepts both and
// Encode always emits payload.action. The header shape above is the single
// authoritative schema.
package wire
