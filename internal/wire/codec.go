package wire

import (
	"encoding/json"
	"fmt"
)

// Codec converts between raw radio payloads and typed Messages.
// The gateway core consumes this interface; JSONCodec is the production
// implementation.
type Codec interface {
	// Decode parses a raw payload into a Message. The returned Message
	// has no RSSI attached; the caller adds transport metadata.
	Decode(data []byte) (Message, error)

	// Encode serialises a Message into a payload suitable for
	// Transport.Broadcast / Transport.Send.
	Encode(msg Message) ([]byte, error)
}

// JSONCodec implements Codec using the JSON envelope described in the
// package documentation. The zero value is ready to use.
type JSONCodec struct{}

var _ Codec = JSONCodec{}

// envelope is the on-air JSON shape.
type envelope struct {
	Header  envelopeHeader  `json:"header"`
	Payload envelopePayload `json:"payload"`
}

type envelopeHeader struct {
	Version    int    `json:"ver"`
	SourceID   string `json:"src_id"`
	SourceType string `json:"src_type"`
}

type envelopePayload struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`

	// Value is a catch-all extra field. Sensors report battery level
	// here; one firmware revision also used it for the OPEN/CLOSED flag,
	// so Decode inspects both shapes.
	Value json.RawMessage `json:"value,omitempty"`
}

// Decode parses a JSON envelope into a typed Message.
//
// Unknown payload types and EVENT payloads without a recognisable action
// are rejected; unknown source types are preserved verbatim so new sensor
// classes do not require a gateway update to be heard.
func (JSONCodec) Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	msg := Message{
		Header: Header{
			Version:    env.Header.Version,
			SourceID:   truncateID(env.Header.SourceID),
			SourceType: SourceType(env.Header.SourceType),
		},
	}

	battery := decodeBattery(env.Payload.Value)

	switch env.Payload.Type {
	case "EVENT":
		action, ok := decodeAction(env.Payload)
		if !ok {
			return Message{}, fmt.Errorf("%w: action=%q", ErrUnknownAction, env.Payload.Action)
		}
		msg.Body = SensorEvent{Action: action, Battery: battery}
	case "ARM":
		msg.Body = Arm{}
	case "DISARM":
		msg.Body = Disarm{}
	case "PANIC":
		msg.Body = Panic{}
	case "HEARTBEAT":
		msg.Body = Heartbeat{Battery: battery}
	default:
		return Message{}, fmt.Errorf("%w: type=%q", ErrUnknownType, env.Payload.Type)
	}

	return msg, nil
}

// Encode serialises a Message into the JSON envelope.
func (JSONCodec) Encode(msg Message) ([]byte, error) {
	if msg.Body == nil {
		return nil, ErrEncode
	}

	env := envelope{
		Header: envelopeHeader{
			Version:    ProtocolVersion,
			SourceID:   truncateID(msg.Header.SourceID),
			SourceType: string(msg.Header.SourceType),
		},
		Payload: envelopePayload{Type: msg.Kind()},
	}

	switch body := msg.Body.(type) {
	case SensorEvent:
		env.Payload.Action = body.Action.String()
		if body.Battery > 0 {
			env.Payload.Value = encodeBattery(body.Battery)
		}
	case Heartbeat:
		if body.Battery > 0 {
			env.Payload.Value = encodeBattery(body.Battery)
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

// decodeAction resolves the OPEN/CLOSED/TAMPER flag, accepting both the
// current payload.action field and the legacy payload.value placement.
func decodeAction(p envelopePayload) (Action, bool) {
	name := p.Action
	if name == "" || name == "STATE_CHANGE" {
		// Legacy shape: the flag travels in payload.value as a string.
		var s string
		if err := json.Unmarshal(p.Value, &s); err == nil {
			name = s
		}
	}

	switch name {
	case "OPEN":
		return ActionOpen, true
	case "CLOSED":
		return ActionClosed, true
	case "TAMPER":
		return ActionTamper, true
	default:
		return 0, false
	}
}

// decodeBattery extracts a numeric battery level from payload.value,
// returning 0 when the field is absent or non-numeric.
func decodeBattery(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	return n
}

func encodeBattery(n int) json.RawMessage {
	data, err := json.Marshal(n)
	if err != nil {
		return nil
	}
	return data
}

// truncateID bounds a device identifier to MaxSourceIDLen.
func truncateID(id string) string {
	if len(id) > MaxSourceIDLen {
		return id[:MaxSourceIDLen]
	}
	return id
}
