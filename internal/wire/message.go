package wire

// Protocol limits shared with the sensor firmware.
const (
	// ProtocolVersion is the envelope version this gateway speaks.
	ProtocolVersion = 1

	// MaxSourceIDLen is the maximum length of a device identifier.
	// Longer identifiers are truncated on decode.
	MaxSourceIDLen = 16
)

// SourceType classifies the device that produced a message.
type SourceType string

// Known source types.
const (
	SourceGateway    SourceType = "GATEWAY"
	SourceDoorSensor SourceType = "SEC_SENSOR"
	SourcePIRSensor  SourceType = "PIR_SENSOR"
	SourceKeypad     SourceType = "KEYPAD"
)

// Header identifies the sender of a message.
type Header struct {
	// Version is the protocol version from the envelope.
	Version int

	// SourceID is the sender's device identifier (at most MaxSourceIDLen).
	SourceID string

	// SourceType is the sender's device class.
	SourceType SourceType
}

// Action is the sensor condition reported by a SensorEvent.
type Action uint8

// Sensor actions.
const (
	ActionClosed Action = iota
	ActionOpen
	ActionTamper
)

// String returns the wire name of the action.
func (a Action) String() string {
	switch a {
	case ActionOpen:
		return "OPEN"
	case ActionClosed:
		return "CLOSED"
	case ActionTamper:
		return "TAMPER"
	default:
		return "UNKNOWN"
	}
}

// Message is a decoded radio message. The concrete kind is carried by
// Body; exactly one Body type exists per kind.
type Message struct {
	Header Header

	// RSSI is the received signal strength in dBm, attached by the
	// decoder as best-effort metadata. Zero when unknown.
	RSSI int8

	// Body is the kind-specific payload. Nil bodies are invalid and
	// dropped by the controller.
	Body Body

	// Reply, when non-nil, receives the controller's verdict for
	// command messages (nil on success, ErrAlreadyArmed and friends on
	// rejection). Producers that do not care pass nil. The channel must
	// be buffered; the controller never blocks on it.
	Reply chan error
}

// Body is implemented by every message payload kind.
type Body interface {
	isBody()
}

// SensorEvent reports a sensor opening, closing, or being tampered with.
type SensorEvent struct {
	Action Action

	// Battery is the sender's battery level percentage, 0 when omitted.
	Battery int
}

// Arm requests the system be armed.
type Arm struct{}

// Disarm requests the system be disarmed.
type Disarm struct{}

// Panic requests an immediate alarm regardless of state.
type Panic struct{}

// Heartbeat is a periodic liveness signal; it never changes system state.
type Heartbeat struct {
	// Battery is the sender's battery level percentage, 0 when omitted.
	Battery int
}

func (SensorEvent) isBody() {}
func (Arm) isBody()         {}
func (Disarm) isBody()      {}
func (Panic) isBody()       {}
func (Heartbeat) isBody()   {}

// Kind returns the wire name of the message kind, used for logging and
// outbound envelope construction.
func (m Message) Kind() string {
	switch m.Body.(type) {
	case SensorEvent:
		return "EVENT"
	case Arm:
		return "ARM"
	case Disarm:
		return "DISARM"
	case Panic:
		return "PANIC"
	case Heartbeat:
		return "HEARTBEAT"
	default:
		return "UNKNOWN"
	}
}
