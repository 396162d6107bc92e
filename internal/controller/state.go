package controller

// SystemState is the gateway's security state. There is no terminal
// state; all four states are mutually reachable.
type SystemState uint8

// System states. The numeric values are persisted; do not reorder.
const (
	StateDisarmed SystemState = iota
	StateArmed
	StateAlarm
	StateTamper
)

// String returns the state's canonical name.
func (s SystemState) String() string {
	switch s {
	case StateDisarmed:
		return "disarmed"
	case StateArmed:
		return "armed"
	case StateAlarm:
		return "alarm"
	case StateTamper:
		return "tamper"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the four defined states.
func (s SystemState) Valid() bool {
	return s <= StateTamper
}

// ParseState converts a canonical name back into a SystemState.
func ParseState(name string) (SystemState, bool) {
	switch name {
	case "disarmed":
		return StateDisarmed, true
	case "armed":
		return StateArmed, true
	case "alarm":
		return StateAlarm, true
	case "tamper":
		return StateTamper, true
	default:
		return StateDisarmed, false
	}
}

// BootMode selects how the gateway resolves its initial state.
type BootMode uint8

// Boot modes. The numeric values are persisted; do not reorder.
const (
	// BootRestoreLast restores the last persisted state, defaulting to
	// Disarmed when nothing was stored.
	BootRestoreLast BootMode = iota

	// BootForceDisarmed starts Disarmed regardless of stored state.
	BootForceDisarmed

	// BootForceArmed starts Armed regardless of stored state.
	BootForceArmed
)

// String returns the boot mode's canonical name.
func (m BootMode) String() string {
	switch m {
	case BootRestoreLast:
		return "restore_last"
	case BootForceDisarmed:
		return "force_disarmed"
	case BootForceArmed:
		return "force_armed"
	default:
		return "unknown"
	}
}

// ParseBootMode converts a canonical name back into a BootMode.
func ParseBootMode(name string) (BootMode, bool) {
	switch name {
	case "restore_last":
		return BootRestoreLast, true
	case "force_disarmed":
		return BootForceDisarmed, true
	case "force_armed":
		return BootForceArmed, true
	default:
		return BootRestoreLast, false
	}
}
