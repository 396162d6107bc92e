package remote

import "time"

// CommandName identifies a remote command.
type CommandName string

// Remote commands.
const (
	CommandArm      CommandName = "ARM"
	CommandDisarm   CommandName = "DISARM"
	CommandPanic    CommandName = "PANIC"
	CommandBootMode CommandName = "BOOT_MODE"
)

// Command is an inbound cloud command.
type Command struct {
	// ID correlates the acknowledgement with the command.
	ID string `json:"id"`

	Command CommandName `json:"command"`

	// BootMode carries the new boot mode for BOOT_MODE commands.
	BootMode string `json:"boot_mode,omitempty"`

	// Source identifies who issued the command (an app user, an
	// automation). Recorded in the transition audit trail.
	Source string `json:"source,omitempty"`
}

// Ack statuses.
const (
	StatusExecuted = "executed"
	StatusFailed   = "failed"
)

// Ack is the gateway's response to a command.
type Ack struct {
	CommandID string `json:"command_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// StateEvent is an outbound transition report.
type StateEvent struct {
	ID         string    `json:"id"`
	GatewayID  string    `json:"gateway_id"`
	Previous   string    `json:"previous"`
	Next       string    `json:"next"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}
