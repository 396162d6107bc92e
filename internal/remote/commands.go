package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hferrand/sentry-gate/internal/controller"
	"github.com/hferrand/sentry-gate/internal/infrastructure/mqtt"
	"github.com/hferrand/sentry-gate/internal/wire"
)

// verdictTimeout bounds the wait for the controller's reply to a
// command before the ack reports a failure.
const verdictTimeout = 2 * time.Second

// Broker is the slice of the MQTT client the command handler needs.
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Dispatcher submits messages to the controller.
type Dispatcher interface {
	Enqueue(msg wire.Message) bool
}

// BootModeStore persists boot mode changes.
type BootModeStore interface {
	SetBootMode(ctx context.Context, mode controller.BootMode) error
}

// Logger is the logging interface used by the command handler.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Commands subscribes to the cloud command topic and feeds the
// controller, acknowledging each command with its verdict.
type Commands struct {
	broker     Broker
	dispatcher Dispatcher
	store      BootModeStore
	log        Logger
	qos        byte
	topics     mqtt.Topics
}

// NewCommands creates the command handler. Call Start to subscribe.
func NewCommands(broker Broker, dispatcher Dispatcher, store BootModeStore, qos byte, log Logger) *Commands {
	return &Commands{
		broker:     broker,
		dispatcher: dispatcher,
		store:      store,
		log:        log,
		qos:        qos,
	}
}

// Start subscribes to the command topic.
func (c *Commands) Start() error {
	if err := c.broker.Subscribe(c.topics.Command(), c.qos, c.handleMessage); err != nil {
		return fmt.Errorf("subscribing to command topic: %w", err)
	}
	return nil
}

// handleMessage runs on the broker client's goroutine; the verdict wait
// is bounded so a stalled controller cannot wedge the MQTT client.
func (c *Commands) handleMessage(_ string, payload []byte) error {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		c.log.Warn("malformed remote command discarded", "error", err)
		return nil
	}
	if cmd.ID == "" {
		c.log.Warn("remote command without id discarded")
		return nil
	}

	ack := c.execute(cmd)
	c.publishAck(ack)
	return nil
}

func (c *Commands) execute(cmd Command) Ack {
	switch cmd.Command {
	case CommandArm, CommandDisarm, CommandPanic:
		return c.dispatch(cmd)
	case CommandBootMode:
		return c.setBootMode(cmd)
	default:
		c.log.Warn("unknown remote command", "command", string(cmd.Command), "id", cmd.ID)
		return Ack{CommandID: cmd.ID, Status: StatusFailed, Error: "unknown command"}
	}
}

// dispatch submits the command to the controller and waits for its
// verdict.
func (c *Commands) dispatch(cmd Command) Ack {
	var body wire.Body
	switch cmd.Command {
	case CommandArm:
		body = wire.Arm{}
	case CommandDisarm:
		body = wire.Disarm{}
	case CommandPanic:
		body = wire.Panic{}
	}

	source := cmd.Source
	if source == "" {
		source = "remote"
	}

	reply := make(chan error, 1)
	msg := wire.Message{
		Header: wire.Header{
			Version:    wire.ProtocolVersion,
			SourceID:   source,
			SourceType: wire.SourceGateway,
		},
		Body:  body,
		Reply: reply,
	}

	if !c.dispatcher.Enqueue(msg) {
		c.log.Warn("remote command dropped, dispatch queue full", "id", cmd.ID)
		return Ack{CommandID: cmd.ID, Status: StatusFailed, Error: controller.ErrDispatchFull.Error()}
	}

	select {
	case err := <-reply:
		if err != nil {
			return Ack{CommandID: cmd.ID, Status: StatusFailed, Error: err.Error()}
		}
		return Ack{CommandID: cmd.ID, Status: StatusExecuted}
	case <-time.After(verdictTimeout):
		return Ack{CommandID: cmd.ID, Status: StatusFailed, Error: "verdict timeout"}
	}
}

func (c *Commands) setBootMode(cmd Command) Ack {
	mode, ok := controller.ParseBootMode(cmd.BootMode)
	if !ok {
		return Ack{CommandID: cmd.ID, Status: StatusFailed, Error: fmt.Sprintf("unknown boot mode %q", cmd.BootMode)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), verdictTimeout)
	defer cancel()

	if err := c.store.SetBootMode(ctx, mode); err != nil {
		c.log.Error("failed to persist boot mode", "mode", mode.String(), "error", err)
		return Ack{CommandID: cmd.ID, Status: StatusFailed, Error: err.Error()}
	}

	c.log.Info("boot mode updated", "mode", mode.String(), "id", cmd.ID)
	return Ack{CommandID: cmd.ID, Status: StatusExecuted}
}

func (c *Commands) publishAck(ack Ack) {
	payload, err := json.Marshal(ack)
	if err != nil {
		c.log.Error("failed to encode ack", "error", err)
		return
	}
	if err := c.broker.Publish(c.topics.Ack(), payload, c.qos, false); err != nil {
		c.log.Warn("failed to publish ack", "command_id", ack.CommandID, "error", err)
	}
}
