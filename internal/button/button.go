// Package button turns presses of the gateway's physical button into
// controller commands. A short press toggles armed and disarmed, a
// long press raises the panic alarm.
package button

import (
	"sync"

	"github.com/hferrand/sentry-gate/internal/controller"
	"github.com/hferrand/sentry-gate/internal/wire"
)

// PressKind distinguishes press gestures.
type PressKind uint8

const (
	// Click is a short press, released within the long-press threshold.
	Click PressKind = iota

	// LongPress is a press held past the threshold.
	LongPress
)

// sourceID identifies the button in transition records.
const sourceID = "button"

// StateReader exposes the current system state. Implemented by the
// controller.
type StateReader interface {
	State() controller.SystemState
}

// Dispatcher submits messages to the controller.
type Dispatcher interface {
	Enqueue(msg wire.Message) bool
}

// Logger is the logging interface used by the handler.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Handler consumes press events from the button driver and translates
// them into commands. Create with New, start with Start, stop by
// closing the presses channel then calling Wait.
type Handler struct {
	presses    <-chan PressKind
	state      StateReader
	dispatcher Dispatcher
	log        Logger

	startOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a button handler reading from the given press channel.
func New(presses <-chan PressKind, state StateReader, dispatcher Dispatcher, log Logger) *Handler {
	return &Handler{
		presses:    presses,
		state:      state,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Start launches the press loop.
func (h *Handler) Start() {
	h.startOnce.Do(func() {
		h.wg.Add(1)
		go h.run()
	})
}

// Wait blocks until the press loop has exited. Close the press channel
// first.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) run() {
	defer h.wg.Done()
	for press := range h.presses {
		h.handle(press)
	}
}

func (h *Handler) handle(press PressKind) {
	var body wire.Body
	switch press {
	case LongPress:
		body = wire.Panic{}
	default:
		// Arms only from disarmed; in any other state the click
		// disarms, which also silences an active alarm.
		if h.state.State() == controller.StateDisarmed {
			body = wire.Arm{}
		} else {
			body = wire.Disarm{}
		}
	}

	msg := wire.Message{
		Header: wire.Header{
			Version:    wire.ProtocolVersion,
			SourceID:   sourceID,
			SourceType: wire.SourceGateway,
		},
		Body: body,
	}

	if !h.dispatcher.Enqueue(msg) {
		h.log.Warn("button press dropped, dispatch queue full")
		return
	}
	h.log.Info("button press dispatched", "kind", msg.Kind())
}
