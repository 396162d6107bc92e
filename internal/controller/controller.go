package controller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hferrand/sentry-gate/internal/sensor"
	"github.com/hferrand/sentry-gate/internal/transport"
	"github.com/hferrand/sentry-gate/internal/wire"
)

// Queue and persistence defaults.
const (
	// DefaultQueueSize is the default dispatch queue capacity.
	DefaultQueueSize = 10

	// persistTimeout bounds a single synchronous persistence call.
	persistTimeout = 5 * time.Second
)

// Logger is the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store persists the boot mode and last known state across restarts.
// Implemented by the SQLite state store.
type Store interface {
	// Load returns the stored boot mode and last state. Implementations
	// return defaults (BootRestoreLast, StateDisarmed) with a nil error
	// when nothing has been stored yet.
	Load(ctx context.Context) (BootMode, SystemState, error)

	// Save durably records the boot mode and current state.
	Save(ctx context.Context, mode BootMode, state SystemState) error
}

// Transition describes one accepted state change.
type Transition struct {
	// Previous is the state before the change.
	Previous SystemState

	// Next is the state after the change.
	Next SystemState

	// Source identifies the producer that triggered the change
	// (a sensor ID, "button", "remote", ...).
	Source string

	// At is when the controller applied the change.
	At time.Time
}

// Notifier receives fire-and-forget presentation notifications (LED,
// wall panels). Invocations run on a separate goroutine; implementations
// may block without stalling the controller.
type Notifier interface {
	NotifyStateChange(prev, next SystemState)
}

// Reporter receives accepted transitions asynchronously (cloud event
// reporting, the transition audit trail). A Reporter error is logged and
// never rolls back the transition.
type Reporter interface {
	ReportStateChange(ctx context.Context, t Transition) error
}

// Options configures a Controller.
type Options struct {
	// QueueSize is the dispatch queue capacity.
	// Defaults to DefaultQueueSize.
	QueueSize int

	// Store persists boot mode and state. Required.
	Store Store

	// Registry is the sensor registry the controller owns. Required.
	Registry *sensor.Registry

	// GatewayID is this gateway's device identifier, used as the source
	// ID on outbound broadcasts.
	GatewayID string

	// Notifier is the optional presentation hook.
	Notifier Notifier

	// Reporters receive accepted transitions asynchronously. Optional.
	Reporters []Reporter

	// Sender and Codec, when both set, enable broadcasting arm/disarm
	// transitions back to the sensors. Optional.
	Sender transport.Sender
	Codec  wire.Codec

	// Logger is the optional structured logger.
	Logger Logger
}

// Controller is the single-writer security state machine. Create with
// New, start with Start, submit work with Enqueue, stop with Stop.
type Controller struct {
	store     Store
	registry  *sensor.Registry
	gatewayID string
	notifier  Notifier
	reporters []Reporter
	sender    transport.Sender
	codec     wire.Codec
	log       Logger

	dispatch chan wire.Message
	dropped  atomic.Uint64

	// state is guarded by stateMu. The run loop is the only writer;
	// accessors copy under the lock and release immediately. The lock
	// is never held across I/O.
	stateMu  sync.RWMutex
	current  SystemState
	previous SystemState
	bootMode BootMode

	ctx    context.Context
	cancel context.CancelFunc
	quit   chan struct{}
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once

	// now is injectable for tests.
	now func() time.Time
}

// New creates a controller. Call Start to resolve the boot state and
// begin processing.
func New(opts Options) (*Controller, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("controller: store is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("controller: registry is required")
	}

	queueSize := opts.QueueSize
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}

	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}

	return &Controller{
		store:     opts.Store,
		registry:  opts.Registry,
		gatewayID: opts.GatewayID,
		notifier:  opts.Notifier,
		reporters: opts.Reporters,
		sender:    opts.Sender,
		codec:     opts.Codec,
		log:       log,
		dispatch:  make(chan wire.Message, queueSize),
		quit:      make(chan struct{}),
		now:       time.Now,
	}, nil
}

// Start resolves the boot state from the store and launches the
// dispatch loop. It is safe to call once.
func (c *Controller) Start(ctx context.Context) error {
	var startErr error
	c.startOnce.Do(func() {
		c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))

		mode, last, err := c.store.Load(ctx)
		if err != nil {
			// A broken store must not keep the gateway from running;
			// fall back to the safe default and keep going.
			c.log.Error("failed to load persisted state, defaulting to disarmed", "error", err)
			mode, last = BootRestoreLast, StateDisarmed
		}

		initial := resolveBootState(mode, last)
		c.stateMu.Lock()
		c.bootMode = mode
		c.current = initial
		c.previous = initial
		c.stateMu.Unlock()

		c.log.Info("controller started",
			"boot_mode", mode.String(),
			"state", initial.String(),
		)

		c.wg.Add(1)
		go c.run()
	})
	return startErr
}

// Stop terminates the dispatch loop and waits for it to drain the
// message it is currently processing. Producers must be stopped first;
// Enqueue returns false after Stop.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.quit)
		// cancel is only assigned by Start; Stop without Start is legal.
		if c.cancel != nil {
			c.cancel()
		}
		c.wg.Wait()
		c.log.Info("controller stopped")
	})
}

// Enqueue submits a message without blocking. It returns false when the
// queue is full or the controller is stopped; the producer is expected
// to rely on sensor resend/heartbeat rather than retry.
func (c *Controller) Enqueue(msg wire.Message) bool {
	select {
	case <-c.quit:
		return false
	default:
	}

	select {
	case c.dispatch <- msg:
		return true
	default:
		c.dropped.Add(1)
		c.log.Warn("dispatch queue full, message dropped",
			"kind", msg.Kind(),
			"src_id", msg.Header.SourceID,
		)
		return false
	}
}

// EnqueueTimeout submits a message, waiting up to d for queue space.
// Used by the decoder so transient controller backpressure does not
// immediately translate into drops.
func (c *Controller) EnqueueTimeout(msg wire.Message, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case c.dispatch <- msg:
		return true
	case <-c.quit:
		return false
	case <-timer.C:
		c.dropped.Add(1)
		return false
	}
}

// State returns the current system state.
func (c *Controller) State() SystemState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.current
}

// Previous returns the state before the most recent transition.
func (c *Controller) Previous() SystemState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.previous
}

// BootMode returns the boot mode resolved at startup.
func (c *Controller) BootMode() BootMode {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.bootMode
}

// Dropped returns the number of messages dropped at the dispatch queue.
func (c *Controller) Dropped() uint64 {
	return c.dropped.Load()
}

// resolveBootState applies the boot mode to the persisted state.
func resolveBootState(mode BootMode, last SystemState) SystemState {
	switch mode {
	case BootForceDisarmed:
		return StateDisarmed
	case BootForceArmed:
		return StateArmed
	default:
		if !last.Valid() {
			return StateDisarmed
		}
		return last
	}
}

// run is the dispatch loop: the only goroutine that mutates state or
// the registry. It blocks indefinitely waiting for work.
func (c *Controller) run() {
	defer c.wg.Done()

	for {
		select {
		case msg := <-c.dispatch:
			c.process(msg)
		case <-c.quit:
			return
		}
	}
}

// process applies one message per the transition table.
func (c *Controller) process(msg wire.Message) {
	switch body := msg.Body.(type) {
	case wire.SensorEvent:
		c.reply(msg, nil)
		c.handleSensorEvent(msg.Header, body, msg.RSSI)
	case wire.Arm:
		c.reply(msg, c.arm(msg.Header.SourceID))
	case wire.Disarm:
		c.reply(msg, c.disarm(msg.Header.SourceID))
	case wire.Panic:
		c.reply(msg, nil)
		c.log.Warn("panic triggered", "src_id", msg.Header.SourceID)
		c.setState(StateAlarm, msg.Header.SourceID)
	case wire.Heartbeat:
		c.reply(msg, nil)
		if err := c.registry.UpdateHeartbeat(msg.Header.SourceID, sensorTypeOf(msg.Header.SourceType), msg.RSSI); err != nil {
			c.log.Warn("heartbeat not recorded", "src_id", msg.Header.SourceID, "error", err)
		}
	default:
		c.reply(msg, ErrInvalidMessage)
		c.log.Warn("unrecognised message ignored", "src_id", msg.Header.SourceID)
	}
}

// reply delivers the controller's verdict to a waiting producer without
// ever blocking the dispatch loop.
func (c *Controller) reply(msg wire.Message, err error) {
	if msg.Reply == nil {
		return
	}
	select {
	case msg.Reply <- err:
	default:
	}
}

// sensorTypeOf maps a radio source type to the registry's sensor class.
// Gateway and unknown sources carry no class.
func sensorTypeOf(st wire.SourceType) sensor.Type {
	switch st {
	case wire.SourceDoorSensor:
		return sensor.TypeDoor
	case wire.SourcePIRSensor:
		return sensor.TypePIR
	case wire.SourceKeypad:
		return sensor.TypeKeypad
	default:
		return ""
	}
}

// handleSensorEvent updates the registry and applies the intrusion and
// tamper rules.
func (c *Controller) handleSensorEvent(hdr wire.Header, ev wire.SensorEvent, rssi int8) {
	srcID := hdr.SourceID
	open := ev.Action == wire.ActionOpen
	if err := c.registry.UpdateState(srcID, sensorTypeOf(hdr.SourceType), open, rssi); err != nil {
		c.log.Warn("sensor state not recorded", "src_id", srcID, "error", err)
	}

	c.log.Debug("sensor event",
		"src_id", srcID,
		"action", ev.Action.String(),
		"rssi", rssi,
	)

	// Tamper is unconditional and overrides the intrusion rule.
	if ev.Action == wire.ActionTamper {
		c.log.Warn("tamper detected", "src_id", srcID)
		c.setState(StateTamper, srcID)
		return
	}

	if open && c.State() == StateArmed {
		c.log.Warn("intrusion detected", "src_id", srcID)
		c.setState(StateAlarm, srcID)
	}
}

// arm transitions to Armed unless already armed.
func (c *Controller) arm(source string) error {
	if c.State() == StateArmed {
		c.log.Warn("arm rejected, already armed", "source", source)
		return ErrAlreadyArmed
	}
	c.setState(StateArmed, source)
	return nil
}

// disarm transitions to Disarmed from any state. Repeated disarms are
// accepted and do nothing.
func (c *Controller) disarm(source string) error {
	c.setState(StateDisarmed, source)
	return nil
}

// setState applies an accepted transition: capture previous, mutate
// under the lock, persist synchronously, then notify and report without
// blocking the loop. Same-state requests are absorbed silently so
// idempotent commands do not produce duplicate transition events.
func (c *Controller) setState(next SystemState, source string) {
	c.stateMu.Lock()
	prev := c.current
	if prev == next {
		c.stateMu.Unlock()
		c.log.Debug("state unchanged", "state", next.String(), "source", source)
		return
	}
	c.previous = prev
	c.current = next
	mode := c.bootMode
	c.stateMu.Unlock()

	t := Transition{Previous: prev, Next: next, Source: source, At: c.now()}

	c.log.Info("state changed",
		"previous", prev.String(),
		"next", next.String(),
		"source", source,
	)

	// Persistence is synchronous but its failure never blocks the
	// in-memory transition, which stays authoritative until the next
	// successful save.
	ctx, cancel := context.WithTimeout(c.ctx, persistTimeout)
	if err := c.store.Save(ctx, mode, next); err != nil {
		c.log.Error("failed to persist state", "state", next.String(), "error", err)
	}
	cancel()

	if c.notifier != nil {
		go c.notifier.NotifyStateChange(prev, next)
	}

	for _, r := range c.reporters {
		go func(r Reporter) {
			if err := r.ReportStateChange(c.ctx, t); err != nil {
				c.log.Warn("transition report failed", "error", err)
			}
		}(r)
	}

	c.broadcast(next)
}

// broadcast tells the sensors about arm/disarm transitions so they can
// adjust reporting behaviour. Best-effort; failures are logged.
func (c *Controller) broadcast(next SystemState) {
	if c.sender == nil || c.codec == nil {
		return
	}

	var body wire.Body
	switch next {
	case StateArmed:
		body = wire.Arm{}
	case StateDisarmed:
		body = wire.Disarm{}
	default:
		return
	}

	payload, err := c.codec.Encode(wire.Message{
		Header: wire.Header{SourceID: c.gatewayID, SourceType: wire.SourceGateway},
		Body:   body,
	})
	if err != nil {
		c.log.Error("failed to encode broadcast", "error", err)
		return
	}

	go func() {
		if err := c.sender.Broadcast(payload); err != nil {
			c.log.Warn("state broadcast failed", "error", err)
		}
	}()
}
