package decoder

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hferrand/sentry-gate/internal/transport"
	"github.com/hferrand/sentry-gate/internal/wire"
)

// DefaultDispatchTimeout bounds how long the decoder waits for dispatch
// queue space before dropping a message.
const DefaultDispatchTimeout = 100 * time.Millisecond

// Logger is the logging interface used by the decoder.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Dispatcher accepts decoded messages, waiting up to the given duration
// for queue space. Implemented by the controller.
type Dispatcher interface {
	EnqueueTimeout(msg wire.Message, d time.Duration) bool
}

// Telemetry records per-frame link quality and battery readings.
// Implemented by the signal telemetry writer; calls must not block.
type Telemetry interface {
	RecordSignal(sourceID string, sourceType wire.SourceType, rssi int8)
	RecordBattery(sourceID string, percent int)
}

// Stats holds decode-path counters.
type Stats struct {
	// Decoded counts frames successfully parsed and dispatched.
	Decoded uint64

	// Malformed counts frames discarded because they failed to parse.
	Malformed uint64

	// Timeouts counts decoded messages dropped because the dispatch
	// queue stayed full past the timeout.
	Timeouts uint64
}

// Options configures a Decoder.
type Options struct {
	// Frames is the raw-frame channel from the transport. Required.
	Frames <-chan transport.RawFrame

	// Codec parses frame payloads. Required.
	Codec wire.Codec

	// Dispatcher receives decoded messages. Required.
	Dispatcher Dispatcher

	// DispatchTimeout bounds the wait for dispatch queue space.
	// Defaults to DefaultDispatchTimeout.
	DispatchTimeout time.Duration

	// Telemetry is the optional link-quality recorder.
	Telemetry Telemetry

	// Logger is the optional structured logger.
	Logger Logger
}

// Decoder consumes raw frames and feeds the controller. Create with
// New, start with Start, stop by closing the transport then calling
// Wait.
type Decoder struct {
	frames     <-chan transport.RawFrame
	codec      wire.Codec
	dispatcher Dispatcher
	timeout    time.Duration
	telemetry  Telemetry
	log        Logger

	decoded   atomic.Uint64
	malformed atomic.Uint64
	timeouts  atomic.Uint64

	startOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a decoder.
func New(opts Options) *Decoder {
	timeout := opts.DispatchTimeout
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}
	return &Decoder{
		frames:     opts.Frames,
		codec:      opts.Codec,
		dispatcher: opts.Dispatcher,
		timeout:    timeout,
		telemetry:  opts.Telemetry,
		log:        log,
	}
}

// Start launches the decode loop. The loop exits when the frame channel
// is closed.
func (d *Decoder) Start() {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go d.run()
	})
}

// Wait blocks until the decode loop has drained the frame channel and
// exited. Close the transport first.
func (d *Decoder) Wait() {
	d.wg.Wait()
}

// Stats returns a snapshot of the decode counters.
func (d *Decoder) Stats() Stats {
	return Stats{
		Decoded:   d.decoded.Load(),
		Malformed: d.malformed.Load(),
		Timeouts:  d.timeouts.Load(),
	}
}

func (d *Decoder) run() {
	defer d.wg.Done()

	for frame := range d.frames {
		d.handle(frame)
	}
	d.log.Debug("frame channel closed, decoder exiting")
}

func (d *Decoder) handle(frame transport.RawFrame) {
	msg, err := d.codec.Decode(frame.Bytes())
	if err != nil {
		d.malformed.Add(1)
		d.log.Warn("malformed frame discarded",
			"src", frame.Src.String(),
			"len", frame.Len,
			"error", err,
		)
		return
	}

	msg.RSSI = frame.RSSI

	if d.telemetry != nil {
		d.telemetry.RecordSignal(msg.Header.SourceID, msg.Header.SourceType, frame.RSSI)
		if percent := batteryOf(msg.Body); percent > 0 {
			d.telemetry.RecordBattery(msg.Header.SourceID, percent)
		}
	}

	if !d.dispatcher.EnqueueTimeout(msg, d.timeout) {
		d.timeouts.Add(1)
		d.log.Warn("dispatch queue full, decoded message dropped",
			"kind", msg.Kind(),
			"src_id", msg.Header.SourceID,
		)
		return
	}
	d.decoded.Add(1)
}

// batteryOf extracts the battery level carried by event and heartbeat
// payloads, 0 for every other kind.
func batteryOf(body wire.Body) int {
	switch b := body.(type) {
	case wire.SensorEvent:
		return b.Battery
	case wire.Heartbeat:
		return b.Battery
	default:
		return 0
	}
}
