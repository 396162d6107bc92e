package transport

import (
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the default raw-frame queue capacity.
const DefaultQueueSize = 10

// IngestStats holds receive-path counters.
type IngestStats struct {
	// Received counts frames accepted into the queue.
	Received uint64

	// Dropped counts frames discarded because the queue was full.
	Dropped uint64

	// Rejected counts frames discarded for invalid length.
	Rejected uint64
}

// Ingest is the interrupt-context receive path. OnFrameReceived is safe
// to call from the radio driver's receive callback: it performs one
// fixed-size copy and a non-blocking enqueue, and returns in O(1)
// regardless of queue state.
type Ingest struct {
	frames chan RawFrame

	received atomic.Uint64
	dropped  atomic.Uint64
	rejected atomic.Uint64

	closeOnce sync.Once
}

// NewIngest creates an ingest queue with the given capacity.
// Capacities below 1 fall back to DefaultQueueSize.
func NewIngest(capacity int) *Ingest {
	if capacity < 1 {
		capacity = DefaultQueueSize
	}
	return &Ingest{
		frames: make(chan RawFrame, capacity),
	}
}

// OnFrameReceived accepts one raw frame from the radio driver.
//
// Frames with length outside (0, MaxFrameLen] are rejected silently.
// When the queue is full the frame is dropped and counted; the caller
// must never be made to wait. Returns true when the frame was enqueued.
func (i *Ingest) OnFrameReceived(data []byte, src Addr, rssi int8) bool {
	if len(data) == 0 || len(data) > MaxFrameLen {
		i.rejected.Add(1)
		return false
	}

	var frame RawFrame
	frame.Len = copy(frame.Data[:], data)
	frame.Src = src
	frame.RSSI = rssi

	select {
	case i.frames <- frame:
		i.received.Add(1)
		return true
	default:
		i.dropped.Add(1)
		return false
	}
}

// Frames returns the receive channel consumed by the decoder. The channel
// is closed by Close; receivers must treat a closed channel as shutdown.
func (i *Ingest) Frames() <-chan RawFrame {
	return i.frames
}

// Stats returns a snapshot of the receive counters.
func (i *Ingest) Stats() IngestStats {
	return IngestStats{
		Received: i.received.Load(),
		Dropped:  i.dropped.Load(),
		Rejected: i.rejected.Load(),
	}
}

// Close shuts the queue down. OnFrameReceived must not be called after
// Close; the radio driver is stopped first during shutdown.
func (i *Ingest) Close() {
	i.closeOnce.Do(func() {
		close(i.frames)
	})
}
