package transport

// Sender is the transmit side of the radio link, implemented by the
// concrete radio driver outside this module.
type Sender interface {
	// Broadcast sends a payload to every paired sensor.
	Broadcast(payload []byte) error

	// Send sends a payload to a single device.
	Send(dest Addr, payload []byte) error
}

// NopSender discards everything. It stands in for the radio driver on
// builds that run without one attached.
type NopSender struct{}

var _ Sender = NopSender{}

// Broadcast discards the payload.
func (NopSender) Broadcast([]byte) error { return nil }

// Send discards the payload.
func (NopSender) Send(Addr, []byte) error { return nil }
