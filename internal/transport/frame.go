package transport

import "fmt"

// MaxFrameLen is the largest radio frame the link layer delivers.
const MaxFrameLen = 250

// AddrLen is the length of a link-layer source address.
const AddrLen = 6

// Addr is a link-layer device address.
type Addr [AddrLen]byte

// String renders the address in colon-separated hex.
func (a Addr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}

// RawFrame is one received radio frame. It is a value type: produced once
// in the receive callback, consumed exactly once by the decoder, and never
// outlives that single queue transit.
type RawFrame struct {
	// Data holds the frame bytes; only Data[:Len] is valid.
	Data [MaxFrameLen]byte

	// Len is the number of valid bytes in Data.
	Len int

	// Src is the sender's link-layer address.
	Src Addr

	// RSSI is the received signal strength in dBm as reported by the
	// radio, 0 when the driver does not provide it.
	RSSI int8
}

// Bytes returns the valid portion of the frame.
func (f *RawFrame) Bytes() []byte {
	return f.Data[:f.Len]
}
