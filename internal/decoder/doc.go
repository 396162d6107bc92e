// Package decoder turns raw radio frames into typed messages.
//
// The decoder is the bridge between the interrupt-context receive path
// and the controller: it blocks on the transport's frame channel, parses
// each payload with the wire codec, attaches link metadata, and hands
// the result to the dispatch queue with a bounded wait. Malformed frames
// are counted and discarded without affecting the pipeline.
package decoder
