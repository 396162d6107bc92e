// Package mqtt wraps paho.mqtt.golang for the gateway's remote channel.
//
// The wrapper manages the broker connection with auto-reconnect, tracks
// subscriptions so they survive a reconnect, publishes an online status
// with a Last Will for crash detection, and recovers panics in message
// handlers so a bad remote payload cannot take the gateway down.
//
// Topic layout lives in topics.go. Commands arrive on the command
// topic, acknowledgements and transition events go out on theirs, and
// the retained system status topic tells the cloud whether the gateway
// is up.
package mqtt
