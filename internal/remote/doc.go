// Package remote carries the gateway's cloud channel over MQTT.
//
// Inbound, it subscribes to the command topic and turns ARM, DISARM,
// PANIC, and BOOT_MODE commands into dispatch messages, acknowledging
// each with the controller's verdict. Outbound, it publishes accepted
// state transitions as events the cloud can consume.
//
// The package depends on small publisher and dispatcher interfaces
// rather than concrete clients, so tests run against fakes.
package remote
