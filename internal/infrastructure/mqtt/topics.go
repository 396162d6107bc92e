package mqtt

// Topic layout for the remote channel. All topics live under a single
// root so broker ACLs can scope a gateway with one prefix rule.
//
//	sentrygate/command        cloud -> gateway commands
//	sentrygate/ack            gateway -> cloud command acknowledgements
//	sentrygate/event/state    gateway -> cloud transition events
//	sentrygate/system/status  retained online/offline status (LWT)
const topicRoot = "sentrygate"

// Topics builds topic strings. Zero value is ready to use.
type Topics struct{}

// Command is the topic the cloud publishes commands to.
func (Topics) Command() string {
	return topicRoot + "/command"
}

// Ack is the topic command acknowledgements are published to.
func (Topics) Ack() string {
	return topicRoot + "/ack"
}

// StateEvents is the topic accepted state transitions are published to.
func (Topics) StateEvents() string {
	return topicRoot + "/event/state"
}

// SystemStatus is the retained status topic, also used as the Last
// Will topic.
func (Topics) SystemStatus() string {
	return topicRoot + "/system/status"
}
