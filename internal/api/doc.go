// Package api provides the gateway's local HTTP API and WebSocket
// state stream.
//
// The API binds to the LAN interface for installers and wall panels:
// system status, the sensor registry, arm/disarm control, and the
// recent transition history. The WebSocket hub pushes every state
// change to connected clients, so panels track the gateway live
// without polling.
//
// The server follows the shared lifecycle pattern:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
