// Package websocket pushes view frames to browser clients.
//
// A single Hub goroutine owns the client set. Register, unregister and
// broadcast requests all arrive over channels, so no lock guards the map.
// Broadcast never blocks the caller, which matters because view events are
// delivered on the UI loop.
//
// Message Protocol:
//
// Every message is one JSON document:
//   - {"type":"hello","client_id":"...","state":{...}} right after connecting
//   - {"type":"state","generation":N,"state":{...}} after every draw
//
// Clients do not send anything meaningful; edits go through the REST API.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//	detach := hub.Attach(viewService)
//	defer detach()
package websocket
