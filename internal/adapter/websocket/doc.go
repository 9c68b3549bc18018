// Package websocket is the host-facing notification sink: the desktop
// shell connects to the bridge's /events endpoint and receives every
// forwarded notification as a JSON frame.
//
// The hub is a single goroutine driven by a command channel (no mutexes);
// each connection gets its own writer goroutine so one slow shell client
// cannot stall the forwarders.
package websocket
