// Package httpserver is the bridge's only HTTP-facing component. It
// terminates OAuth redirects, hosts the two inbound webhook protocols, and
// publishes the resulting OAuth events and alerts to the broadcast topics.
// Handlers are stateless per request beyond the shared publish handles.
package httpserver
