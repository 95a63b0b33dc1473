// Package ipc connects the desktop application and the browser proxy over a
// local socket (a named pipe on Windows).
//
// Hub lives inside the desktop process. It accepts any number of local
// clients, numbers them with strictly increasing ids, reports connects,
// disconnects and received text as Message events, and periodically
// broadcasts every queued outbound message to all connected clients.
//
// Relay lives inside the proxy process. It dials the hub, retries forever at
// a fixed delay, and shuttles text between the socket and a pair of channels,
// announcing each connect and disconnect with a synthetic control message.
//
// The socket carries raw UTF-8 text with no framing: one read is one message.
// Payloads larger than a single read arrive as several messages.
package ipc
