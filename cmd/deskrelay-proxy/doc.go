// Command deskrelay-proxy is the Native Messaging host a browser launches for
// the extension. It speaks length-prefixed JSON on stdin and stdout and
// relays every message to and from the desktop hub over the local socket.
//
// Browsers pass extra arguments (the caller origin, the manifest path, and on
// Windows --parent-window). They are accepted and logged but otherwise
// ignored. Nothing but Native Messaging frames is ever written to stdout.
package main
