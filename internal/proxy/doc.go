// Package proxy runs the Native Messaging side of the bridge. It decodes
// frames from the browser on stdin, hands them to a relay, and frames every
// message coming back from the relay onto stdout.
package proxy
