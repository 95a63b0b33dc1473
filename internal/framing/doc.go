// Package framing implements the browser Native Messaging wire format: a
// 4-byte unsigned length prefix in native byte order followed by that many
// UTF-8 bytes.
//
// The codec is only used on the proxy's stdin/stdout. The local socket between
// the proxy and the desktop hub carries raw text and never sees these frames.
package framing
