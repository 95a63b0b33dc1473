package ipc

import "errors"

var (
	// ErrConnectFailed wraps a failed dial. The relay retries after its
	// fixed delay.
	ErrConnectFailed = errors.New("ipc: connect failed")
	// ErrWriteFailed wraps a failed socket write.
	ErrWriteFailed = errors.New("ipc: write failed")
	// ErrReadFailed wraps a failed socket read.
	ErrReadFailed = errors.New("ipc: read failed")
	// ErrPeerClosed reports an orderly close by the other side.
	ErrPeerClosed = errors.New("ipc: peer closed connection")
	// ErrInvalidEncoding reports received bytes that are not valid UTF-8.
	ErrInvalidEncoding = errors.New("ipc: received bytes are not valid utf-8")
	// ErrChannelClosed reports that the channel feeding a task was closed.
	ErrChannelClosed = errors.New("ipc: channel closed")
	// ErrAlreadyStarted reports a second Start on the same hub.
	ErrAlreadyStarted = errors.New("ipc: hub already started")
)
