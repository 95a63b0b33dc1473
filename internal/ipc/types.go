package ipc

import "fmt"

// Kind tags a hub event.
type Kind int

const (
	KindConnected Kind = iota
	KindDisconnected
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindConnected:
		return "connected"
	case KindDisconnected:
		return "disconnected"
	case KindMessage:
		return "message"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind by name in JSON event streams.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Message is one hub event. Message is empty for connect and disconnect
// events.
type Message struct {
	ClientID uint32 `json:"client_id"`
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
}

// Control messages the relay sends to its consumer when the hub connection
// comes up or goes away. The browser extension keys off these exact strings.
const (
	ConnectedNotice    = `{"command":"connected"}`
	DisconnectedNotice = `{"command":"disconnected"}`
)
