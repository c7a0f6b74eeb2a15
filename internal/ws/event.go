package ws

import "encoding/json"

// Event is the tagged wire frame carried in both directions over a
// connection: {"type": ..., "data": {...}}.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound event types.
const (
	EventAuth         = "auth"
	EventSetPublicKey = "setPublicKey"
	EventSendMessage  = "sendMessage"
	EventTyping       = "typing"
	EventMessageRead  = "message_read"
)

// Outbound event types.
const (
	EventPresence       = "presence"
	EventOtherPublicKey = "otherPublicKey"
	EventMessage        = "message"
	EventSentAck        = "sentAck"
)

type authData struct {
	Username string `json:"username"`
}

type keyData struct {
	Username  string `json:"username"`
	PublicKey string `json:"publicKey"`
}

type typingData struct {
	To   string `json:"to,omitempty"`
	From string `json:"from"`
}

type readData struct {
	ID     string `json:"id"`
	Reader string `json:"reader"`
}

type ackData struct {
	ID        string `json:"id"`
	Delivered bool   `json:"delivered"`
}

type presenceData struct {
	User     string `json:"user"`
	Online   bool   `json:"online"`
	LastSeen *int64 `json:"lastSeen,omitempty"`
}
