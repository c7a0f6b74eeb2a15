package models

import "encoding/json"

type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	PublicKey    string `json:"public_key,omitempty"`
	// LastSeen is Unix milliseconds, 0 until the user first disconnects.
	LastSeen int64 `json:"last_seen,omitempty"`
}

// Meta carries mutable per-message delivery metadata.
type Meta struct {
	ReadBy []string `json:"readBy,omitempty"`
}

// Envelope is a single relayed message unit. Payload is opaque ciphertext
// plus whatever transport metadata the clients agree on (e.g. an attachment
// file id); the relay never inspects it.
type Envelope struct {
	ID      string          `json:"id"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Ts      int64           `json:"ts"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Meta    Meta            `json:"meta"`
}
