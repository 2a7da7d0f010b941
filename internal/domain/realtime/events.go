package realtime

import "encoding/json"

// EventPresenceChanged notifies a user's matches that they came online
// or went offline
const EventPresenceChanged = "presence_changed"

// Envelope is the wire format for events streamed over a channel. The
// sequence number is monotonic per recipient and survives reconnects,
// so a client can acknowledge and resume from where it left off.
type Envelope struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Sequence int64           `json:"sequence"`
}
