package realtime

import "encoding/json"

// MessageType tags an envelope on the wire.
type MessageType string

// Outbound message types pushed to connected clients.
const (
	MessageConnectionEstablished MessageType = "connection_established"
	MessageNewNotification       MessageType = "new_notification"
	MessageNotificationRead      MessageType = "notification_read"
	MessageAllNotificationsRead  MessageType = "all_notifications_read"
	MessagePong                  MessageType = "pong"
)

// Inbound control message types accepted from clients.
const (
	MessagePing MessageType = "ping"
)

// Envelope is the JSON frame exchanged over a realtime connection.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an envelope of the given type.
// A nil payload produces an envelope with no payload field.
func NewEnvelope(t MessageType, payload any) (Envelope, error) {
	env := Envelope{Type: t}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	env.Payload = data
	return env, nil
}
