package realtime

import "encoding/json"

// WebSocket event types exchanged over the persistent channel.
const (
	// Inbound from clients.
	EventChatSend = "chat:send"

	// Outbound to clients.
	EventChatMessage  = "chat:message"  // inbox delivery and sender echo
	EventChatActivity = "chat:activity" // optional broadcast refresh hint
	EventChatError    = "chat:error"    // the send was rejected
	EventChatWarning  = "chat:warning"  // stored, but not fully delivered
	EventNotification = "notification:new"
)

// Event is the envelope for every frame on the persistent channel.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// inboundFrame keeps the payload raw until the type is known.
type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// errorPayload is the body of chat:error and chat:warning events.
type errorPayload struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}
