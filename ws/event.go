// Package ws pushes storefront events to a signed-in user's open tabs.
//
// The Hub keeps userID → connections. Services publish through the
// EventPublisher interface after a cart or order changes; each Client's
// WritePump forwards the encoded event to its socket. Clients only ever
// send heartbeats.
package ws

// Event is the envelope written to the socket.
//
// Seq increases by one for every outbound event so a client can notice a gap.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → server
const (
	OpHeartbeat = "heartbeat"
)

// Server → client
const (
	OpReady        = "ready"
	OpHeartbeatAck = "heartbeat_ack"
	OpCartUpdate   = "cart_update"
	OpOrderUpdate  = "order_update"
)

// ReadyData is sent once right after the upgrade.
type ReadyData struct {
	UserID string `json:"user_id"`
}
