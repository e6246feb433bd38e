package ws

import "time"

// ConnInfo describes a registered websocket connection.
type ConnInfo struct {
	ConnID      string
	UserID      string
	IP          string
	RequestID   string
	ConnectedAt time.Time
}
