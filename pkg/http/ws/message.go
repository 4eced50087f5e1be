package ws

import "encoding/json"

// MessageType constants for the WebSocket protocol.
const (
	// Server -> Client
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeError             = "error"

	// Bidirectional keepalive
	TypePing = "ping"
	TypePong = "pong"
)

// Message wraps all WebSocket payloads with a type tag.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LeaderboardEntry is one row of a broadcast leaderboard.
type LeaderboardEntry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	Avatar   string `json:"avatar"`
}

// LeaderboardUpdatePayload announces a new top-N ranking.
type LeaderboardUpdatePayload struct {
	Top []LeaderboardEntry `json:"top"`
}
