package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/stemsi/kuisku-participant/internal/session"
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(v)
}

// WriteSnapshot pushes a session snapshot.
func WriteSnapshot(conn *websocket.Conn, snap *session.Snapshot) error {
	return WriteTyped(conn, SnapshotResponse{Event: EventSnapshot, Snapshot: snap})
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{Event: EventError, Error: errMsg})
}

// ReadJSON reads and decodes a message into the provided structure.
// The long deadline tolerates participants who idle mid-discussion.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	return conn.ReadJSON(v)
}
