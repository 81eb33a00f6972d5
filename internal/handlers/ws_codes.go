// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	EvictedError        = 3001 // Client was removed from its lobby after a failed push.
)
