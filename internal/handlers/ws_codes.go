// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the state push handler.
const (
	BadSubprotocolError   = 3000 // Client connected without the "state" subprotocol.
	InvalidAuthTokenError = 3001 // Token stopped resolving while the socket was open.
)
