// internal/handlers/game_server.go
package handlers

import (
	"github.com/jason-s-yu/beergame/internal/room"
)

// GameServer bundles what the handlers share: the room registry and the hub pushing state
// changes to open sockets.
type GameServer struct {
	Registry *room.Registry
	Hub      *Hub
}

// NewGameServer wires a hub into reg. Call it before any room is created so every session
// reports to the hub.
func NewGameServer(reg *room.Registry) *GameServer {
	hub := NewHub()
	reg.Subscribe(hub.Notify)
	return &GameServer{Registry: reg, Hub: hub}
}
