// internal/handlers/room.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/beergame/internal/game"
	"github.com/jason-s-yu/beergame/internal/room"
)

// CreateRoomHandler opens a room. With asPlayer the creator also takes the "team" in the
// body; otherwise they only administer the room.
func CreateRoomHandler(gs *GameServer, asPlayer bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := decodeBody(r)
		if err != nil {
			writeError(w, err)
			return
		}

		opts := room.CreateOptions{
			Name:       stringField(body, "name"),
			Passphrase: stringField(body, "passphrase"),
			AutoStart:  boolField(body, "autoStart"),
			Settings:   settingsFromBody(body),
		}
		if asPlayer {
			opts.Role = stringField(body, "team")
			if opts.Role == "" {
				writeError(w, game.Errorf(game.KindInvalidRole, "team is required"))
				return
			}
		}

		ticket, err := gs.Registry.CreateRoom(opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ticket)
	}
}

// JoinRoomHandler claims a team in an existing room.
func JoinRoomHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := decodeBody(r)
		if err != nil {
			writeError(w, err)
			return
		}
		ticket, err := gs.Registry.JoinRoom(stringField(body, "roomCode"), stringField(body, "name"), stringField(body, "team"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ticket)
	}
}

// ReclaimAdminHandler trades a room passphrase for a fresh admin token.
func ReclaimAdminHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := decodeBody(r)
		if err != nil {
			writeError(w, err)
			return
		}
		ticket, err := gs.Registry.ReclaimAdmin(stringField(body, "roomCode"), stringField(body, "passphrase"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ticket)
	}
}

// StartHandler starts the caller's game.
func StartHandler(gs *GameServer) http.HandlerFunc {
	return tokenAction(gs, gs.Registry.Start)
}

// ResetHandler returns the caller's game to the waiting phase.
func ResetHandler(gs *GameServer) http.HandlerFunc {
	return tokenAction(gs, gs.Registry.Reset)
}

// UpdateSettingsHandler applies the body as a partial settings update.
func UpdateSettingsHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _, _, err := authenticate(gs, r)
		if err != nil {
			writeError(w, err)
			return
		}
		body, err := decodeBody(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := gs.Registry.UpdateSettings(token, settingsFromBody(body)); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	}
}

// SubmitOrderHandler places {"order": n} for the caller's team.
func SubmitOrderHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _, _, err := authenticate(gs, r)
		if err != nil {
			writeError(w, err)
			return
		}
		body, err := decodeBody(r)
		if err != nil {
			writeError(w, err)
			return
		}
		qty, err := game.ParseOrderQuantity(body["order"])
		if err != nil {
			writeError(w, err)
			return
		}
		if err := gs.Registry.SubmitOrder(token, qty); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	}
}

// StateHandler returns the caller's view of their room.
func StateHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, s, id, err := authenticate(gs, r)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.View(id.Participant()))
	}
}

// HealthHandler reports liveness and the number of open rooms.
func HealthHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"rooms":  gs.Registry.Len(),
		})
	}
}

func tokenAction(gs *GameServer, action func(token string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _, _, err := authenticate(gs, r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := action(token); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w)
	}
}
