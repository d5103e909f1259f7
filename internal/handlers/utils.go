// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jason-s-yu/beergame/internal/game"
	"github.com/jason-s-yu/beergame/internal/room"
	log "github.com/sirupsen/logrus"
)

// Request headers carrying the caller's credentials.
const (
	HeaderPlayerToken = "X-Player-Token"
	HeaderRoomCode    = "X-Room-Code"
	HeaderGameID      = "X-Game-Id"
)

// kindBadRequest marks malformed request bodies, which never reach the game layer.
const kindBadRequest game.Kind = "bad_request"

type errorBody struct {
	Error string    `json:"error"`
	Kind  game.Kind `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// writeError renders err with the status of its kind. Errors without a kind are reported
// as internal and their message is not exposed.
func writeError(w http.ResponseWriter, err error) {
	kind := game.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
		msg = "internal error"
		kind = "internal"
	}
	writeJSON(w, status, errorBody{Error: msg, Kind: kind})
}

func statusFor(kind game.Kind) int {
	switch kind {
	case game.KindRoomNotFound:
		return http.StatusNotFound
	case game.KindUnauthorized:
		return http.StatusUnauthorized
	case game.KindForbidden:
		return http.StatusForbidden
	case game.KindRoleTaken, game.KindNotReady, game.KindWrongPhase,
		game.KindDuplicateSubmission, game.KindGameAlreadyStarted:
		return http.StatusConflict
	case game.KindInvalidRole, game.KindInvalidOrder, game.KindInvalidSettings, kindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON object body. An empty body yields an empty map.
func decodeBody(r *http.Request) (map[string]interface{}, error) {
	body := map[string]interface{}{}
	if r.Body == nil {
		return body, nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, game.Errorf(kindBadRequest, "request body must be a JSON object")
	}
	return body, nil
}

func stringField(body map[string]interface{}, key string) string {
	s, _ := body[key].(string)
	return s
}

func boolField(body map[string]interface{}, key string) bool {
	b, _ := body[key].(bool)
	return b
}

// settingsFromBody collects settings from a nested "settings" object and from top-level
// setting keys, the latter taking precedence.
func settingsFromBody(body map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	if nested, ok := body["settings"].(map[string]interface{}); ok {
		for k, v := range nested {
			out[k] = v
		}
	}
	for k, v := range body {
		if game.IsSettingKey(k) {
			out[k] = v
		}
	}
	return out
}

// authenticate resolves the caller's token and checks the optional room headers against it.
func authenticate(gs *GameServer, r *http.Request) (string, *game.Session, room.Identity, error) {
	token := strings.TrimSpace(r.Header.Get(HeaderPlayerToken))
	s, id, err := gs.Registry.ResolveToken(token)
	if err != nil {
		return "", nil, id, err
	}
	if code := r.Header.Get(HeaderRoomCode); code != "" && room.NormalizeCode(code) != s.RoomCode {
		return "", nil, id, game.Errorf(game.KindUnauthorized, "token does not belong to room %s", room.NormalizeCode(code))
	}
	if gid := strings.TrimSpace(r.Header.Get(HeaderGameID)); gid != "" && gid != s.ID.String() {
		return "", nil, id, game.Errorf(game.KindUnauthorized, "token does not belong to game %s", gid)
	}
	return token, s, id, nil
}
