// internal/handlers/state_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/beergame/internal/game"
	"github.com/jason-s-yu/beergame/internal/middleware"
	"github.com/sirupsen/logrus"
)

// StateSubprotocol must be requested by state socket clients.
const StateSubprotocol = "state"

type stateMessage struct {
	Type  string          `json:"type"`
	State *game.StateView `json:"state,omitempty"`
}

// clientMessage is what a state socket may send.
type clientMessage struct {
	Type string `json:"type"`
}

// StateWSHandler upgrades to a socket that receives the caller's view on connect and after
// every change to their room. The token comes from the "token" query parameter or the
// X-Player-Token header and is checked before the upgrade.
func StateWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = strings.TrimSpace(r.Header.Get(HeaderPlayerToken))
		}
		s, id, err := gs.Registry.ResolveToken(token)
		if err != nil {
			writeError(w, err)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{StateSubprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for room %s: %v", s.RoomCode, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != StateSubprotocol {
			c.Close(BadSubprotocolError, "Client must use the 'state' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		// subscribe before the first push so no change between the two is lost
		sub := gs.Hub.Subscribe(s.RoomCode)
		defer sub.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		viewer := id.Participant()
		if err := sendState(ctx, c, s, viewer); err != nil {
			middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
			return
		}

		readErr := make(chan error, 1)
		go func() {
			readErr <- readStateMessages(ctx, c, s, viewer, logger)
		}()

		for {
			select {
			case <-sub.C:
				if err := sendState(ctx, c, s, viewer); err != nil {
					middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
					return
				}
			case err := <-readErr:
				middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, closeReason(err))
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// readStateMessages answers pings and explicit refresh requests until the socket fails.
func readStateMessages(ctx context.Context, c *websocket.Conn, s *game.Session, viewer game.Participant, logger *logrus.Logger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWsError(ctx, c, "Invalid JSON format.")
			continue
		}
		switch msg.Type {
		case "ping":
			sendWsMessage(ctx, c, map[string]string{"type": "pong"})
		case "state":
			if err := sendState(ctx, c, s, viewer); err != nil {
				return err
			}
		default:
			logger.Debugf("Unknown state socket message '%s' in room %s.", msg.Type, s.RoomCode)
			sendWsError(ctx, c, "Unknown message type: "+msg.Type)
		}
	}
}

func sendState(ctx context.Context, c *websocket.Conn, s *game.Session, viewer game.Participant) error {
	view := s.View(viewer)
	data, err := json.Marshal(stateMessage{Type: "state", State: &view})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.Write(writeCtx, websocket.MessageText, data)
}

// sendWsMessage marshals a message and writes it with a timeout. Failures surface through
// the read loop, so they are only logged here.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("Error marshaling WebSocket message: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, data); err != nil {
		logrus.Debugf("Error writing WebSocket message: %v", err)
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, errorMsg string) {
	sendWsMessage(ctx, c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}

// closeReason drops the error for orderly closes so they are not logged as failures.
func closeReason(err error) error {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
