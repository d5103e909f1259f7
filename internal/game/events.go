// internal/game/events.go
package game

import (
	"time"

	"github.com/google/uuid"
)

// GameEventType names a session change pushed to listeners.
type GameEventType string

const (
	EventPlayerJoined    GameEventType = "player_joined"
	EventGameStarted     GameEventType = "game_started"
	EventOrderSubmitted  GameEventType = "order_submitted"
	EventRoundResolved   GameEventType = "round_resolved"
	EventGameCompleted   GameEventType = "game_completed"
	EventSettingsUpdated GameEventType = "settings_updated"
	EventGameReset       GameEventType = "game_reset"
)

// GameEvent describes one change to a session. Record is set for EventRoundResolved only.
type GameEvent struct {
	Type      GameEventType `json:"type"`
	GameID    uuid.UUID     `json:"gameId"`
	RoomCode  string        `json:"roomCode"`
	Round     int           `json:"round"`
	Role      Role          `json:"role,omitempty"`
	Record    *RoundRecord  `json:"record,omitempty"`
	Timestamp int64         `json:"ts"`
}

// fireEvent queues an event for BroadcastFn. Events are delivered by publishLocked, after
// the snapshot they describe is visible to readers. Assumes lock is held.
func (s *Session) fireEvent(evType GameEventType, role Role, rec *RoundRecord) {
	if s.BroadcastFn == nil {
		return
	}
	s.pending = append(s.pending, GameEvent{
		Type:      evType,
		GameID:    s.ID,
		RoomCode:  s.RoomCode,
		Round:     s.round,
		Role:      role,
		Record:    rec,
		Timestamp: time.Now().UnixMilli(),
	})
}

// flushEventsLocked delivers queued events in order. Assumes lock is held.
func (s *Session) flushEventsLocked() {
	pending := s.pending
	s.pending = nil
	if s.BroadcastFn == nil {
		return
	}
	for _, ev := range pending {
		s.BroadcastFn(ev)
	}
}
