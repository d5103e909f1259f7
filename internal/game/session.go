// internal/game/session.go
package game

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Phase is the lifecycle stage of a session.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseStarted   Phase = "started"
	PhaseCompleted Phase = "completed"
)

// Participant is anyone holding a token for a room. Role is empty for an admin who does
// not play a team.
type Participant struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Role    Role      `json:"team,omitempty"`
	IsAdmin bool      `json:"isAdmin"`
}

// Session is one game instance: four teams, a round counter and a phase.
//
// Every mutation happens under mu. After each mutation the session publishes an immutable
// snapshot, so readers (View, Phase, Round, History) never take the lock and always observe
// a consistent point in time.
type Session struct {
	ID       uuid.UUID
	RoomCode string

	// AutoStart starts the game as soon as the fourth team is assigned.
	AutoStart bool

	// BroadcastFn receives every GameEvent once the state it describes is published. It is
	// called with the session lock held and must not block or call back into mutating methods.
	BroadcastFn func(ev GameEvent)

	mu           sync.Mutex
	settings     Settings
	phase        Phase
	round        int
	teams        Teams
	participants []Participant
	assignments  map[Role]uuid.UUID
	history      []RoundRecord
	pending      []GameEvent

	view atomic.Pointer[snapshot]
}

// NewSession creates a session in the waiting phase with teams seeded from settings.
func NewSession(roomCode string, settings Settings) *Session {
	id, _ := uuid.NewV7()
	s := &Session{
		ID:          id,
		RoomCode:    roomCode,
		settings:    settings.Clone(),
		phase:       PhaseWaiting,
		teams:       SeedTeams(settings),
		assignments: make(map[Role]uuid.UUID, NumRoles),
	}
	s.publishLocked()
	return s
}

func (s *Session) logger() *log.Entry {
	return log.WithFields(log.Fields{"room": s.RoomCode, "game": s.ID})
}

// AddParticipant registers p with the session. A participant with a Role occupies that team;
// teams can only be claimed while waiting and by one participant each.
func (s *Session) AddParticipant(p Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Role != "" {
		if !p.Role.Valid() {
			return Errorf(KindInvalidRole, "invalid team %q", p.Role)
		}
		if s.phase != PhaseWaiting {
			return Errorf(KindWrongPhase, "game already started")
		}
		if _, taken := s.assignments[p.Role]; taken {
			return Errorf(KindRoleTaken, "team %s already taken", p.Role)
		}
		s.assignments[p.Role] = p.ID
	}
	s.participants = append(s.participants, p)
	s.logger().WithFields(log.Fields{"role": p.Role, "admin": p.IsAdmin}).Infof("%s joined", p.Name)
	s.fireEvent(EventPlayerJoined, p.Role, nil)

	if s.AutoStart && p.Role != "" && s.allTeamsJoinedLocked() {
		s.phase = PhaseStarted
		s.logger().Info("all teams joined, game auto-started")
		s.fireEvent(EventGameStarted, "", nil)
	}
	s.publishLocked()
	return nil
}

// AllTeamsJoined reports whether every role has an occupant.
func (s *Session) AllTeamsJoined() bool {
	return s.view.Load().allTeamsJoined()
}

func (s *Session) allTeamsJoinedLocked() bool {
	return len(s.assignments) == NumRoles
}

// Start moves a waiting session with four assigned teams into play and freezes its settings.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseWaiting {
		return Errorf(KindWrongPhase, "game already started")
	}
	if !s.allTeamsJoinedLocked() {
		return Errorf(KindNotReady, "4 teams are required before start, %d joined", len(s.assignments))
	}
	s.phase = PhaseStarted
	s.logger().Info("game started")
	s.fireEvent(EventGameStarted, "", nil)
	s.publishLocked()
	return nil
}

// SubmitOrder records role's order for the current round. When it completes the set of four
// orders the round is resolved before SubmitOrder returns; resolved reports whether that
// happened. Exactly one call per round observes the complete set.
func (s *Session) SubmitOrder(role Role, qty int) (resolved bool, err error) {
	if qty < 0 {
		return false, ErrInvalidOrder
	}
	if !role.Valid() {
		return false, Errorf(KindInvalidRole, "invalid team %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseWaiting:
		return false, Errorf(KindWrongPhase, "game not started yet")
	case PhaseCompleted:
		return false, Errorf(KindWrongPhase, "game already finished")
	}
	if err := s.teams.Get(role).SubmitOrder(qty); err != nil {
		return false, err
	}
	s.fireEvent(EventOrderSubmitted, role, nil)

	if s.teams.AllSubmitted() {
		if err := s.resolveLocked(); err != nil {
			s.publishLocked()
			return false, err
		}
		resolved = true
	}
	s.publishLocked()
	return resolved, nil
}

// resolveLocked runs one resolution and applies it. Assumes lock is held.
func (s *Session) resolveLocked() error {
	next, rec, err := Resolve(s.teams, s.settings, s.round)
	if err != nil {
		return err
	}
	s.teams = next
	s.history = append(s.history, rec)
	s.round++

	s.logger().WithFields(log.Fields{"round": rec.Round, "demand": rec.CustomerDemand}).Info("round resolved")
	s.fireEvent(EventRoundResolved, "", &rec)

	if s.round >= s.settings.MaxRounds {
		s.completeLocked()
	}
	return nil
}

// completeLocked ends the game. Assumes lock is held.
func (s *Session) completeLocked() {
	s.phase = PhaseCompleted
	for i := range s.teams {
		s.teams[i].PendingOrder = nil
	}
	s.logger().WithField("rounds", s.round).Info("game completed")
	s.fireEvent(EventGameCompleted, "", nil)
}

// UpdateSettings applies a partial settings update. Every field can change while waiting, and
// all teams are reseeded from the result. Once started only maxRounds may change; it cannot
// drop below the rounds already played, and setting it to exactly that count ends the game.
func (s *Session) UpdateSettings(partial map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseWaiting:
		settings, err := ParseSettings(partial, s.settings)
		if err != nil {
			return err
		}
		s.settings = settings
		s.teams = SeedTeams(settings)

	case PhaseStarted:
		for key, val := range partial {
			if key != KeyMaxRounds && IsSettingKey(key) && val != nil {
				return Errorf(KindGameAlreadyStarted, "cannot change %s after game start", key)
			}
		}
		settings, err := ParseSettings(onlyKey(partial, KeyMaxRounds), s.settings)
		if err != nil {
			return err
		}
		if settings.MaxRounds < s.round {
			return Errorf(KindInvalidSettings, "maxRounds cannot be below the %d rounds already played", s.round)
		}
		s.settings = settings
		if s.round >= s.settings.MaxRounds {
			s.completeLocked()
		}

	default:
		return ErrGameAlreadyStarted
	}

	s.logger().WithField("maxRounds", s.settings.MaxRounds).Info("settings updated")
	s.fireEvent(EventSettingsUpdated, "", nil)
	s.publishLocked()
	return nil
}

// Reset returns the session to the waiting phase with fresh teams and no history.
// Room code, participants and team assignments are kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teams = SeedTeams(s.settings)
	s.history = nil
	s.round = 0
	s.phase = PhaseWaiting
	s.logger().Info("game reset")
	s.fireEvent(EventGameReset, "", nil)
	s.publishLocked()
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.view.Load().phase
}

// Round returns the number of resolved rounds.
func (s *Session) Round() int {
	return s.view.Load().round
}

// Settings returns a copy of the current settings.
func (s *Session) Settings() Settings {
	return s.view.Load().settings.Clone()
}

// History returns every resolved round in order. The records must not be modified.
func (s *Session) History() []RoundRecord {
	return s.view.Load().history
}

// Team returns a copy of role's current state.
func (s *Session) Team(role Role) TeamState {
	v := s.view.Load()
	return v.teams[role.Index()]
}

func onlyKey(m map[string]interface{}, key string) map[string]interface{} {
	out := map[string]interface{}{}
	if v, ok := m[key]; ok {
		out[key] = v
	}
	return out
}
