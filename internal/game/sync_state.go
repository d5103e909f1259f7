// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
)

// snapshot is an immutable copy of a session taken at the end of a mutation.
type snapshot struct {
	phase        Phase
	round        int
	settings     Settings
	teams        Teams
	participants []Participant
	assignments  map[Role]uuid.UUID
	history      []RoundRecord
}

func (v *snapshot) allTeamsJoined() bool {
	return len(v.assignments) == NumRoles
}

// publishLocked stores a fresh snapshot for lock-free readers, then delivers the events
// queued since the last publish. Assumes lock is held.
func (s *Session) publishLocked() {
	assignments := make(map[Role]uuid.UUID, len(s.assignments))
	for r, id := range s.assignments {
		assignments[r] = id
	}
	participants := make([]Participant, len(s.participants))
	copy(participants, s.participants)

	s.view.Store(&snapshot{
		phase:        s.phase,
		round:        s.round,
		settings:     s.settings.Clone(),
		teams:        s.teams,
		participants: participants,
		assignments:  assignments,
		history:      s.history[:len(s.history):len(s.history)],
	})
	s.flushEventsLocked()
}

// TeamView is the public state of one team.
type TeamView struct {
	Stock          int              `json:"stock"`
	Backlog        int              `json:"backlog"`
	TotalCost      float64          `json:"totalCost"`
	OrderSubmitted bool             `json:"orderSubmitted"`
	LastRound      *TeamRoundRecord `json:"lastRound"`
}

// StateView is the state of a session as seen by one participant.
type StateView struct {
	GameID           uuid.UUID         `json:"gameId"`
	RoomCode         string            `json:"roomCode"`
	Viewer           string            `json:"viewer"`
	YourTeam         Role              `json:"yourTeam,omitempty"`
	Phase            Phase             `json:"phase"`
	Started          bool              `json:"started"`
	Completed        bool              `json:"completed"`
	AllTeamsJoined   bool              `json:"allTeamsJoined"`
	SubmissionsCount int               `json:"submissionsCount"`
	Round            int               `json:"round"`
	MaxRounds        int               `json:"maxRounds"`
	CurrentDemand    *int              `json:"currentDemand"`
	Teams            map[Role]TeamView `json:"teams"`
	Players          []Participant     `json:"players"`
	TeamAssignments  map[Role]*string  `json:"teamAssignments"`
	Settings         Settings          `json:"settings"`
	History          []RoundRecord     `json:"history"`
	CanStart         bool              `json:"canStart"`
}

// View builds the state for viewer. The demand of the round in flight is only shown to
// admins; players learn it from history once the round resolves.
func (s *Session) View(viewer Participant) StateView {
	v := s.view.Load()

	out := StateView{
		GameID:           s.ID,
		RoomCode:         s.RoomCode,
		Viewer:           "player",
		YourTeam:         viewer.Role,
		Phase:            v.phase,
		Started:          v.phase != PhaseWaiting,
		Completed:        v.phase == PhaseCompleted,
		AllTeamsJoined:   v.allTeamsJoined(),
		SubmissionsCount: v.teams.SubmittedCount(),
		Round:            v.round,
		MaxRounds:        v.settings.MaxRounds,
		Teams:            make(map[Role]TeamView, NumRoles),
		Players:          v.participants,
		TeamAssignments:  make(map[Role]*string, NumRoles),
		Settings:         v.settings,
		History:          v.history,
	}
	if out.History == nil {
		out.History = []RoundRecord{}
	}

	if viewer.IsAdmin {
		out.Viewer = "admin"
		out.CanStart = v.phase == PhaseWaiting && v.allTeamsJoined()
		if v.phase == PhaseStarted {
			demand := v.settings.DemandSchedule.DemandFor(v.round)
			out.CurrentDemand = &demand
		}
	}

	for i, role := range Roles {
		t := &v.teams[i]
		out.Teams[role] = TeamView{
			Stock:          t.Stock,
			Backlog:        t.Backlog,
			TotalCost:      t.TotalCost,
			OrderSubmitted: t.HasSubmitted(),
			LastRound:      t.LastRound(),
		}
		out.TeamAssignments[role] = nil
	}
	for _, p := range v.participants {
		if p.Role == "" || v.assignments[p.Role] != p.ID {
			continue
		}
		name := p.Name
		out.TeamAssignments[p.Role] = &name
	}
	return out
}
