// internal/game/session_test.go
package game

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlayer(name string, role Role) Participant {
	return Participant{ID: uuid.New(), Name: name, Role: role}
}

func newFullSession(t *testing.T, settings Settings) *Session {
	t.Helper()
	s := NewSession("ABC123", settings)
	for _, role := range Roles {
		require.NoError(t, s.AddParticipant(newPlayer(string(role)+" player", role)))
	}
	return s
}

func playRound(t *testing.T, s *Session, qty int) {
	t.Helper()
	for i, role := range Roles {
		resolved, err := s.SubmitOrder(role, qty)
		require.NoError(t, err)
		assert.Equal(t, i == NumRoles-1, resolved)
	}
}

func TestSessionRoleAssignment(t *testing.T) {
	s := NewSession("ABC123", DefaultSettings())
	require.NoError(t, s.AddParticipant(newPlayer("alice", Retailer)))

	err := s.AddParticipant(newPlayer("bob", Retailer))
	assert.ErrorIs(t, err, ErrRoleTaken)

	err = s.AddParticipant(newPlayer("carol", Role("Brewer")))
	assert.ErrorIs(t, err, ErrInvalidRole)

	// an admin without a team does not take a slot
	require.NoError(t, s.AddParticipant(Participant{ID: uuid.New(), Name: "admin", IsAdmin: true}))
	assert.False(t, s.AllTeamsJoined())
}

func TestSessionStartRequiresAllTeams(t *testing.T) {
	s := NewSession("ABC123", DefaultSettings())
	for _, role := range []Role{Retailer, Wholesaler, Distributor} {
		require.NoError(t, s.AddParticipant(newPlayer("p", role)))
	}
	assert.False(t, s.AllTeamsJoined())
	assert.ErrorIs(t, s.Start(), ErrNotReady)
	assert.Equal(t, PhaseWaiting, s.Phase())

	_, err := s.SubmitOrder(Retailer, 5)
	assert.ErrorIs(t, err, ErrWrongPhase)

	s = newFullSession(t, DefaultSettings())
	require.NoError(t, s.Start())
	assert.Equal(t, PhaseStarted, s.Phase())
	assert.ErrorIs(t, s.Start(), ErrWrongPhase)

	err = s.AddParticipant(newPlayer("late", Factory))
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestSessionAutoStart(t *testing.T) {
	s := NewSession("ABC123", DefaultSettings())
	s.AutoStart = true
	for _, role := range Roles[:NumRoles-1] {
		require.NoError(t, s.AddParticipant(newPlayer("p", role)))
		assert.Equal(t, PhaseWaiting, s.Phase())
	}
	require.NoError(t, s.AddParticipant(newPlayer("p", Factory)))
	assert.Equal(t, PhaseStarted, s.Phase())
}

func TestSessionSubmitOrder(t *testing.T) {
	s := newFullSession(t, DefaultSettings())
	require.NoError(t, s.Start())

	_, err := s.SubmitOrder(Retailer, -1)
	assert.ErrorIs(t, err, ErrInvalidOrder)
	assert.False(t, s.Team(Retailer).HasSubmitted(), "rejected order must not be recorded")

	resolved, err := s.SubmitOrder(Retailer, 5)
	require.NoError(t, err)
	assert.False(t, resolved)

	_, err = s.SubmitOrder(Retailer, 6)
	assert.ErrorIs(t, err, ErrDuplicateSubmission)
	assert.Equal(t, 5, *s.Team(Retailer).PendingOrder)

	for _, role := range []Role{Wholesaler, Distributor} {
		_, err = s.SubmitOrder(role, 5)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, s.Round())

	resolved, err = s.SubmitOrder(Factory, 5)
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.Equal(t, 1, s.Round())
	require.Len(t, s.History(), 1)
	for _, role := range Roles {
		assert.False(t, s.Team(role).HasSubmitted())
	}
}

func TestSessionCompletesAtMaxRounds(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxRounds = 3
	s := newFullSession(t, settings)
	require.NoError(t, s.Start())

	for i := 0; i < 3; i++ {
		playRound(t, s, 5)
	}
	assert.Equal(t, PhaseCompleted, s.Phase())
	assert.Equal(t, 3, s.Round())
	assert.Len(t, s.History(), 3)

	_, err := s.SubmitOrder(Retailer, 5)
	assert.ErrorIs(t, err, ErrWrongPhase)
	assert.ErrorIs(t, s.UpdateSettings(map[string]interface{}{KeyMaxRounds: float64(10)}), ErrGameAlreadyStarted)
}

// TestSessionConcurrentSubmissions races all four teams every round and checks that each
// round is resolved by exactly one submission.
func TestSessionConcurrentSubmissions(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxRounds = 50
	s := newFullSession(t, settings)
	require.NoError(t, s.Start())

	var events atomic.Int32
	s.BroadcastFn = func(ev GameEvent) {
		if ev.Type == EventRoundResolved {
			events.Add(1)
		}
	}

	for round := 0; round < settings.MaxRounds; round++ {
		var wg sync.WaitGroup
		var resolvedCount atomic.Int32
		for _, role := range Roles {
			wg.Add(1)
			go func(role Role) {
				defer wg.Done()
				// readers run alongside the writers
				_ = s.View(Participant{IsAdmin: true})
				resolved, err := s.SubmitOrder(role, 4)
				assert.NoError(t, err)
				if resolved {
					resolvedCount.Add(1)
				}
			}(role)
		}
		wg.Wait()
		require.Equal(t, int32(1), resolvedCount.Load(), "round %d", round)
		require.Equal(t, round+1, s.Round())
	}
	assert.Equal(t, int32(settings.MaxRounds), events.Load())
	assert.Equal(t, PhaseCompleted, s.Phase())
}

func TestSessionUpdateSettingsWhileWaiting(t *testing.T) {
	s := NewSession("ABC123", DefaultSettings())
	require.NoError(t, s.UpdateSettings(map[string]interface{}{
		KeyInitialStock:   float64(20),
		KeyHoldingCost:    0.75,
		KeyDemandSchedule: "0:8",
	}))
	assert.Equal(t, 20, s.Team(Factory).Stock)
	assert.Equal(t, 0.75, s.Settings().HoldingCost)
	assert.Equal(t, DemandSchedule{0: 8}, s.Settings().DemandSchedule)

	err := s.UpdateSettings(map[string]interface{}{KeyMaxRounds: float64(-2)})
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Equal(t, 40, s.Settings().MaxRounds)
}

func TestSessionUpdateSettingsAfterStart(t *testing.T) {
	s := newFullSession(t, DefaultSettings())
	require.NoError(t, s.Start())
	playRound(t, s, 5)
	playRound(t, s, 5)

	err := s.UpdateSettings(map[string]interface{}{KeyHoldingCost: 2.0})
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)

	err = s.UpdateSettings(map[string]interface{}{KeyMaxRounds: float64(1)})
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Equal(t, PhaseStarted, s.Phase())

	require.NoError(t, s.UpdateSettings(map[string]interface{}{KeyMaxRounds: float64(5), KeyHoldingCost: nil}))
	assert.Equal(t, 5, s.Settings().MaxRounds)
	assert.Equal(t, 0.5, s.Settings().HoldingCost)

	require.NoError(t, s.UpdateSettings(map[string]interface{}{KeyMaxRounds: float64(2)}))
	assert.Equal(t, PhaseCompleted, s.Phase())
}

func TestSessionReset(t *testing.T) {
	s := newFullSession(t, DefaultSettings())
	require.NoError(t, s.Start())
	playRound(t, s, 9)
	_, err := s.SubmitOrder(Retailer, 3)
	require.NoError(t, err)

	s.Reset()
	assert.Equal(t, PhaseWaiting, s.Phase())
	assert.Equal(t, 0, s.Round())
	assert.Empty(t, s.History())
	assert.True(t, s.AllTeamsJoined(), "assignments survive a reset")
	for _, role := range Roles {
		team := s.Team(role)
		assert.Equal(t, 15, team.Stock)
		assert.Zero(t, team.TotalCost)
		assert.False(t, team.HasSubmitted())
	}
	require.NoError(t, s.Start())
}

func TestSessionHistorySnapshotsAreStable(t *testing.T) {
	s := newFullSession(t, DefaultSettings())
	require.NoError(t, s.Start())
	playRound(t, s, 5)
	first := s.History()
	playRound(t, s, 8)

	require.Len(t, first, 1)
	assert.Len(t, s.History(), 2)
	assert.Equal(t, 5, first[0].Team(Retailer).PlacedOrder)
}

func TestSessionView(t *testing.T) {
	s := newFullSession(t, DefaultSettings())
	admin := Participant{ID: uuid.New(), Name: "host", IsAdmin: true}
	require.NoError(t, s.AddParticipant(admin))

	adminView := s.View(admin)
	assert.Equal(t, "admin", adminView.Viewer)
	assert.True(t, adminView.CanStart)
	assert.Nil(t, adminView.CurrentDemand)
	assert.NotNil(t, adminView.History)
	require.NotNil(t, adminView.TeamAssignments[Wholesaler])
	assert.Equal(t, "Wholesaler player", *adminView.TeamAssignments[Wholesaler])

	require.NoError(t, s.Start())
	_, err := s.SubmitOrder(Distributor, 5)
	require.NoError(t, err)

	adminView = s.View(admin)
	require.NotNil(t, adminView.CurrentDemand)
	assert.Equal(t, 5, *adminView.CurrentDemand)
	assert.False(t, adminView.CanStart)
	assert.Equal(t, 1, adminView.SubmissionsCount)
	assert.True(t, adminView.Teams[Distributor].OrderSubmitted)

	playerView := s.View(newPlayer("x", Retailer))
	assert.Equal(t, "player", playerView.Viewer)
	assert.Equal(t, Retailer, playerView.YourTeam)
	assert.Nil(t, playerView.CurrentDemand)
	assert.False(t, playerView.CanStart)
	assert.True(t, playerView.Started)
	assert.Len(t, playerView.Players, NumRoles+1)
}

func TestSessionEvents(t *testing.T) {
	var got []GameEventType
	s := NewSession("ABC123", DefaultSettings())
	s.BroadcastFn = func(ev GameEvent) {
		assert.Equal(t, "ABC123", ev.RoomCode)
		if ev.Type == EventRoundResolved {
			assert.NotNil(t, ev.Record)
		}
		got = append(got, ev.Type)
	}
	for _, role := range Roles {
		require.NoError(t, s.AddParticipant(newPlayer("p", role)))
	}
	require.NoError(t, s.Start())
	playRound(t, s, 5)

	assert.Equal(t, []GameEventType{
		EventPlayerJoined, EventPlayerJoined, EventPlayerJoined, EventPlayerJoined,
		EventGameStarted,
		EventOrderSubmitted, EventOrderSubmitted, EventOrderSubmitted, EventOrderSubmitted,
		EventRoundResolved,
	}, got)
}
