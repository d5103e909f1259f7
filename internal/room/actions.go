// internal/room/actions.go
package room

import (
	"github.com/jason-s-yu/beergame/internal/game"
)

// Start begins the game. Admin only.
func (r *Registry) Start(token string) error {
	s, _, err := r.resolveAdmin(token)
	if err != nil {
		return err
	}
	return s.Start()
}

// SubmitOrder places the caller's order for the current round. Players only.
func (r *Registry) SubmitOrder(token string, qty int) error {
	s, id, err := r.ResolveToken(token)
	if err != nil {
		return err
	}
	if id.Role == "" {
		return game.Errorf(game.KindForbidden, "only players with a team can order")
	}
	_, err = s.SubmitOrder(id.Role, qty)
	return err
}

// UpdateSettings applies a partial settings update. Admin only.
func (r *Registry) UpdateSettings(token string, partial map[string]interface{}) error {
	s, _, err := r.resolveAdmin(token)
	if err != nil {
		return err
	}
	return s.UpdateSettings(partial)
}

// Reset returns the room to the waiting phase. Admin only.
func (r *Registry) Reset(token string) error {
	s, _, err := r.resolveAdmin(token)
	if err != nil {
		return err
	}
	s.Reset()
	return nil
}

// State returns the caller's view of their room.
func (r *Registry) State(token string) (game.StateView, error) {
	s, id, err := r.ResolveToken(token)
	if err != nil {
		return game.StateView{}, err
	}
	return s.View(id.Participant()), nil
}

func (r *Registry) resolveAdmin(token string) (*game.Session, Identity, error) {
	s, id, err := r.ResolveToken(token)
	if err != nil {
		return nil, id, err
	}
	if !id.IsAdmin {
		return nil, id, game.Errorf(game.KindForbidden, "admin only")
	}
	return s, id, nil
}
