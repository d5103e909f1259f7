// internal/game/team.go
package game

// TeamRoundRecord is one team's outcome for a resolved round.
type TeamRoundRecord struct {
	Round            int     `json:"round"`
	Role             Role    `json:"role"`
	IncomingOrder    int     `json:"incomingOrder"`
	IncomingDelivery int     `json:"incomingDelivery"`
	OutgoingDelivery int     `json:"outgoingDelivery"`
	PlacedOrder      int     `json:"placedOrder"`
	StockAfter       int     `json:"stockAfter"`
	BacklogAfter     int     `json:"backlogAfter"`
	RoundCost        float64 `json:"roundCost"`
	TotalCost        float64 `json:"totalCost"`
}

// TeamState is the inventory position of a single role.
//
// OrderPipeline holds orders placed by the downstream neighbor that have not reached this
// team yet. Retailer receives its orders from the demand schedule, so its order pipeline is
// never shifted. DeliveryPipeline holds shipments on their way to this team; for Factory it
// holds its own production.
type TeamState struct {
	Role             Role     `json:"role"`
	Stock            int      `json:"stock"`
	Backlog          int      `json:"backlog"`
	TotalCost        float64  `json:"totalCost"`
	OrderPipeline    Pipeline `json:"-"`
	DeliveryPipeline Pipeline `json:"-"`

	// PendingOrder is set between submission and resolution of the current round.
	PendingOrder *int `json:"-"`

	// History is append-only; resolution always appends to a fresh backing array.
	History []TeamRoundRecord `json:"-"`
}

// Teams holds one TeamState per role, indexed like Roles.
type Teams [NumRoles]TeamState

// SeedTeam builds the starting state for role from settings.
func SeedTeam(role Role, settings Settings) TeamState {
	t := TeamState{
		Role:             role,
		Stock:            settings.InitialStock,
		DeliveryPipeline: NewPipeline(settings.InitialIncomingDelivery),
	}
	if role != Retailer {
		t.OrderPipeline = NewPipeline(settings.InitialIncomingOrder)
	}
	return t
}

// SeedTeams builds a fresh TeamState for every role.
func SeedTeams(settings Settings) Teams {
	var teams Teams
	for i, role := range Roles {
		teams[i] = SeedTeam(role, settings)
	}
	return teams
}

// SubmitOrder records qty as this round's order.
func (t *TeamState) SubmitOrder(qty int) error {
	if qty < 0 {
		return ErrInvalidOrder
	}
	if t.PendingOrder != nil {
		return ErrDuplicateSubmission
	}
	t.PendingOrder = &qty
	return nil
}

// HasSubmitted reports whether an order is pending for the current round.
func (t TeamState) HasSubmitted() bool {
	return t.PendingOrder != nil
}

// LastRound returns the most recent round record, or nil before the first resolution.
func (t TeamState) LastRound() *TeamRoundRecord {
	if len(t.History) == 0 {
		return nil
	}
	rec := t.History[len(t.History)-1]
	return &rec
}

// Get returns the team for role.
func (ts *Teams) Get(role Role) *TeamState {
	return &ts[role.Index()]
}

// AllSubmitted reports whether every role has a pending order.
func (ts *Teams) AllSubmitted() bool {
	return ts.SubmittedCount() == NumRoles
}

// SubmittedCount returns how many roles have a pending order.
func (ts *Teams) SubmittedCount() int {
	n := 0
	for i := range ts {
		if ts[i].HasSubmitted() {
			n++
		}
	}
	return n
}
