// internal/game/resolver.go
package game

import "slices"

// RoundRecord captures one resolved round across all four teams.
type RoundRecord struct {
	Round          int                       `json:"round"`
	CustomerDemand int                       `json:"customerDemand"`
	Teams          [NumRoles]TeamRoundRecord `json:"teams"`
}

// Team returns the record of role within the round.
func (r RoundRecord) Team(role Role) TeamRoundRecord {
	return r.Teams[role.Index()]
}

// Resolve advances every team by one round using the orders pending on each team.
//
// It is a pure function of its inputs: teams is not modified, and the returned Teams carry
// the new stock, backlog, cost, pipelines and history with all pending orders cleared.
// Every incoming order and delivery is read from the pipelines as they were at the start of
// the round. Orders then move one step upstream and shipments one step downstream; Factory's
// order feeds its own delivery pipeline.
func Resolve(teams Teams, settings Settings, round int) (Teams, RoundRecord, error) {
	for i := range teams {
		if teams[i].PendingOrder == nil {
			return teams, RoundRecord{}, Errorf(KindWrongPhase, "round %d cannot resolve: %s has not ordered", round, Roles[i])
		}
	}

	demand := settings.DemandSchedule.DemandFor(round)
	next := teams
	rec := RoundRecord{Round: round, CustomerDemand: demand}

	for i, role := range Roles {
		t := &next[i]

		incomingOrder := demand
		if role != Retailer {
			incomingOrder = t.OrderPipeline.Head()
		}
		incomingDelivery := t.DeliveryPipeline.Head()

		available := t.Stock + incomingDelivery
		owed := t.Backlog + incomingOrder
		outgoing := min(available, owed)

		t.Stock = available - outgoing
		t.Backlog = owed - outgoing
		cost := float64(t.Stock)*settings.HoldingCost + float64(t.Backlog)*settings.BacklogCost
		t.TotalCost += cost

		rec.Teams[i] = TeamRoundRecord{
			Round:            round,
			Role:             role,
			IncomingOrder:    incomingOrder,
			IncomingDelivery: incomingDelivery,
			OutgoingDelivery: outgoing,
			PlacedOrder:      *teams[i].PendingOrder,
			StockAfter:       t.Stock,
			BacklogAfter:     t.Backlog,
			RoundCost:        cost,
			TotalCost:        t.TotalCost,
		}
	}

	for i, role := range Roles {
		placed := rec.Teams[i].PlacedOrder
		if up, ok := role.Upstream(); ok {
			next.Get(up).OrderPipeline.Shift(placed)
		} else {
			next[i].DeliveryPipeline.Shift(placed)
		}
		// Retailer ships to the end customer, which keeps no pipeline.
		if down, ok := role.Downstream(); ok {
			next.Get(down).DeliveryPipeline.Shift(rec.Teams[i].OutgoingDelivery)
		}
	}

	for i := range next {
		next[i].PendingOrder = nil
		next[i].History = append(slices.Clip(teams[i].History), rec.Teams[i])
	}
	return next, rec, nil
}
