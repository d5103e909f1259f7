// internal/game/settings.go
package game

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Setting keys accepted by Settings.Update. They match the JSON field names.
const (
	KeyMaxRounds               = "maxRounds"
	KeyHoldingCost             = "holdingCost"
	KeyBacklogCost             = "backlogCost"
	KeyInitialStock            = "initialStock"
	KeyInitialIncomingOrder    = "initialIncomingOrder"
	KeyInitialIncomingDelivery = "initialIncomingDelivery"
	KeyDemandSchedule          = "demandSchedule"
)

// IsSettingKey reports whether key names a Settings field.
func IsSettingKey(key string) bool {
	switch key {
	case KeyMaxRounds, KeyHoldingCost, KeyBacklogCost, KeyInitialStock,
		KeyInitialIncomingOrder, KeyInitialIncomingDelivery, KeyDemandSchedule:
		return true
	}
	return false
}

// DemandSchedule maps a 0-based round index to the customer demand starting at that round.
type DemandSchedule map[int]int

// DemandFor returns the customer demand for the given round: the entry at or before round,
// or the earliest entry when none precedes it. An empty schedule yields 0.
func (d DemandSchedule) DemandFor(round int) int {
	if len(d) == 0 {
		return 0
	}
	best, earliest := -1, -1
	for r := range d {
		if r <= round && r > best {
			best = r
		}
		if earliest < 0 || r < earliest {
			earliest = r
		}
	}
	if best < 0 {
		return d[earliest]
	}
	return d[best]
}

// Clone returns an independent copy of the schedule.
func (d DemandSchedule) Clone() DemandSchedule {
	out := make(DemandSchedule, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// String renders the schedule in the "round:demand,round:demand" form accepted by ParseDemandSchedule.
func (d DemandSchedule) String() string {
	rounds := make([]int, 0, len(d))
	for r := range d {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)
	parts := make([]string, len(rounds))
	for i, r := range rounds {
		parts[i] = strconv.Itoa(r) + ":" + strconv.Itoa(d[r])
	}
	return strings.Join(parts, ",")
}

// Settings is the per-game configuration. It is frozen once the game starts,
// except for MaxRounds.
type Settings struct {
	MaxRounds               int            `json:"maxRounds"`
	HoldingCost             float64        `json:"holdingCost"`
	BacklogCost             float64        `json:"backlogCost"`
	InitialStock            int            `json:"initialStock"`
	InitialIncomingOrder    int            `json:"initialIncomingOrder"`
	InitialIncomingDelivery int            `json:"initialIncomingDelivery"`
	DemandSchedule          DemandSchedule `json:"demandSchedule"`
}

// DefaultSettings returns the classic configuration:
//
//   - 40 rounds
//   - holding cost 0.5, backlog cost 1.0 per unit per round
//   - 15 units of initial stock
//   - both pipelines seeded with 5 units per slot
//   - demand 5 for rounds 0-3, then 10
func DefaultSettings() Settings {
	return Settings{
		MaxRounds:               40,
		HoldingCost:             0.5,
		BacklogCost:             1.0,
		InitialStock:            15,
		InitialIncomingOrder:    5,
		InitialIncomingDelivery: 5,
		DemandSchedule:          DemandSchedule{0: 5, 4: 10},
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	s.DemandSchedule = s.DemandSchedule.Clone()
	return s
}

// Validate checks every field against its lower bound.
func (s Settings) Validate() error {
	if s.MaxRounds < 1 {
		return Errorf(KindInvalidSettings, "maxRounds must be at least 1")
	}
	if !validCost(s.HoldingCost) {
		return Errorf(KindInvalidSettings, "holdingCost must be a non-negative number")
	}
	if !validCost(s.BacklogCost) {
		return Errorf(KindInvalidSettings, "backlogCost must be a non-negative number")
	}
	if s.InitialStock < 0 || s.InitialIncomingOrder < 0 || s.InitialIncomingDelivery < 0 {
		return Errorf(KindInvalidSettings, "initial stock and pipeline values must be non-negative")
	}
	if len(s.DemandSchedule) == 0 {
		return Errorf(KindInvalidSettings, "demandSchedule must have at least one entry")
	}
	for r, d := range s.DemandSchedule {
		if r < 0 || d < 0 {
			return Errorf(KindInvalidSettings, "demandSchedule entries must be non-negative")
		}
	}
	return nil
}

func validCost(c float64) bool {
	return c >= 0 && !math.IsInf(c, 0) && !math.IsNaN(c)
}

// Update applies the keys present in newSettings onto s. Missing or nil keys keep their
// old value; unknown keys are ignored. On error s may be partially updated, so callers
// that need all-or-nothing semantics should use ParseSettings.
func (s *Settings) Update(newSettings map[string]interface{}) error {
	assignInt := func(field *int, key string, minVal int) error {
		val, exists := newSettings[key]
		if !exists || val == nil {
			return nil
		}
		n, err := toInt(val)
		if err != nil {
			return Errorf(KindInvalidSettings, "invalid value for %s: %v", key, err)
		}
		if n < minVal {
			return Errorf(KindInvalidSettings, "%s must be at least %d", key, minVal)
		}
		*field = n
		return nil
	}

	assignFloat := func(field *float64, key string) error {
		val, exists := newSettings[key]
		if !exists || val == nil {
			return nil
		}
		f, err := toFloat(val)
		if err != nil {
			return Errorf(KindInvalidSettings, "invalid value for %s: %v", key, err)
		}
		if !validCost(f) {
			return Errorf(KindInvalidSettings, "%s must be a non-negative number", key)
		}
		*field = f
		return nil
	}

	if err := assignInt(&s.MaxRounds, KeyMaxRounds, 1); err != nil {
		return err
	}
	if err := assignFloat(&s.HoldingCost, KeyHoldingCost); err != nil {
		return err
	}
	if err := assignFloat(&s.BacklogCost, KeyBacklogCost); err != nil {
		return err
	}
	if err := assignInt(&s.InitialStock, KeyInitialStock, 0); err != nil {
		return err
	}
	if err := assignInt(&s.InitialIncomingOrder, KeyInitialIncomingOrder, 0); err != nil {
		return err
	}
	if err := assignInt(&s.InitialIncomingDelivery, KeyInitialIncomingDelivery, 0); err != nil {
		return err
	}
	if raw, exists := newSettings[KeyDemandSchedule]; exists && raw != nil {
		schedule, err := ParseDemandSchedule(raw)
		if err != nil {
			return err
		}
		s.DemandSchedule = schedule
	}
	return nil
}

// ParseSettings applies newSettings to a copy of current and validates the result.
func ParseSettings(newSettings map[string]interface{}, current Settings) (Settings, error) {
	settings := current.Clone()
	if err := settings.Update(newSettings); err != nil {
		return current, err
	}
	if err := settings.Validate(); err != nil {
		return current, err
	}
	return settings, nil
}

// ParseDemandSchedule accepts the three shapes clients send:
//
//	"0:5,4:10"
//	[{"round": 0, "demand": 5}, {"round": 4, "demand": 10}]
//	{"0": 5, "4": 10}
//
// A DemandSchedule or map[int]int is copied as is.
func ParseDemandSchedule(raw interface{}) (DemandSchedule, error) {
	out := DemandSchedule{}
	add := func(roundVal, demandVal interface{}) error {
		r, err := toInt(roundVal)
		if err != nil || r < 0 {
			return Errorf(KindInvalidSettings, "invalid demand schedule round %v", roundVal)
		}
		d, err := toInt(demandVal)
		if err != nil || d < 0 {
			return Errorf(KindInvalidSettings, "invalid demand for round %d: %v", r, demandVal)
		}
		out[r] = d
		return nil
	}

	switch v := raw.(type) {
	case DemandSchedule:
		out = v.Clone()
	case map[int]int:
		out = DemandSchedule(v).Clone()
	case string:
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			left, right, ok := strings.Cut(part, ":")
			if !ok {
				return nil, Errorf(KindInvalidSettings, "demand schedule entry %q must look like round:demand", part)
			}
			if err := add(strings.TrimSpace(left), strings.TrimSpace(right)); err != nil {
				return nil, err
			}
		}
	case []interface{}:
		for _, item := range v {
			entry, ok := item.(map[string]interface{})
			if !ok {
				return nil, Errorf(KindInvalidSettings, "demand schedule entries must be objects")
			}
			if err := add(entry["round"], entry["demand"]); err != nil {
				return nil, err
			}
		}
	case map[string]interface{}:
		for k, d := range v {
			if err := add(k, d); err != nil {
				return nil, err
			}
		}
	default:
		return nil, Errorf(KindInvalidSettings, "unsupported demand schedule format %T", raw)
	}

	for r, d := range out {
		if r < 0 || d < 0 {
			return nil, Errorf(KindInvalidSettings, "demandSchedule entries must be non-negative")
		}
	}
	if len(out) == 0 {
		return nil, Errorf(KindInvalidSettings, "demandSchedule must have at least one entry")
	}
	return out, nil
}

// toInt converts a decoded JSON value to an integer. Fractional numbers are rejected.
func toInt(val interface{}) (int, error) {
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, strconv.ErrSyntax
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, strconv.ErrSyntax
	}
}

// toFloat converts a decoded JSON value to a float64.
func toFloat(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, strconv.ErrSyntax
	}
}

// ParseOrderQuantity converts a decoded JSON order value to a quantity, failing with
// InvalidOrder for anything that is not a non-negative integer.
func ParseOrderQuantity(val interface{}) (int, error) {
	if val == nil {
		return 0, ErrInvalidOrder
	}
	n, err := toInt(val)
	if err != nil || n < 0 {
		return 0, ErrInvalidOrder
	}
	return n, nil
}
