// internal/game/role.go
package game

import "strings"

// Role is one of the four nodes of the supply chain.
type Role string

const (
	Retailer    Role = "Retailer"
	Wholesaler  Role = "Wholesaler"
	Distributor Role = "Distributor"
	Factory     Role = "Factory"
)

// NumRoles is the number of teams in a game.
const NumRoles = 4

// Roles lists every role from the customer side up to the factory. Resolution
// walks the chain in this order.
var Roles = [NumRoles]Role{Retailer, Wholesaler, Distributor, Factory}

// Index returns the position of r in Roles, or -1 when r is not a role.
func (r Role) Index() int {
	for i, role := range Roles {
		if role == r {
			return i
		}
	}
	return -1
}

// Valid reports whether r names one of the four roles.
func (r Role) Valid() bool {
	return r.Index() >= 0
}

// Upstream returns the supplier of r. Factory has no upstream neighbor.
func (r Role) Upstream() (Role, bool) {
	i := r.Index()
	if i < 0 || i == NumRoles-1 {
		return "", false
	}
	return Roles[i+1], true
}

// Downstream returns the customer of r. Retailer sells to the end customer and has none.
func (r Role) Downstream() (Role, bool) {
	i := r.Index()
	if i <= 0 {
		return "", false
	}
	return Roles[i-1], true
}

// ParseRole matches s against the role names case-insensitively.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, role := range Roles {
		if strings.EqualFold(s, string(role)) {
			return role, nil
		}
	}
	return "", Errorf(KindInvalidRole, "invalid team %q", s)
}
