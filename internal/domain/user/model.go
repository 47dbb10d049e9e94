package user

// Role gates which operations a caller may perform.
type Role string

const (
	RoleOperator Role = "operator"
	RoleIngestor Role = "ingestor"
	RoleVerifier Role = "verifier"
	RoleAdmin    Role = "admin"
)

// Principal is the externally verified identity of a caller.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

// HasAnyRole reports whether the principal may act under one of roles. Admins
// may act under every role.
func (p Principal) HasAnyRole(roles ...Role) bool {
	if p.Role == RoleAdmin {
		return true
	}
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}
