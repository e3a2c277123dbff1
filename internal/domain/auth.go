package domain

// Identity is the resolved caller derived from a valid bearer token.
// It is passed explicitly into service calls; there is no ambient
// session state.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   Role
}

// HasRole reports whether the identity holds one of the allowed roles.
// An empty allow-list means any authenticated identity passes.
func (i Identity) HasRole(allowed ...Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, role := range allowed {
		if i.Role == role {
			return true
		}
	}
	return false
}
