package shared

import "strings"

// Role is the privilege level stored on a profile.
type Role string

const (
	// RoleNone marks a missing or unreadable profile.
	RoleNone       Role = ""
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// ParseRole normalises a stored role value. Unknown values map to RoleNone.
func ParseRole(value string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleUser:
		return RoleUser
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperadmin:
		return RoleSuperadmin
	default:
		return RoleNone
	}
}

// IsAdminTier reports whether the role may enter the admin area.
func (r Role) IsAdminTier() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// IsSuperadmin reports whether the role may enter superadmin-only sections.
func (r Role) IsSuperadmin() bool {
	return r == RoleSuperadmin
}

func (r Role) String() string {
	return string(r)
}

// Identity is an authenticated actor resolved from session credentials.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
