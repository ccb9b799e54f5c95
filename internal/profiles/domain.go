package profiles

import (
	"time"

	"github.com/yonetim/adminpanel/internal/shared"
)

// Profile is the panel-side record attached to an auth user.
type Profile struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Role      shared.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// Me describes the caller together with the UI switches derived from their role.
type Me struct {
	ID           string              `json:"id"`
	Email        string              `json:"email"`
	Role         shared.Role         `json:"role"`
	Capabilities shared.Capabilities `json:"capabilities"`
	Nav          []shared.NavItem    `json:"nav"`
}
