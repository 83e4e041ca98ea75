package token

import (
	"time"
)

// SimulatorModule is the module whose permission block drives workspace
// auto-selection and permission flattening.
const SimulatorModule = "simulator"

// Workspace is one workspace block from the token payload: a top-level
// object claim that carries a roles field. The workspace identifier is
// the claim key itself.
type Workspace struct {
	// ID is the workspace identifier (the claim key)
	ID string

	// Roles maps module name to the role names granted in that module
	Roles map[string][]string

	// Permissions maps module name to capability name to the raw grant
	// list. Grant entries are kept as decoded JSON values because the
	// issuer emits both plain strings ("ACCESS") and one-level nested
	// arrays of strings; the permission resolver handles both.
	Permissions map[string]map[string][]any
}

// SimulatorPermissions returns the workspace's simulator module
// permission block, or nil if the module has no entries.
func (w *Workspace) SimulatorPermissions() map[string][]any {
	return w.Permissions[SimulatorModule]
}

// DecodedToken is the parsed payload of a bearer token. It is ephemeral:
// derived per decode and discarded once the session state is built.
type DecodedToken struct {
	// Subject is the sub claim
	Subject string

	// UserID is the user_id claim
	UserID string

	// Profile claims; empty when absent from the payload
	Email           string
	FirstName       string
	LastName        string
	Division        string
	Department      string
	ProfileImageURL string

	// IssuedAt is the iat claim; zero when absent
	IssuedAt time.Time

	// ExpiresAt is the exp claim
	ExpiresAt time.Time

	// Workspaces holds every workspace block in claim-declaration
	// order. The auto-selection scan depends on this order.
	Workspaces []Workspace
}

// ValidAt reports whether the token is unexpired at the given instant.
func (d *DecodedToken) ValidAt(now time.Time) bool {
	return now.Before(d.ExpiresAt)
}

// DisplayName joins the first and last name claims.
func (d *DecodedToken) DisplayName() string {
	switch {
	case d.FirstName == "":
		return d.LastName
	case d.LastName == "":
		return d.FirstName
	default:
		return d.FirstName + " " + d.LastName
	}
}
