package session

import (
	"github.com/trainsphere/consolekit/internal/permission"
	"github.com/trainsphere/consolekit/internal/token"
)

// User is the session's view of the authenticated person. It is built
// from a decoded token and replaced wholesale on every decode; callers
// must treat it as immutable.
type User struct {
	ID              string
	Email           string
	Name            string
	Role            string
	Division        string
	Department      string
	ProfileImageURL string
	WorkspaceID     string

	// Permissions is the flattened capability map. Missing keys mean
	// denied; read it through the permission package guards.
	Permissions map[string]bool
}

// NewUser derives a User from a decoded token and its selected
// workspace.
func NewUser(decoded *token.DecodedToken, ws *token.Workspace) *User {
	return &User{
		ID:              decoded.UserID,
		Email:           decoded.Email,
		Name:            decoded.DisplayName(),
		Role:            token.SelectRole(ws),
		Division:        decoded.Division,
		Department:      decoded.Department,
		ProfileImageURL: decoded.ProfileImageURL,
		WorkspaceID:     ws.ID,
		Permissions:     permission.Flatten(ws.SimulatorPermissions()),
	}
}
