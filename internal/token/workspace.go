package token

import (
	"sort"

	"github.com/trainsphere/consolekit/internal/apperr"
)

// UnknownRole is reported when the selected workspace carries no roles.
const UnknownRole = "Unknown"

// SelectWorkspace picks the workspace the session should operate in.
//
// An explicit preferredID wins whenever the token carries that
// workspace, even if it has no simulator permissions. Otherwise the
// workspaces are scanned in claim-declaration order and the first one
// with a non-empty simulator permission block is selected.
//
// Returns AUTH_NO_WORKSPACE when the token carries no workspace blocks
// at all, and AUTH_NO_VALID_WORKSPACE when blocks exist but none is
// usable.
func SelectWorkspace(decoded *DecodedToken, preferredID string) (*Workspace, error) {
	if len(decoded.Workspaces) == 0 {
		return nil, apperr.New(apperr.CodeNoWorkspace,
			"token carries no workspace block", nil)
	}

	if preferredID != "" {
		for i := range decoded.Workspaces {
			if decoded.Workspaces[i].ID == preferredID {
				return &decoded.Workspaces[i], nil
			}
		}
	}

	for i := range decoded.Workspaces {
		if len(decoded.Workspaces[i].SimulatorPermissions()) > 0 {
			return &decoded.Workspaces[i], nil
		}
	}

	return nil, apperr.New(apperr.CodeNoValidWorkspace,
		"no workspace with simulator permissions",
		map[string]any{"workspaces": len(decoded.Workspaces)})
}

// SelectRole picks the display role for a workspace: the first simulator
// role when present, otherwise the first role across all modules
// (module keys visited in sorted order, for determinism), otherwise
// UnknownRole.
func SelectRole(ws *Workspace) string {
	if roles := ws.Roles[SimulatorModule]; len(roles) > 0 {
		return roles[0]
	}

	modules := make([]string, 0, len(ws.Roles))
	for module := range ws.Roles {
		modules = append(modules, module)
	}
	sort.Strings(modules)

	for _, module := range modules {
		if roles := ws.Roles[module]; len(roles) > 0 {
			return roles[0]
		}
	}
	return UnknownRole
}
