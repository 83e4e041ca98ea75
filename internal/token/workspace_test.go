package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainsphere/consolekit/internal/apperr"
)

func workspaceFixture() *DecodedToken {
	return &DecodedToken{
		Workspaces: []Workspace{
			{
				ID:          "A",
				Roles:       map[string][]string{"simulator": {"Trainee"}},
				Permissions: map[string]map[string][]any{},
			},
			{
				ID:    "B",
				Roles: map[string][]string{"simulator": {"Manager"}},
				Permissions: map[string]map[string][]any{
					"simulator": {"training": {"ACCESS", "READ"}},
				},
			},
		},
	}
}

func TestSelectWorkspace_AutoSelectsFirstWithSimulatorPermissions(t *testing.T) {
	decoded := workspaceFixture()

	ws, err := SelectWorkspace(decoded, "")
	require.NoError(t, err)
	assert.Equal(t, "B", ws.ID, "A has no simulator permissions, B does")
}

func TestSelectWorkspace_ExplicitPreferenceWins(t *testing.T) {
	decoded := workspaceFixture()

	ws, err := SelectWorkspace(decoded, "A")
	require.NoError(t, err)
	assert.Equal(t, "A", ws.ID, "explicit preference wins even without permissions")
}

func TestSelectWorkspace_UnknownPreferenceFallsBackToScan(t *testing.T) {
	decoded := workspaceFixture()

	ws, err := SelectWorkspace(decoded, "missing")
	require.NoError(t, err)
	assert.Equal(t, "B", ws.ID)
}

func TestSelectWorkspace_NoWorkspaces(t *testing.T) {
	_, err := SelectWorkspace(&DecodedToken{}, "")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeNoWorkspace))
}

func TestSelectWorkspace_NoValidWorkspace(t *testing.T) {
	decoded := &DecodedToken{
		Workspaces: []Workspace{
			{ID: "A", Roles: map[string][]string{}, Permissions: map[string]map[string][]any{}},
		},
	}

	_, err := SelectWorkspace(decoded, "")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeNoValidWorkspace))
}

func TestSelectRole(t *testing.T) {
	tests := []struct {
		name  string
		roles map[string][]string
		want  string
	}{
		{
			name:  "simulator role preferred",
			roles: map[string][]string{"simulator": {"Manager", "Trainee"}, "admin": {"Root"}},
			want:  "Manager",
		},
		{
			name:  "fallback to first module in sorted order",
			roles: map[string][]string{"reporting": {"Viewer"}, "admin": {"Root"}},
			want:  "Root",
		},
		{
			name:  "empty simulator list skipped",
			roles: map[string][]string{"simulator": {}, "reporting": {"Viewer"}},
			want:  "Viewer",
		},
		{
			name:  "no roles at all",
			roles: map[string][]string{},
			want:  UnknownRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role := SelectRole(&Workspace{ID: "ws", Roles: tt.roles})
			assert.Equal(t, tt.want, role)
		})
	}
}
