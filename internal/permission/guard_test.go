package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	flags := map[string]bool{"training": true, "dashboard": true}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "mapped path with flag", path: "/training-plans", want: true},
		{name: "dashboard", path: "/dashboard", want: true},
		{name: "mapped path without flag", path: "/users", want: false},
		{name: "unmapped path", path: "/settings", want: false},
		{name: "empty path", path: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(flags, tt.path))
		})
	}
}

func TestActionGuards(t *testing.T) {
	flags := Flatten(map[string][]any{
		"training": {"CREATE", "UPDATE"},
	})

	assert.True(t, HasCreatePermission(flags, "training"))
	assert.True(t, HasUpdatePermission(flags, "training"))
	assert.False(t, HasDeletePermission(flags, "training"))
	assert.True(t, HasWritePermission(flags, "training"))

	assert.False(t, HasCreatePermission(flags, "users"))
	assert.False(t, HasWritePermission(nil, "training"))
}
