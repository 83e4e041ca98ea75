package permission

// Grant tokens the issuer emits per capability.
const (
	GrantAccess = "ACCESS"
	GrantRead   = "READ"
	GrantCreate = "CREATE"
	GrantUpdate = "UPDATE"
	GrantDelete = "DELETE"
)

// Flag suffixes on flattened capability keys.
const (
	writeSuffix  = "_write"
	createSuffix = "_create"
	updateSuffix = "_update"
	deleteSuffix = "_delete"
)

// Flatten converts a simulator permission block (capability name to raw
// grant list) into the sparse boolean map consumed by the guards.
//
// Only true flags are stored; a missing key means denied. For each
// capability:
//
//	cap         = ACCESS and READ both granted
//	cap_write   = any of CREATE, UPDATE, DELETE granted
//	cap_create  = CREATE granted (likewise _update, _delete)
//
// Grant lists may nest one level (["ACCESS", ["READ"]]); deeper nesting
// is not recognized, matching the issuer's wire format.
func Flatten(simulatorPerms map[string][]any) map[string]bool {
	flags := map[string]bool{}

	for capability, grants := range simulatorPerms {
		hasAccess := hasGrant(grants, GrantAccess)
		hasRead := hasGrant(grants, GrantRead)
		hasCreate := hasGrant(grants, GrantCreate)
		hasUpdate := hasGrant(grants, GrantUpdate)
		hasDelete := hasGrant(grants, GrantDelete)

		if hasAccess && hasRead {
			flags[capability] = true
		}
		if hasCreate || hasUpdate || hasDelete {
			flags[capability+writeSuffix] = true
		}
		if hasCreate {
			flags[capability+createSuffix] = true
		}
		if hasUpdate {
			flags[capability+updateSuffix] = true
		}
		if hasDelete {
			flags[capability+deleteSuffix] = true
		}
	}

	return flags
}

// hasGrant reports whether want appears in the grant list, directly or
// one level nested.
func hasGrant(grants []any, want string) bool {
	for _, grant := range grants {
		switch v := grant.(type) {
		case string:
			if v == want {
				return true
			}
		case []any:
			for _, nested := range v {
				if s, ok := nested.(string); ok && s == want {
					return true
				}
			}
		}
	}
	return false
}

// Granted is the one lookup primitive for flattened permission maps.
// A nil map or missing key is a denial, never a panic. All permission
// checks go through this function rather than indexing the map directly.
func Granted(flags map[string]bool, key string) bool {
	if flags == nil {
		return false
	}
	return flags[key]
}
