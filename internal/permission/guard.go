package permission

// routeCapabilities maps console route paths to the capability that
// gates them. Paths absent from the table are denied.
var routeCapabilities = map[string]string{
	"/dashboard":      "dashboard",
	"/training-plans": "training",
	"/modules":        "modules",
	"/simulations":    "simulations",
	"/assignments":    "assignments",
	"/teams":          "teams",
	"/users":          "users",
	"/tags":           "tags",
	"/reports":        "reports",
}

// HasPermission reports whether the flattened permission map grants
// access to the given route path. Unmapped paths are denied.
func HasPermission(flags map[string]bool, path string) bool {
	capability, ok := routeCapabilities[path]
	if !ok {
		return false
	}
	return Granted(flags, capability)
}

// HasCreatePermission reports whether the module's create flag is set.
func HasCreatePermission(flags map[string]bool, module string) bool {
	return Granted(flags, module+createSuffix)
}

// HasUpdatePermission reports whether the module's update flag is set.
func HasUpdatePermission(flags map[string]bool, module string) bool {
	return Granted(flags, module+updateSuffix)
}

// HasDeletePermission reports whether the module's delete flag is set.
func HasDeletePermission(flags map[string]bool, module string) bool {
	return Granted(flags, module+deleteSuffix)
}

// HasWritePermission reports whether any of the module's mutating flags
// is set.
func HasWritePermission(flags map[string]bool, module string) bool {
	return Granted(flags, module+writeSuffix)
}
