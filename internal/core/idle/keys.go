package idle

// ActivityKeys is the allow-list of key names treated as user activity by the
// fallback tracker. Names follow fyne.KeyName.
var ActivityKeys = map[string]struct{}{
	"Space":    {},
	"Return":   {},
	"Escape":   {},
	"Tab":      {},
	"Up":       {},
	"Down":     {},
	"Left":     {},
	"Right":    {},
	"S":        {},
	"P":        {},
	"R":        {},
	"F5":       {},
	"PageUp":   {},
	"PageDown": {},
}

// IsActivityKey reports whether name is in ActivityKeys.
func IsActivityKey(name string) bool {
	_, ok := ActivityKeys[name]
	return ok
}
