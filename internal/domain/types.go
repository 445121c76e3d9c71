package domain

// Variables is the loosely typed bag of values injected into a module at
// load time. Keys are arbitrary; values must be JSON-serializable.
type Variables map[string]any

// Clone returns a shallow copy so callers can overlay values without
// mutating the stored map.
func (v Variables) Clone() Variables {
	out := make(Variables, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
