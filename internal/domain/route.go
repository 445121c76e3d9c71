package domain

// ResolvedRoute is the ephemeral result of mapping a request path onto an
// active module. It is computed per request and never persisted.
type ResolvedRoute struct {
	ModuleName string
	Source     string
	Integrity  string
	Version    string
	Variables  Variables
}
