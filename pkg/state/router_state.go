package state

// RouterState is the router's shared observable state: the last path the
// router resolved and an arbitrary payload owned by the application.
type RouterState struct {
	Path string
	Data any
}

// InitialRouterState is the value a router starts with.
func InitialRouterState() RouterState {
	return RouterState{Path: "/"}
}

// WithData returns a copy of rs carrying data in place of the old payload.
// The path is preserved.
func (rs RouterState) WithData(data any) RouterState {
	return RouterState{Path: rs.Path, Data: data}
}

// WithPath returns a copy of rs pointing at path. The payload is preserved.
func (rs RouterState) WithPath(path string) RouterState {
	return RouterState{Path: path, Data: rs.Data}
}
