package engine

// ConnectionState is the single canonical field tracking where a session
// is in its lifecycle. Earlier source material for this engine carried
// two differently-spelled fields for this value, which would reference
// an attribute that was never assigned; this engine deliberately keeps
// exactly one.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnected
	StateLoggedIn
	StateLoggedOut
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnected:
		return "Connected"
	case StateLoggedIn:
		return "LoggedIn"
	case StateLoggedOut:
		return "LoggedOut"
	default:
		return "Unknown"
	}
}

// ConnectionState returns the current connection state.
func (e *Engine) ConnectionState() ConnectionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connState
}

func (e *Engine) setState(s ConnectionState) {
	e.mu.Lock()
	prev := e.connState
	e.connState = s
	stats := e.stats
	e.mu.Unlock()
	if stats != nil {
		stats.ConnectionState.Set(float64(s))
	}
	if prev != s {
		e.sessionLog.Infof("state transition: %s -> %s", prev, s)
	}
}
