package session

// State is the lifecycle state of the local session.
type State int

const (
	// StateUnauthenticated means there is no usable token.
	StateUnauthenticated State = iota

	// StateAuthenticated means a token outside the refresh buffer is stored.
	StateAuthenticated

	// StateRefreshing means a refresh is in flight.
	StateRefreshing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}
