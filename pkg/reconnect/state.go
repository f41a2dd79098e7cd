package reconnect

// State is the connection state of a supervised channel.
type State int

const (
	// StateDisconnected is the initial state and the terminal state after
	// Stop; no automatic reconnection happens from it.
	StateDisconnected State = iota
	// StateConnecting means an open attempt is in progress. At most one
	// attempt exists at any time.
	StateConnecting
	// StateConnected means the subscription is acknowledged and events flow.
	StateConnected
	// StateBackoff means the last attempt or connection failed and the
	// supervisor is waiting out the retry delay.
	StateBackoff
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}
