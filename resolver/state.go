package resolver

// State is a step of a single resolve call.
//
//	Idle ──► Querying ──► Succeeded
//	                 ├──► Exhausted   every receive attempt timed out or carried no A record
//	                 └──► Failed      lock, socket, send or receive I/O failed, or ctx ended
//
// Every terminal state is reached only after the session has been closed.
type State int

const (
	StateIdle State = iota
	StateQuerying
	StateSucceeded
	StateExhausted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQuerying:
		return "querying"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a resolve call.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateExhausted || s == StateFailed
}
