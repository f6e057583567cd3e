package runtime

// SessionState is the lifecycle state of a session as reported by the
// device runtime. The runtime owns these transitions; the session layer
// only reacts to them.
type SessionState int

const (
	// StateUnknown means no state change has been observed yet.
	StateUnknown SessionState = iota
	// StateIdle: the session exists but the runtime is not ready for
	// frame submission.
	StateIdle
	// StateReady: the runtime wants the application to begin the session
	// and start its frame loop.
	StateReady
	// StateSynchronized: the frame loop is synchronized with the display,
	// frames are not yet visible.
	StateSynchronized
	// StateVisible: submitted frames are shown to the user.
	StateVisible
	// StateFocused: visible, and the session receives input.
	StateFocused
	// StateStopping: the runtime has decided to stop the session; the
	// application must end it before the runtime proceeds.
	StateStopping
	// StateLossPending: the runtime is about to lose the session (device
	// disconnect, runtime shutdown). Terminal.
	StateLossPending
	// StateExiting: the session has ended and should be destroyed.
	// Terminal.
	StateExiting
)

// Running reports whether the state is one of the running set, i.e. the
// frame loop may be driven.
func (s SessionState) Running() bool {
	switch s {
	case StateReady, StateSynchronized, StateVisible, StateFocused:
		return true
	}
	return false
}

func (s SessionState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateSynchronized:
		return "synchronized"
	case StateVisible:
		return "visible"
	case StateFocused:
		return "focused"
	case StateStopping:
		return "stopping"
	case StateLossPending:
		return "loss-pending"
	case StateExiting:
		return "exiting"
	}
	return "invalid"
}
