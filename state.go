package xr

import "github.com/gogpu/xr/runtime"

// LifeExpectancy is the session layer's verdict after handling a state
// change: whether the owner should keep the Session or destroy it. The
// state machine never destroys itself.
type LifeExpectancy int

const (
	// SessionKeepAlive: the session stays usable.
	SessionKeepAlive LifeExpectancy = iota
	// SessionDestroy: the session is done; the owner must call Destroy.
	SessionDestroy
)

// stateActions is the side-effect set a state transition demands of the
// session. At most one of these is set per transition.
type stateActions struct {
	// beginSession: tell the runtime rendering is about to start.
	beginSession bool
	// endSession: the runtime has decided to stop; local cleanup must
	// happen now so it can proceed to exiting.
	endSession bool
	// destroy: terminal state reached, report SessionDestroy to the owner.
	destroy bool
}

// transition computes the state a session moves to when the runtime reports
// next, together with the side effects the owner of the state machine must
// perform. It is a pure function over the two states, independent of how
// events are delivered, so it can be exercised without a device runtime.
//
// A repeated state is absorbed with no actions: the runtime's decisions are
// one-shot and replaying them (ending an already ended session, beginning a
// running one) would violate the protocol.
func transition(current, next runtime.SessionState) (runtime.SessionState, stateActions) {
	if next == current {
		return next, stateActions{}
	}

	var actions stateActions
	switch next {
	case runtime.StateReady:
		actions.beginSession = true
	case runtime.StateStopping:
		actions.endSession = true
	case runtime.StateExiting, runtime.StateLossPending:
		actions.destroy = true
	}
	return next, actions
}
