package runtime

import "fmt"

// Result is a runtime status code. Failed protocol calls carry one inside a
// *CallError so callers can tell environment failures apart from protocol
// misuse without string matching.
type Result int

const (
	// ResultSuccess is never carried by an error.
	ResultSuccess Result = iota
	// ResultTimeoutExpired: a bounded wait elapsed before completion.
	ResultTimeoutExpired
	// ResultRuntimeFailure: the runtime failed internally.
	ResultRuntimeFailure
	// ResultHandleInvalid: a handle does not name a live object.
	ResultHandleInvalid
	// ResultCallOrderInvalid: a call violated the protocol's required
	// ordering (e.g. releasing a swapchain image that was never acquired).
	ResultCallOrderInvalid
	// ResultFormFactorUnavailable: no device of the requested form factor
	// is connected.
	ResultFormFactorUnavailable
	// ResultSessionNotRunning: a frame call arrived outside a running
	// session.
	ResultSessionNotRunning
	// ResultLimitReached: a runtime resource limit was hit.
	ResultLimitReached
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultTimeoutExpired:
		return "timeout expired"
	case ResultRuntimeFailure:
		return "runtime failure"
	case ResultHandleInvalid:
		return "handle invalid"
	case ResultCallOrderInvalid:
		return "call order invalid"
	case ResultFormFactorUnavailable:
		return "form factor unavailable"
	case ResultSessionNotRunning:
		return "session not running"
	case ResultLimitReached:
		return "limit reached"
	}
	return fmt.Sprintf("result(%d)", int(r))
}

// CallError is a failed runtime protocol call.
type CallError struct {
	Result Result
	Desc   string
}

func (e *CallError) Error() string {
	if e.Desc == "" {
		return e.Result.String()
	}
	return fmt.Sprintf("%s (%s)", e.Desc, e.Result)
}

// Errorf builds a CallError with a formatted description.
func Errorf(result Result, format string, args ...any) *CallError {
	return &CallError{Result: result, Desc: fmt.Sprintf(format, args...)}
}
