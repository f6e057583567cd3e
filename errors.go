package xr

import (
	"errors"
	"fmt"
)

// Error taxonomy. Configuration errors are API misuse and should be caught
// during development; the device/format/driver errors are environment
// mismatches that abort a session start and carry a user-facing description.
// Nothing here is retried automatically.
var (
	// ErrConfiguration is returned for API misuse: a missing callback,
	// or operations called out of order.
	ErrConfiguration = errors.New("xr: invalid API usage")

	// ErrDeviceNotFound is returned when the runtime has no compatible
	// device.
	ErrDeviceNotFound = errors.New("xr: no compatible device found")

	// ErrUnsupportedFormat is returned when the runtime and the graphics
	// binding share no swapchain image format.
	ErrUnsupportedFormat = errors.New("xr: no supported swapchain format")

	// ErrIncompatibleDriver is returned when the graphics context does not
	// meet the runtime's version requirements.
	ErrIncompatibleDriver = errors.New("xr: graphics driver does not meet runtime requirements")
)

// RuntimeCallError is a device-runtime protocol call that failed. It pairs
// a user-facing description of what the session was doing with the
// underlying runtime error, which carries the originating status code.
type RuntimeCallError struct {
	// Msg describes the failed operation for the user.
	Msg string
	// Err is the underlying runtime error, typically a *runtime.CallError.
	Err error
}

func (e *RuntimeCallError) Error() string {
	return fmt.Sprintf("xr: %s: %v", e.Msg, e.Err)
}

func (e *RuntimeCallError) Unwrap() error { return e.Err }

// runtimeCall wraps a failed runtime call with a user-facing description.
// Returns nil when err is nil, so call sites stay one line.
func runtimeCall(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &RuntimeCallError{Msg: msg, Err: err}
}
