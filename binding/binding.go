// Package binding bridges a device runtime's swapchain model to a host
// graphics API: it negotiates image formats, validates driver requirements,
// wraps runtime-owned images into host texture objects, and submits rendered
// view data into them.
package binding

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr/runtime"
)

// Common binding errors.
var (
	// ErrUnknownType is returned when no binding implementation exists for
	// the requested type.
	ErrUnknownType = errors.New("binding: unknown graphics binding type")

	// ErrNotInitialized is returned when operations are called before
	// InitFromContext.
	ErrNotInitialized = errors.New("binding: not initialized")

	// ErrNeedsConstruction is returned by New for binding types that carry
	// construction state and must be built from their own package.
	ErrNeedsConstruction = errors.New("binding: binding type requires explicit construction")
)

// Type selects a graphics binding implementation.
type Type int

const (
	// TypeUnknown is the zero value and selects nothing.
	TypeUnknown Type = iota
	// TypeWGPU binds through the pure-Go WebGPU stack.
	TypeWGPU
	// TypeSoftware accepts every format and discards submissions. Useful
	// with the headless runtime and in tests.
	TypeSoftware
)

func (t Type) String() string {
	switch t {
	case TypeWGPU:
		return "wgpu"
	case TypeSoftware:
		return "software"
	}
	return "unknown"
}

// GraphicsBinding adapts one host graphics API to the runtime's swapchain
// protocol. A binding is created per session, initialized from the borrowed
// graphics context at session start, and discarded with the session.
//
// Bindings hold no runtime handles; the session layer owns those.
type GraphicsBinding interface {
	// Type returns the binding's type.
	Type() Type

	// CheckVersionRequirements reports whether the graphics context meets
	// the runtime's version constraints. When it does not, the returned
	// string names the unmet requirement for user-facing error messages.
	CheckVersionRequirements(provider gpucontext.DeviceProvider, reqs runtime.GraphicsRequirements) (ok bool, requirement string)

	// InitFromContext prepares the binding from the borrowed graphics
	// context. Must be called before any swapchain operation.
	InitFromContext(provider gpucontext.DeviceProvider) error

	// SessionGraphicsBinding returns the binding-specific payload handed
	// to Runtime.CreateSession.
	SessionGraphicsBinding() any

	// ChooseSwapchainFormat picks a mutually supported format from the
	// runtime-provided candidates, which are ordered by runtime
	// preference. ok is false when no candidate is usable.
	ChooseSwapchainFormat(candidates []gputypes.TextureFormat) (format gputypes.TextureFormat, ok bool)

	// WrapSwapchainImages narrows runtime-owned images into host texture
	// objects the binding can submit into. The returned slice is parallel
	// to images.
	WrapSwapchainImages(images []runtime.SwapchainImage) ([]any, error)

	// SubmitToSwapchain copies one rendered view into an acquired
	// swapchain image. data holds the view's pixels in the negotiated
	// format, tightly packed.
	SubmitToSwapchain(image any, data []byte) error
}

// New creates a graphics binding of the given type. It only covers bindings
// that need no construction parameters: TypeWGPU bindings carry device
// identity and are constructed via the wgpu subpackage, then injected with
// WithBinding.
func New(t Type) (GraphicsBinding, error) {
	switch t {
	case TypeSoftware:
		return NewSoftware(), nil
	case TypeWGPU:
		return nil, fmt.Errorf("%w: construct a wgpu binding with the wgpu subpackage "+
			"and inject it with WithBinding", ErrNeedsConstruction)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}
