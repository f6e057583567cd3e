package xr

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gogpu/xr/binding"
	"github.com/gogpu/xr/runtime"
)

// Option configures a Session during creation.
//
// Example:
//
//	sess, err := xr.NewSession(rt,
//	    xr.WithGraphicsBinding(binding.TypeWGPU),
//	    xr.WithGraphicsContextBinder(bind, unbind),
//	    xr.WithViewRenderer(render),
//	    xr.WithDebugTimes(true),
//	)
type Option func(*sessionOptions)

// sessionOptions holds optional configuration for Session creation.
type sessionOptions struct {
	bindingType binding.Type
	gfxBinding  binding.GraphicsBinding

	bindFn   BindGraphicsContextFn
	unbindFn UnbindGraphicsContextFn
	renderFn RenderViewFn

	debugTimes       bool
	clock            clockwork.Clock
	imageWaitTimeout time.Duration
}

// defaultOptions returns the default session options.
func defaultOptions() sessionOptions {
	return sessionOptions{
		bindingType:      binding.TypeWGPU,
		clock:            clockwork.NewRealClock(),
		imageWaitTimeout: runtime.InfiniteDuration,
	}
}

// WithGraphicsBinding selects the graphics binding type the session creates
// at Start. The default is binding.TypeWGPU.
func WithGraphicsBinding(t binding.Type) Option {
	return func(o *sessionOptions) {
		o.bindingType = t
	}
}

// WithBinding injects a ready-made graphics binding instance, overriding
// WithGraphicsBinding. Use this for bindings that carry construction state
// (the wgpu binding's device identity) or for test doubles.
func WithBinding(b binding.GraphicsBinding) Option {
	return func(o *sessionOptions) {
		o.gfxBinding = b
		if b != nil {
			o.bindingType = b.Type()
		}
	}
}

// WithGraphicsContextBinder sets the callbacks that bind and unbind the
// graphics context around the session's lifetime. The bind callback is
// required before Start; the unbind callback is optional.
func WithGraphicsContextBinder(bind BindGraphicsContextFn, unbind UnbindGraphicsContextFn) Option {
	return func(o *sessionOptions) {
		o.bindFn = bind
		o.unbindFn = unbind
	}
}

// WithViewRenderer sets the callback that renders one view per frame.
// Required before Draw.
func WithViewRenderer(render RenderViewFn) Option {
	return func(o *sessionOptions) {
		o.renderFn = render
	}
}

// WithDebugTimes enables per-frame render timing. When enabled, the session
// measures each frame and logs a rolling average over the last few frames
// at debug level. Checked at run time, not compiled in or out.
func WithDebugTimes(enabled bool) Option {
	return func(o *sessionOptions) {
		o.debugTimes = enabled
	}
}

// WithClock injects the clock used for frame timing. Tests pass a
// clockwork fake clock; the default is the real clock.
func WithClock(c clockwork.Clock) Option {
	return func(o *sessionOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithSwapchainImageTimeout bounds the per-view wait for swapchain image
// availability. The default is runtime.InfiniteDuration, matching the
// established behavior of waiting without bound on a wedged runtime; set a
// timeout to turn that hang into a RuntimeCallError carrying
// runtime.ResultTimeoutExpired.
func WithSwapchainImageTimeout(d time.Duration) Option {
	return func(o *sessionOptions) {
		o.imageWaitTimeout = d
	}
}
