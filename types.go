package xr

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/xr/binding"
	"github.com/gogpu/xr/runtime"
)

// BeginInfo parameterizes Session.Start.
type BeginInfo struct {
	// BasePose is where the session's reference space should be anchored.
	// It is recorded but not yet applied: the reference space is always a
	// fixed local-origin space for now, a known limitation. See
	// Session.BasePose.
	BasePose runtime.Pose
}

// DrawViewInfo describes one view of one frame to the host's render
// callback: where the eye is, what it sees, and where in the swapchain
// image the result lands.
type DrawViewInfo struct {
	// Pose is the view's position and orientation in the session's
	// reference space.
	Pose runtime.Pose

	// FOV is the view's field of view.
	FOV runtime.FOV

	// X, Y, Width, Height is the viewport within the swapchain image.
	X, Y          int32
	Width, Height int32

	// ExpectsSRGBBuffer is set when the runtime needs the rendered buffer
	// in sRGB encoding to composite correctly. Driven by per-runtime
	// quirks, not by the negotiated format.
	ExpectsSRGBBuffer bool
}

// RenderViewFn renders one view. It returns the rendered pixels in the
// negotiated swapchain format, tightly packed, Width*Height sized per
// DrawViewInfo. customData is the value passed to Session.Draw, opaque to
// the session.
type RenderViewFn func(info *DrawViewInfo, customData any) ([]byte, error)

// BindGraphicsContextFn supplies the graphics context a session renders
// with. Called once at Start. The context stays owned by its creator; the
// session only borrows it. Returning nil fails the start with
// ErrConfiguration.
type BindGraphicsContextFn func(t binding.Type) gpucontext.DeviceProvider

// UnbindGraphicsContextFn releases whatever the bind callback set up.
// Called at End and Destroy. Optional: when absent, context cleanup is the
// caller's responsibility elsewhere.
type UnbindGraphicsContextFn func(t binding.Type, provider gpucontext.DeviceProvider)
