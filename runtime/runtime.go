package runtime

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
)

// SystemID identifies a system: the combination of a head-mounted display
// and whatever tracked devices the runtime manages with it.
type SystemID uint64

// IsZero reports whether the ID refers to no system.
func (id SystemID) IsZero() bool { return id == 0 }

// SessionHandle is an opaque runtime-owned session handle.
type SessionHandle uint64

// IsZero reports whether the handle refers to no session.
func (h SessionHandle) IsZero() bool { return h == 0 }

// SpaceHandle is an opaque runtime-owned reference space handle.
type SpaceHandle uint64

// IsZero reports whether the handle refers to no space.
func (h SpaceHandle) IsZero() bool { return h == 0 }

// SwapchainHandle is an opaque runtime-owned swapchain handle.
type SwapchainHandle uint64

// IsZero reports whether the handle refers to no swapchain.
func (h SwapchainHandle) IsZero() bool { return h == 0 }

// SwapchainImage is a runtime-owned render target. The concrete type is
// runtime-specific; graphics bindings narrow it to the texture interfaces
// they understand. The image memory always belongs to the runtime, callers
// only hold references for submission.
type SwapchainImage = any

// ID identifies a known runtime implementation. Some runtimes need
// per-implementation workarounds (see IDWindowsMixedReality), so sessions
// can ask which one they are talking to.
type ID int

// Known runtime implementations.
const (
	IDUnknown ID = iota
	IDWindowsMixedReality
	IDSteamVR
	IDMonado
	IDOculus
	IDHeadless
)

// FormFactor is the physical form of the device a system is queried for.
type FormFactor int

const (
	// FormFactorHeadMountedDisplay is a display worn on the user's head.
	FormFactorHeadMountedDisplay FormFactor = iota + 1
	// FormFactorHandheldDisplay is a display held in the user's hand.
	FormFactorHandheldDisplay
)

// ViewConfigurationType selects how many views a session renders.
type ViewConfigurationType int

const (
	// ViewConfigurationMono renders a single view.
	ViewConfigurationMono ViewConfigurationType = iota + 1
	// ViewConfigurationStereo renders one view per eye.
	ViewConfigurationStereo
)

// Pose is a position plus an orientation quaternion. The quaternion is
// stored w-first.
type Pose struct {
	Position    [3]float32
	Orientation [4]float32
}

// IdentityPose returns a pose at the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Orientation: [4]float32{1, 0, 0, 0}}
}

// FOV holds the four half-angles (in radians) of an asymmetric view frustum.
type FOV struct {
	AngleLeft  float32
	AngleRight float32
	AngleUp    float32
	AngleDown  float32
}

// View is the located state of one physical display for one frame. Views are
// recomputed every frame via LocateViews and are not persisted.
type View struct {
	Pose Pose
	FOV  FOV
}

// ViewConfigurationView describes the runtime's recommendation for one view
// of a view configuration.
type ViewConfigurationView struct {
	RecommendedImageRectWidth       int32
	RecommendedImageRectHeight      int32
	RecommendedSwapchainSampleCount int32
}

// Version is a semantic graphics API version.
type Version struct {
	Major, Minor, Patch uint16
}

// AtLeast reports whether v is the same as or newer than min.
func (v Version) AtLeast(min Version) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	if v.Minor != min.Minor {
		return v.Minor > min.Minor
	}
	return v.Patch >= min.Patch
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// GraphicsRequirements is the runtime's constraint on the graphics API
// version a session's graphics binding must provide.
type GraphicsRequirements struct {
	MinAPIVersion Version
	MaxAPIVersion Version
}

// ReferenceSpaceType selects the origin convention of a reference space.
type ReferenceSpaceType int

const (
	// ReferenceSpaceLocal is a seated-scale space with its origin at the
	// device's position when the space is created.
	ReferenceSpaceLocal ReferenceSpaceType = iota + 1
	// ReferenceSpaceStage is a standing-scale space with its origin on the
	// floor at the center of the tracked area.
	ReferenceSpaceStage
)

// ReferenceSpaceCreateInfo parameterizes CreateReferenceSpace.
type ReferenceSpaceCreateInfo struct {
	Type ReferenceSpaceType
	// Pose is the pose of the new space's origin within the reference space.
	Pose Pose
}

// SwapchainUsage is a bitmask of intended swapchain image uses.
type SwapchainUsage uint32

const (
	// SwapchainUsageSampled marks images for sampling in shaders.
	SwapchainUsageSampled SwapchainUsage = 1 << iota
	// SwapchainUsageColorAttachment marks images as render targets.
	SwapchainUsageColorAttachment
)

// SwapchainCreateInfo parameterizes CreateSwapchain.
type SwapchainCreateInfo struct {
	Usage       SwapchainUsage
	Format      gputypes.TextureFormat
	SampleCount int32
	Width       int32
	Height      int32
	FaceCount   int32
	ArraySize   int32
	MipCount    int32
}

// InfiniteDuration makes WaitSwapchainImage block until an image becomes
// available, with no upper bound.
const InfiniteDuration time.Duration = -1

// FrameState is the runtime's answer to WaitFrame: when the next frame will
// be displayed and whether rendering it is worthwhile at all.
type FrameState struct {
	// PredictedDisplayTime is the midpoint of the next display refresh, in
	// nanoseconds of the runtime's clock domain.
	PredictedDisplayTime int64
	// PredictedDisplayPeriod is the nominal duration of one frame.
	PredictedDisplayPeriod time.Duration
	// ShouldRender is false when the frame's contents would not be shown,
	// e.g. while the display is off or another application has focus.
	ShouldRender bool
}

// SwapchainSubImage selects the region of a swapchain image a composition
// layer view reads from.
type SwapchainSubImage struct {
	Swapchain SwapchainHandle
	X, Y      int32
	Width     int32
	Height    int32
}

// CompositionLayerProjectionView is one eye's entry in a projection layer.
type CompositionLayerProjectionView struct {
	Pose     Pose
	FOV      FOV
	SubImage SwapchainSubImage
}

// CompositionLayerProjection is a planar projected layer, one view per
// physical display.
type CompositionLayerProjection struct {
	Space SpaceHandle
	Views []CompositionLayerProjectionView
}

// EnvironmentBlendMode selects how layers composite with the user's
// physical environment.
type EnvironmentBlendMode int

const (
	// BlendModeOpaque displays layers with no view of the environment.
	BlendModeOpaque EnvironmentBlendMode = iota + 1
	// BlendModeAdditive adds layer brightness over the environment.
	BlendModeAdditive
)

// FrameEndInfo parameterizes EndFrame. An empty layer list is valid and
// submits a frame with nothing to composite.
type FrameEndInfo struct {
	DisplayTime int64
	BlendMode   EnvironmentBlendMode
	Layers      []*CompositionLayerProjection
}

// ViewLocateInfo parameterizes LocateViews.
type ViewLocateInfo struct {
	ViewConfigurationType ViewConfigurationType
	DisplayTime           int64
	Space                 SpaceHandle
}

// SessionStateChange is the runtime's sole asynchronous notification: the
// session identified by Session has moved to State.
type SessionStateChange struct {
	Session SessionHandle
	State   SessionState
}

// Runtime is the device-runtime protocol. Implementations are not required
// to be safe for concurrent use; the session layer drives a runtime from a
// single goroutine and callers must serialize their own event polling and
// draw calls.
//
// WaitFrame and WaitSwapchainImage block. Everything else is synchronous
// request/response.
type Runtime interface {
	// Name returns the registry name of the runtime (e.g. "headless").
	Name() string

	// ID identifies the runtime implementation, for per-runtime quirks.
	ID() ID

	// System resolves the system for the given form factor. It fails when
	// no compatible device is present.
	System(FormFactor) (SystemID, error)

	// GraphicsRequirements returns the graphics API version constraints a
	// session for the system must satisfy.
	GraphicsRequirements(SystemID) (GraphicsRequirements, error)

	// CreateSession creates a session for the system. graphicsBinding is
	// the binding-specific payload (e.g. a wgpu device/queue pair) the
	// runtime composites through.
	CreateSession(sys SystemID, graphicsBinding any) (SessionHandle, error)

	// DestroySession releases a session handle and everything the runtime
	// still holds for it.
	DestroySession(SessionHandle) error

	// BeginSession tells the runtime the application will start submitting
	// frames, using the given view configuration.
	BeginSession(SessionHandle, ViewConfigurationType) error

	// EndSession tells the runtime the application has stopped submitting
	// frames. Called in response to a Stopping state change.
	EndSession(SessionHandle) error

	// RequestExitSession asks the runtime to wind the session down. The
	// call returns immediately; the runtime answers with Stopping and
	// Exiting state changes later.
	RequestExitSession(SessionHandle) error

	// CreateReferenceSpace creates a space the session locates views in.
	CreateReferenceSpace(SessionHandle, ReferenceSpaceCreateInfo) (SpaceHandle, error)

	// DestroySpace releases a reference space handle.
	DestroySpace(SpaceHandle) error

	// EnumerateViewConfigurationViews lists the per-view recommendations
	// for a view configuration, one entry per physical display.
	EnumerateViewConfigurationViews(SystemID, ViewConfigurationType) ([]ViewConfigurationView, error)

	// EnumerateSwapchainFormats lists the texture formats the runtime can
	// composite, in order of preference.
	EnumerateSwapchainFormats(SessionHandle) ([]gputypes.TextureFormat, error)

	// CreateSwapchain creates a ring of render targets for one view.
	CreateSwapchain(SessionHandle, SwapchainCreateInfo) (SwapchainHandle, error)

	// DestroySwapchain releases a swapchain handle and its images.
	DestroySwapchain(SwapchainHandle) error

	// EnumerateSwapchainImages returns the images backing a swapchain, in
	// ring order.
	EnumerateSwapchainImages(SwapchainHandle) ([]SwapchainImage, error)

	// AcquireSwapchainImage returns the index of the next image to render
	// into. The image may not be written until WaitSwapchainImage returns.
	AcquireSwapchainImage(SwapchainHandle) (int, error)

	// WaitSwapchainImage blocks until the most recently acquired image is
	// available for writing, or the timeout elapses. InfiniteDuration
	// waits without bound.
	WaitSwapchainImage(sc SwapchainHandle, timeout time.Duration) error

	// ReleaseSwapchainImage returns the most recently acquired image to
	// the runtime for compositing.
	ReleaseSwapchainImage(SwapchainHandle) error

	// WaitFrame blocks until the runtime wants the next frame rendered.
	// This is the frame-rate synchronization point.
	WaitFrame(SessionHandle) (FrameState, error)

	// BeginFrame marks the start of rendering for the frame WaitFrame
	// predicted.
	BeginFrame(SessionHandle) error

	// EndFrame submits the frame's composition layers for display.
	EndFrame(SessionHandle, FrameEndInfo) error

	// LocateViews computes the pose and field of view of every view for
	// the given display time, relative to the given space.
	LocateViews(SessionHandle, ViewLocateInfo) ([]View, error)

	// PollEvent dequeues the next pending state change, if any. Events are
	// delivered on the polling goroutine, never pushed.
	PollEvent() (SessionStateChange, bool)
}
