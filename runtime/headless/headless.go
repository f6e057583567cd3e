// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package headless provides an in-process device runtime with no hardware
// requirement. It simulates a stereo head-mounted display: two views with
// fixed recommended resolutions, three-image swapchain rings, and the full
// session lifecycle driven through the usual polled events.
//
// Importing the package registers it in the runtime registry under
// runtime.NameHeadless. It serves tests, demos, and CI environments where
// no device runtime is installed.
package headless

import (
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr/runtime"
)

func init() {
	runtime.Register(runtime.NameHeadless, func() runtime.Runtime { return New() })
}

const (
	systemID = runtime.SystemID(1)

	viewWidth  = 1280
	viewHeight = 1024

	imagesPerSwapchain = 3

	// displayPeriod is the simulated refresh period (roughly 90 Hz).
	displayPeriod = 11111111 * time.Nanosecond
)

// Option configures the headless runtime during creation.
type Option func(*Runtime)

// WithViewCount overrides the number of simulated views (default 2).
func WithViewCount(n int) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.viewCount = n
		}
	}
}

// WithDeviceAbsent makes System fail as if no display were connected.
func WithDeviceAbsent() Option {
	return func(r *Runtime) {
		r.deviceAbsent = true
	}
}

// Runtime is the headless device runtime. Like every runtime it is driven
// from a single goroutine; it performs no internal locking.
type Runtime struct {
	viewCount    int
	deviceAbsent bool

	nextHandle uint64

	session       runtime.SessionHandle
	began         bool
	exitRequested bool

	spaces     map[runtime.SpaceHandle]runtime.ReferenceSpaceCreateInfo
	swapchains map[runtime.SwapchainHandle]*swapchainState

	events []runtime.SessionStateChange

	frameCount  int64
	frameWaited bool
	frameBegun  bool
}

// swapchainState is one simulated swapchain ring.
type swapchainState struct {
	info     runtime.SwapchainCreateInfo
	images   []*Image
	acquired int // index handed out by Acquire, -1 when none
	waited   bool
	next     int
}

// Image is a headless swapchain image. It accepts pixel uploads so the
// software and wgpu bindings can submit into it; the bytes are retained for
// inspection.
type Image struct {
	Format gputypes.TextureFormat
	Width  int32
	Height int32

	data    []byte
	updates int
}

// UpdateData stores the submitted pixels.
func (i *Image) UpdateData(data []byte) error {
	i.data = append(i.data[:0], data...)
	i.updates++
	return nil
}

// Data returns the most recently submitted pixels.
func (i *Image) Data() []byte { return i.data }

// Updates returns how many submissions the image has received.
func (i *Image) Updates() int { return i.updates }

// New creates a headless runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		viewCount:  2,
		spaces:     make(map[runtime.SpaceHandle]runtime.ReferenceSpaceCreateInfo),
		swapchains: make(map[runtime.SwapchainHandle]*swapchainState),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns runtime.NameHeadless.
func (r *Runtime) Name() string { return runtime.NameHeadless }

// ID returns runtime.IDHeadless.
func (r *Runtime) ID() runtime.ID { return runtime.IDHeadless }

func (r *Runtime) handle() uint64 {
	r.nextHandle++
	return r.nextHandle
}

func (r *Runtime) push(state runtime.SessionState) {
	r.events = append(r.events, runtime.SessionStateChange{
		Session: r.session,
		State:   state,
	})
}

// System resolves the simulated display.
func (r *Runtime) System(ff runtime.FormFactor) (runtime.SystemID, error) {
	if ff != runtime.FormFactorHeadMountedDisplay || r.deviceAbsent {
		return 0, runtime.Errorf(runtime.ResultFormFactorUnavailable,
			"headless: no %v device simulated", ff)
	}
	return systemID, nil
}

// GraphicsRequirements accepts any graphics version.
func (r *Runtime) GraphicsRequirements(sys runtime.SystemID) (runtime.GraphicsRequirements, error) {
	if sys != systemID {
		return runtime.GraphicsRequirements{}, runtime.Errorf(runtime.ResultHandleInvalid,
			"headless: unknown system %d", sys)
	}
	return runtime.GraphicsRequirements{
		MinAPIVersion: runtime.Version{},
		MaxAPIVersion: runtime.Version{Major: 65535, Minor: 65535, Patch: 65535},
	}, nil
}

// CreateSession creates the one simulated session and queues its first
// lifecycle events: Idle, then Ready.
func (r *Runtime) CreateSession(sys runtime.SystemID, _ any) (runtime.SessionHandle, error) {
	if sys != systemID {
		return 0, runtime.Errorf(runtime.ResultHandleInvalid, "headless: unknown system %d", sys)
	}
	if !r.session.IsZero() {
		return 0, runtime.Errorf(runtime.ResultLimitReached, "headless: session already exists")
	}

	r.session = runtime.SessionHandle(r.handle())
	r.began = false
	r.exitRequested = false
	r.frameCount = 0
	r.push(runtime.StateIdle)
	r.push(runtime.StateReady)
	return r.session, nil
}

func (r *Runtime) checkSession(h runtime.SessionHandle) error {
	if h.IsZero() || h != r.session {
		return runtime.Errorf(runtime.ResultHandleInvalid, "headless: unknown session %d", h)
	}
	return nil
}

// DestroySession releases the session and everything still held for it.
func (r *Runtime) DestroySession(h runtime.SessionHandle) error {
	if err := r.checkSession(h); err != nil {
		return err
	}
	r.session = 0
	r.began = false
	r.frameWaited = false
	r.frameBegun = false
	return nil
}

// BeginSession starts frame submission and queues the synchronization
// events a real compositor would send.
func (r *Runtime) BeginSession(h runtime.SessionHandle, vt runtime.ViewConfigurationType) error {
	if err := r.checkSession(h); err != nil {
		return err
	}
	if vt != runtime.ViewConfigurationStereo && vt != runtime.ViewConfigurationMono {
		return runtime.Errorf(runtime.ResultRuntimeFailure,
			"headless: unsupported view configuration %d", vt)
	}
	if r.began {
		return runtime.Errorf(runtime.ResultCallOrderInvalid, "headless: session already begun")
	}

	r.began = true
	r.push(runtime.StateSynchronized)
	r.push(runtime.StateVisible)
	r.push(runtime.StateFocused)
	return nil
}

// EndSession stops frame submission. When an exit was requested, the
// session proceeds to Exiting, matching the stop-then-exit order of device
// runtimes.
func (r *Runtime) EndSession(h runtime.SessionHandle) error {
	if err := r.checkSession(h); err != nil {
		return err
	}
	if !r.began {
		return runtime.Errorf(runtime.ResultSessionNotRunning, "headless: session not begun")
	}

	r.began = false
	if r.exitRequested {
		r.push(runtime.StateExiting)
	}
	return nil
}

// RequestExitSession queues the graceful shutdown: the application sees
// Stopping, ends the session, and then sees Exiting.
func (r *Runtime) RequestExitSession(h runtime.SessionHandle) error {
	if err := r.checkSession(h); err != nil {
		return err
	}
	r.exitRequested = true
	r.push(runtime.StateStopping)
	return nil
}

// CreateReferenceSpace creates a space handle.
func (r *Runtime) CreateReferenceSpace(h runtime.SessionHandle, info runtime.ReferenceSpaceCreateInfo) (runtime.SpaceHandle, error) {
	if err := r.checkSession(h); err != nil {
		return 0, err
	}
	space := runtime.SpaceHandle(r.handle())
	r.spaces[space] = info
	return space, nil
}

// DestroySpace releases a space handle.
func (r *Runtime) DestroySpace(h runtime.SpaceHandle) error {
	if _, ok := r.spaces[h]; !ok {
		return runtime.Errorf(runtime.ResultHandleInvalid, "headless: unknown space %d", h)
	}
	delete(r.spaces, h)
	return nil
}

// EnumerateViewConfigurationViews lists the simulated views.
func (r *Runtime) EnumerateViewConfigurationViews(sys runtime.SystemID, _ runtime.ViewConfigurationType) ([]runtime.ViewConfigurationView, error) {
	if sys != systemID {
		return nil, runtime.Errorf(runtime.ResultHandleInvalid, "headless: unknown system %d", sys)
	}
	views := make([]runtime.ViewConfigurationView, r.viewCount)
	for i := range views {
		views[i] = runtime.ViewConfigurationView{
			RecommendedImageRectWidth:       viewWidth,
			RecommendedImageRectHeight:      viewHeight,
			RecommendedSwapchainSampleCount: 1,
		}
	}
	return views, nil
}

// EnumerateSwapchainFormats lists the formats the simulated compositor
// accepts, most preferred first.
func (r *Runtime) EnumerateSwapchainFormats(h runtime.SessionHandle) ([]gputypes.TextureFormat, error) {
	if err := r.checkSession(h); err != nil {
		return nil, err
	}
	return []gputypes.TextureFormat{
		gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatRGBA8Unorm,
	}, nil
}

// CreateSwapchain creates a ring of images.
func (r *Runtime) CreateSwapchain(h runtime.SessionHandle, info runtime.SwapchainCreateInfo) (runtime.SwapchainHandle, error) {
	if err := r.checkSession(h); err != nil {
		return 0, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return 0, runtime.Errorf(runtime.ResultRuntimeFailure,
			"headless: invalid swapchain extent %dx%d", info.Width, info.Height)
	}

	sc := &swapchainState{info: info, acquired: -1}
	for i := 0; i < imagesPerSwapchain; i++ {
		sc.images = append(sc.images, &Image{
			Format: info.Format,
			Width:  info.Width,
			Height: info.Height,
		})
	}

	handle := runtime.SwapchainHandle(r.handle())
	r.swapchains[handle] = sc
	return handle, nil
}

func (r *Runtime) swapchain(h runtime.SwapchainHandle) (*swapchainState, error) {
	sc, ok := r.swapchains[h]
	if !ok {
		return nil, runtime.Errorf(runtime.ResultHandleInvalid, "headless: unknown swapchain %d", h)
	}
	return sc, nil
}

// DestroySwapchain releases a swapchain and its images.
func (r *Runtime) DestroySwapchain(h runtime.SwapchainHandle) error {
	if _, err := r.swapchain(h); err != nil {
		return err
	}
	delete(r.swapchains, h)
	return nil
}

// EnumerateSwapchainImages returns the ring's images in acquire order.
func (r *Runtime) EnumerateSwapchainImages(h runtime.SwapchainHandle) ([]runtime.SwapchainImage, error) {
	sc, err := r.swapchain(h)
	if err != nil {
		return nil, err
	}
	images := make([]runtime.SwapchainImage, len(sc.images))
	for i, img := range sc.images {
		images[i] = img
	}
	return images, nil
}

// AcquireSwapchainImage hands out the next ring index. Only one image may
// be outstanding per swapchain.
func (r *Runtime) AcquireSwapchainImage(h runtime.SwapchainHandle) (int, error) {
	sc, err := r.swapchain(h)
	if err != nil {
		return 0, err
	}
	if sc.acquired >= 0 {
		return 0, runtime.Errorf(runtime.ResultCallOrderInvalid,
			"headless: swapchain image %d still acquired", sc.acquired)
	}

	sc.acquired = sc.next
	sc.waited = false
	sc.next = (sc.next + 1) % len(sc.images)
	return sc.acquired, nil
}

// WaitSwapchainImage marks the acquired image available. Headless images
// are always ready, so no blocking ever happens regardless of timeout.
func (r *Runtime) WaitSwapchainImage(h runtime.SwapchainHandle, _ time.Duration) error {
	sc, err := r.swapchain(h)
	if err != nil {
		return err
	}
	if sc.acquired < 0 {
		return runtime.Errorf(runtime.ResultCallOrderInvalid,
			"headless: wait without an acquired image")
	}
	sc.waited = true
	return nil
}

// ReleaseSwapchainImage returns the acquired image to the ring.
func (r *Runtime) ReleaseSwapchainImage(h runtime.SwapchainHandle) error {
	sc, err := r.swapchain(h)
	if err != nil {
		return err
	}
	if sc.acquired < 0 {
		return runtime.Errorf(runtime.ResultCallOrderInvalid,
			"headless: release without an acquired image")
	}
	if !sc.waited {
		return runtime.Errorf(runtime.ResultCallOrderInvalid,
			"headless: release before waiting for the acquired image")
	}
	sc.acquired = -1
	sc.waited = false
	return nil
}

// WaitFrame advances the simulated display clock. It never blocks: the
// headless compositor is always ready for the next frame.
func (r *Runtime) WaitFrame(h runtime.SessionHandle) (runtime.FrameState, error) {
	if err := r.checkSession(h); err != nil {
		return runtime.FrameState{}, err
	}
	if !r.began {
		return runtime.FrameState{}, runtime.Errorf(runtime.ResultSessionNotRunning,
			"headless: frame wait outside a running session")
	}

	r.frameCount++
	r.frameWaited = true
	r.frameBegun = false
	return runtime.FrameState{
		PredictedDisplayTime:   r.frameCount * int64(displayPeriod),
		PredictedDisplayPeriod: displayPeriod,
		ShouldRender:           true,
	}, nil
}

// BeginFrame marks the start of rendering for the waited frame.
func (r *Runtime) BeginFrame(h runtime.SessionHandle) error {
	if err := r.checkSession(h); err != nil {
		return err
	}
	if !r.frameWaited || r.frameBegun {
		return runtime.Errorf(runtime.ResultCallOrderInvalid,
			"headless: frame begin without a waited frame")
	}
	r.frameBegun = true
	return nil
}

// EndFrame accepts the frame's layers.
func (r *Runtime) EndFrame(h runtime.SessionHandle, _ runtime.FrameEndInfo) error {
	if err := r.checkSession(h); err != nil {
		return err
	}
	if !r.frameBegun {
		return runtime.Errorf(runtime.ResultCallOrderInvalid,
			"headless: frame end without a begun frame")
	}
	r.frameWaited = false
	r.frameBegun = false
	return nil
}

// LocateViews returns deterministic eye poses: the eyes sit at a fixed
// interpupillary offset with symmetric 45 degree frusta.
func (r *Runtime) LocateViews(h runtime.SessionHandle, info runtime.ViewLocateInfo) ([]runtime.View, error) {
	if err := r.checkSession(h); err != nil {
		return nil, err
	}
	if _, ok := r.spaces[info.Space]; !ok {
		return nil, runtime.Errorf(runtime.ResultHandleInvalid,
			"headless: unknown space %d", info.Space)
	}

	const halfIPD = 0.032 // meters
	const halfAngle = 0.7853982

	views := make([]runtime.View, r.viewCount)
	for i := range views {
		pose := runtime.IdentityPose()
		if r.viewCount == 2 {
			if i == 0 {
				pose.Position[0] = -halfIPD
			} else {
				pose.Position[0] = halfIPD
			}
		}
		views[i] = runtime.View{
			Pose: pose,
			FOV: runtime.FOV{
				AngleLeft:  -halfAngle,
				AngleRight: halfAngle,
				AngleUp:    halfAngle,
				AngleDown:  -halfAngle,
			},
		}
	}
	return views, nil
}

// PollEvent dequeues the next pending state change.
func (r *Runtime) PollEvent() (runtime.SessionStateChange, bool) {
	if len(r.events) == 0 {
		return runtime.SessionStateChange{}, false
	}
	ev := r.events[0]
	r.events = r.events[1:]
	return ev, true
}
