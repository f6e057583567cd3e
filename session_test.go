package xr

import (
	"fmt"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/xr/binding"
	"github.com/gogpu/xr/runtime"
)

// fakeDevice implements gpucontext.Device for testing.
type fakeDevice struct{}

func (fakeDevice) Poll(wait bool) {}
func (fakeDevice) Destroy()       {}

// fakeQueue implements gpucontext.Queue for testing.
type fakeQueue struct{}

// fakeAdapter implements gpucontext.Adapter for testing.
type fakeAdapter struct{}

// fakeProvider implements gpucontext.DeviceProvider for testing.
type fakeProvider struct{}

func (fakeProvider) Device() gpucontext.Device             { return fakeDevice{} }
func (fakeProvider) Queue() gpucontext.Queue               { return fakeQueue{} }
func (fakeProvider) Adapter() gpucontext.Adapter           { return fakeAdapter{} }
func (fakeProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }
func (fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }

// fakeImage records submissions.
type fakeImage struct {
	data    []byte
	updates int
}

func (i *fakeImage) UpdateData(data []byte) error {
	i.data = append(i.data[:0], data...)
	i.updates++
	return nil
}

// fakeRuntime implements runtime.Runtime with scriptable failures and an
// operation log.
type fakeRuntime struct {
	id runtime.ID

	systemErr          error
	createSessionErr   error
	createSwapchainErr error
	failSwapchainAt    int // fail the n-th CreateSwapchain (1-based), 0 = never
	locateErr          error

	viewConfigs  []runtime.ViewConfigurationView
	formats      []gputypes.TextureFormat
	imageCount   int
	shouldRender bool

	ops []string

	nextHandle       uint64
	session          runtime.SessionHandle
	space            runtime.SpaceHandle
	swapchains       map[runtime.SwapchainHandle][]*fakeImage
	createdSwapchain int
	began            bool
	endedSessions    int
	exitRequests     int
	frameCount       int64
	waitTimeouts     []time.Duration
	endFrameInfos    []runtime.FrameEndInfo
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		viewConfigs: []runtime.ViewConfigurationView{
			{RecommendedImageRectWidth: 800, RecommendedImageRectHeight: 600, RecommendedSwapchainSampleCount: 1},
			{RecommendedImageRectWidth: 1024, RecommendedImageRectHeight: 768, RecommendedSwapchainSampleCount: 1},
		},
		formats:      []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm},
		imageCount:   3,
		shouldRender: true,
		swapchains:   make(map[runtime.SwapchainHandle][]*fakeImage),
	}
}

func (f *fakeRuntime) log(format string, args ...any) {
	f.ops = append(f.ops, fmt.Sprintf(format, args...))
}

func (f *fakeRuntime) handle() uint64 {
	f.nextHandle++
	return f.nextHandle
}

func (f *fakeRuntime) Name() string   { return "fake" }
func (f *fakeRuntime) ID() runtime.ID { return f.id }

func (f *fakeRuntime) System(runtime.FormFactor) (runtime.SystemID, error) {
	f.log("System")
	if f.systemErr != nil {
		return 0, f.systemErr
	}
	return 1, nil
}

func (f *fakeRuntime) GraphicsRequirements(runtime.SystemID) (runtime.GraphicsRequirements, error) {
	return runtime.GraphicsRequirements{}, nil
}

func (f *fakeRuntime) CreateSession(runtime.SystemID, any) (runtime.SessionHandle, error) {
	f.log("CreateSession")
	if f.createSessionErr != nil {
		return 0, f.createSessionErr
	}
	f.session = runtime.SessionHandle(f.handle())
	return f.session, nil
}

func (f *fakeRuntime) DestroySession(h runtime.SessionHandle) error {
	f.log("DestroySession")
	f.session = 0
	return nil
}

func (f *fakeRuntime) BeginSession(runtime.SessionHandle, runtime.ViewConfigurationType) error {
	f.log("BeginSession")
	f.began = true
	return nil
}

func (f *fakeRuntime) EndSession(runtime.SessionHandle) error {
	f.log("EndSession")
	f.began = false
	f.endedSessions++
	return nil
}

func (f *fakeRuntime) RequestExitSession(runtime.SessionHandle) error {
	f.log("RequestExitSession")
	f.exitRequests++
	return nil
}

func (f *fakeRuntime) CreateReferenceSpace(runtime.SessionHandle, runtime.ReferenceSpaceCreateInfo) (runtime.SpaceHandle, error) {
	f.log("CreateReferenceSpace")
	f.space = runtime.SpaceHandle(f.handle())
	return f.space, nil
}

func (f *fakeRuntime) DestroySpace(runtime.SpaceHandle) error {
	f.log("DestroySpace")
	f.space = 0
	return nil
}

func (f *fakeRuntime) EnumerateViewConfigurationViews(runtime.SystemID, runtime.ViewConfigurationType) ([]runtime.ViewConfigurationView, error) {
	return f.viewConfigs, nil
}

func (f *fakeRuntime) EnumerateSwapchainFormats(runtime.SessionHandle) ([]gputypes.TextureFormat, error) {
	return f.formats, nil
}

func (f *fakeRuntime) CreateSwapchain(_ runtime.SessionHandle, info runtime.SwapchainCreateInfo) (runtime.SwapchainHandle, error) {
	f.createdSwapchain++
	f.log("CreateSwapchain(%dx%d)", info.Width, info.Height)
	if f.createSwapchainErr != nil && (f.failSwapchainAt == 0 || f.failSwapchainAt == f.createdSwapchain) {
		return 0, f.createSwapchainErr
	}
	h := runtime.SwapchainHandle(f.handle())
	images := make([]*fakeImage, f.imageCount)
	for i := range images {
		images[i] = &fakeImage{}
	}
	f.swapchains[h] = images
	return h, nil
}

func (f *fakeRuntime) DestroySwapchain(h runtime.SwapchainHandle) error {
	f.log("DestroySwapchain")
	delete(f.swapchains, h)
	return nil
}

func (f *fakeRuntime) EnumerateSwapchainImages(h runtime.SwapchainHandle) ([]runtime.SwapchainImage, error) {
	images := make([]runtime.SwapchainImage, len(f.swapchains[h]))
	for i, img := range f.swapchains[h] {
		images[i] = img
	}
	return images, nil
}

func (f *fakeRuntime) AcquireSwapchainImage(h runtime.SwapchainHandle) (int, error) {
	f.log("Acquire(%d)", h)
	return 0, nil
}

func (f *fakeRuntime) WaitSwapchainImage(h runtime.SwapchainHandle, timeout time.Duration) error {
	f.log("WaitImage(%d)", h)
	f.waitTimeouts = append(f.waitTimeouts, timeout)
	return nil
}

func (f *fakeRuntime) ReleaseSwapchainImage(h runtime.SwapchainHandle) error {
	f.log("Release(%d)", h)
	return nil
}

func (f *fakeRuntime) WaitFrame(runtime.SessionHandle) (runtime.FrameState, error) {
	f.log("WaitFrame")
	f.frameCount++
	return runtime.FrameState{
		PredictedDisplayTime:   f.frameCount * 1000,
		PredictedDisplayPeriod: 11 * time.Millisecond,
		ShouldRender:           f.shouldRender,
	}, nil
}

func (f *fakeRuntime) BeginFrame(runtime.SessionHandle) error {
	f.log("BeginFrame")
	return nil
}

func (f *fakeRuntime) EndFrame(_ runtime.SessionHandle, info runtime.FrameEndInfo) error {
	f.log("EndFrame(%d layers)", len(info.Layers))
	f.endFrameInfos = append(f.endFrameInfos, info)
	return nil
}

func (f *fakeRuntime) LocateViews(runtime.SessionHandle, runtime.ViewLocateInfo) ([]runtime.View, error) {
	f.log("LocateViews")
	if f.locateErr != nil {
		return nil, f.locateErr
	}
	views := make([]runtime.View, len(f.viewConfigs))
	for i := range views {
		views[i].Pose = runtime.IdentityPose()
	}
	return views, nil
}

func (f *fakeRuntime) PollEvent() (runtime.SessionStateChange, bool) {
	return runtime.SessionStateChange{}, false
}

// fakeGfxBinding implements binding.GraphicsBinding with scriptable
// behavior.
type fakeGfxBinding struct {
	versionOK   bool
	requirement string
	initErr     error
	rejectAll   bool

	inits     int
	submitted [][]byte
	onSubmit  func()
}

func newFakeGfxBinding() *fakeGfxBinding {
	return &fakeGfxBinding{versionOK: true}
}

func (b *fakeGfxBinding) Type() binding.Type { return binding.TypeSoftware }

func (b *fakeGfxBinding) CheckVersionRequirements(gpucontext.DeviceProvider, runtime.GraphicsRequirements) (bool, string) {
	return b.versionOK, b.requirement
}

func (b *fakeGfxBinding) InitFromContext(gpucontext.DeviceProvider) error {
	b.inits++
	return b.initErr
}

func (b *fakeGfxBinding) SessionGraphicsBinding() any { return nil }

func (b *fakeGfxBinding) ChooseSwapchainFormat(candidates []gputypes.TextureFormat) (gputypes.TextureFormat, bool) {
	if b.rejectAll || len(candidates) == 0 {
		return 0, false
	}
	return candidates[0], true
}

func (b *fakeGfxBinding) WrapSwapchainImages(images []runtime.SwapchainImage) ([]any, error) {
	wrapped := make([]any, len(images))
	copy(wrapped, images)
	return wrapped, nil
}

func (b *fakeGfxBinding) SubmitToSwapchain(image any, data []byte) error {
	if b.onSubmit != nil {
		b.onSubmit()
	}
	b.submitted = append(b.submitted, data)
	if updater, ok := image.(gpucontext.TextureUpdater); ok {
		return updater.UpdateData(data)
	}
	return nil
}

// sessionHarness bundles a session with its collaborators.
type sessionHarness struct {
	rt      *fakeRuntime
	gfx     *fakeGfxBinding
	sess    *Session
	unbinds int
}

func newSessionHarness(t *testing.T, opts ...Option) *sessionHarness {
	t.Helper()

	h := &sessionHarness{
		rt:  newFakeRuntime(),
		gfx: newFakeGfxBinding(),
	}

	all := append([]Option{
		WithBinding(h.gfx),
		WithGraphicsContextBinder(
			func(binding.Type) gpucontext.DeviceProvider { return fakeProvider{} },
			func(binding.Type, gpucontext.DeviceProvider) { h.unbinds++ },
		),
		WithViewRenderer(func(info *DrawViewInfo, _ any) ([]byte, error) {
			return []byte{0xab}, nil
		}),
	}, opts...)

	sess, err := NewSession(h.rt, all...)
	require.NoError(t, err)
	h.sess = sess
	return h
}

func TestNewSessionNilRuntime(t *testing.T) {
	_, err := NewSession(nil)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestStartWithoutBindCallback(t *testing.T) {
	rt := newFakeRuntime()
	sess, err := NewSession(rt, WithBinding(newFakeGfxBinding()))
	require.NoError(t, err)

	err = sess.Start(nil)
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Empty(t, rt.ops, "no runtime call may happen before configuration is validated")
	assert.Zero(t, rt.session, "no session handle may be created")
}

func TestStartBindCallbackReturnsNil(t *testing.T) {
	rt := newFakeRuntime()
	sess, err := NewSession(rt,
		WithBinding(newFakeGfxBinding()),
		WithGraphicsContextBinder(
			func(binding.Type) gpucontext.DeviceProvider { return nil },
			nil,
		),
	)
	require.NoError(t, err)

	err = sess.Start(nil)
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Zero(t, rt.session)
}

func TestStartDefaultBindingTypeNeedsInjection(t *testing.T) {
	// The default binding type is wgpu, which carries device identity and
	// cannot be built by the factory. Starting without WithBinding must
	// fail with a configuration error that names the way out.
	rt := newFakeRuntime()
	sess, err := NewSession(rt,
		WithGraphicsContextBinder(
			func(binding.Type) gpucontext.DeviceProvider { return fakeProvider{} },
			nil,
		),
		WithViewRenderer(func(*DrawViewInfo, any) ([]byte, error) { return nil, nil }),
	)
	require.NoError(t, err)

	err = sess.Start(nil)
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "WithBinding")
	assert.Zero(t, rt.session)
}

func TestInitSystemDeviceNotFound(t *testing.T) {
	h := newSessionHarness(t)
	h.rt.systemErr = runtime.Errorf(runtime.ResultFormFactorUnavailable, "no HMD")

	err := h.sess.InitSystem()
	require.ErrorIs(t, err, ErrDeviceNotFound)
	assert.Contains(t, err.Error(), "plugged in")
}

func TestInitSystemTwice(t *testing.T) {
	h := newSessionHarness(t)
	require.NoError(t, h.sess.InitSystem())
	require.ErrorIs(t, h.sess.InitSystem(), ErrConfiguration)
}

func TestStartIncompatibleDriver(t *testing.T) {
	h := newSessionHarness(t)
	h.gfx.versionOK = false
	h.gfx.requirement = "WebGPU version >= 9.0.0"

	err := h.sess.Start(nil)
	require.ErrorIs(t, err, ErrIncompatibleDriver)
	assert.Contains(t, err.Error(), "WebGPU version >= 9.0.0")
	assert.Zero(t, h.rt.session, "no session may be created on driver mismatch")
}

func TestStartSuccess(t *testing.T) {
	h := newSessionHarness(t)

	require.NoError(t, h.sess.Start(nil))
	assert.Equal(t, 1, h.gfx.inits)
	assert.Len(t, h.rt.swapchains, 2, "one swapchain per enumerated view")
	assert.NotZero(t, h.rt.space, "reference space must be created")
	assert.Equal(t, 2, len(h.sess.views))

	// Last processed view configuration wins for the shared extent.
	assert.Equal(t, int32(1024), h.sess.pool.width)
	assert.Equal(t, int32(768), h.sess.pool.height)
}

func TestStartTwice(t *testing.T) {
	h := newSessionHarness(t)
	require.NoError(t, h.sess.Start(nil))
	require.ErrorIs(t, h.sess.Start(nil), ErrConfiguration)
}

func TestStartRecordsBasePose(t *testing.T) {
	h := newSessionHarness(t)
	pose := runtime.Pose{Position: [3]float32{1, 2, 3}, Orientation: [4]float32{1, 0, 0, 0}}

	require.NoError(t, h.sess.Start(&BeginInfo{BasePose: pose}))
	assert.Equal(t, pose, h.sess.BasePose())
}

func TestRequestEndIsAsynchronous(t *testing.T) {
	h := newSessionHarness(t)
	require.NoError(t, h.sess.Start(nil))
	before := h.sess.State()

	require.NoError(t, h.sess.RequestEnd())
	assert.Equal(t, 1, h.rt.exitRequests)
	assert.Equal(t, before, h.sess.State(), "RequestEnd must not change local state")
	assert.Equal(t, 0, h.rt.endedSessions)
}

func TestHandleStateChangedReady(t *testing.T) {
	h := newSessionHarness(t)
	require.NoError(t, h.sess.Start(nil))

	life, err := h.sess.HandleStateChanged(runtime.SessionStateChange{
		Session: h.rt.session, State: runtime.StateReady,
	})
	require.NoError(t, err)
	assert.Equal(t, SessionKeepAlive, life)
	assert.True(t, h.rt.began, "Ready must begin the runtime session")
	assert.True(t, h.sess.Running())
}

func TestHandleStateChangedStopping(t *testing.T) {
	h := newSessionHarness(t)
	require.NoError(t, h.sess.Start(nil))
	session := h.rt.session

	life, err := h.sess.HandleStateChanged(runtime.SessionStateChange{
		Session: session, State: runtime.StateStopping,
	})
	require.NoError(t, err)
	assert.Equal(t, SessionKeepAlive, life, "Stopping alone does not destroy")
	assert.Equal(t, 1, h.rt.endedSessions, "Stopping must end the session immediately")
	assert.Equal(t, 1, h.unbinds, "ending must release the graphics context")
	assert.Nil(t, h.sess.draw, "frame driver state is discarded on end")
}

func TestHandleStateChangedDestroySignals(t *testing.T) {
	tests := []struct {
		state runtime.SessionState
		want  LifeExpectancy
	}{
		{runtime.StateIdle, SessionKeepAlive},
		{runtime.StateSynchronized, SessionKeepAlive},
		{runtime.StateVisible, SessionKeepAlive},
		{runtime.StateFocused, SessionKeepAlive},
		{runtime.StateExiting, SessionDestroy},
		{runtime.StateLossPending, SessionDestroy},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := newSessionHarness(t)
			require.NoError(t, h.sess.Start(nil))

			life, err := h.sess.HandleStateChanged(runtime.SessionStateChange{
				Session: h.rt.session, State: tt.state,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, life)
		})
	}
}

func TestHandleStateChangedForeignSession(t *testing.T) {
	h := newSessionHarness(t)
	require.NoError(t, h.sess.Start(nil))

	_, err := h.sess.HandleStateChanged(runtime.SessionStateChange{
		Session: h.rt.session + 99, State: runtime.StateReady,
	})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestStoppingThenExitingSequence(t *testing.T) {
	h := newSessionHarness(t)
	require.NoError(t, h.sess.Start(nil))
	session := h.rt.session

	life, err := h.sess.HandleStateChanged(runtime.SessionStateChange{Session: session, State: runtime.StateStopping})
	require.NoError(t, err)
	require.Equal(t, SessionKeepAlive, life)
	require.Equal(t, 1, h.rt.endedSessions)

	life, err = h.sess.HandleStateChanged(runtime.SessionStateChange{Session: session, State: runtime.StateExiting})
	require.NoError(t, err)
	require.Equal(t, SessionDestroy, life)

	require.NoError(t, h.sess.Destroy())
	assert.Zero(t, h.rt.session)
	assert.Zero(t, h.rt.space)
	assert.Empty(t, h.rt.swapchains)
}

func TestDestroyNeverStarted(t *testing.T) {
	h := newSessionHarness(t)

	require.NoError(t, h.sess.Destroy())
	assert.Empty(t, h.rt.ops, "teardown without construction must not touch the runtime")
}

func TestDestroyIdempotent(t *testing.T) {
	h := newSessionHarness(t)
	require.NoError(t, h.sess.Start(nil))

	require.NoError(t, h.sess.Destroy())
	opsAfterFirst := len(h.rt.ops)

	require.NoError(t, h.sess.Destroy())
	assert.Equal(t, opsAfterFirst, len(h.rt.ops), "second teardown must not release anything again")
}

func TestDestroyReleaseOrder(t *testing.T) {
	h := newSessionHarness(t)
	require.NoError(t, h.sess.Start(nil))
	h.rt.ops = nil

	require.NoError(t, h.sess.Destroy())
	require.Equal(t, []string{
		"DestroySwapchain",
		"DestroySwapchain",
		"DestroySpace",
		"DestroySession",
	}, h.rt.ops)
	assert.Equal(t, 1, h.unbinds)
}

func TestDestroyAfterFailedStart(t *testing.T) {
	h := newSessionHarness(t)
	h.rt.createSwapchainErr = runtime.Errorf(runtime.ResultRuntimeFailure, "out of memory")
	h.rt.failSwapchainAt = 2

	err := h.sess.Start(nil)
	require.Error(t, err)

	// One swapchain was built before the failure; Destroy releases it and
	// the session handle, and nothing else.
	require.NoError(t, h.sess.Destroy())
	assert.Empty(t, h.rt.swapchains)
	assert.Zero(t, h.rt.session)
}

func TestRunningRequiresSessionHandle(t *testing.T) {
	h := newSessionHarness(t)
	assert.False(t, h.sess.Running())

	require.NoError(t, h.sess.Start(nil))
	assert.False(t, h.sess.Running(), "created but not ready is not running")
}
