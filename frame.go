package xr

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gogpu/xr/runtime"
)

// frameTimeWindow is how many past frame durations the rolling average
// covers.
const frameTimeWindow = 8

// drawState is the per-active-session frame driver state: the current
// frame's timing token from WaitFrame plus a bounded history of past frame
// durations for diagnostics. Created when drawing preparation completes,
// discarded when the session ends.
type drawState struct {
	clock clockwork.Clock

	frameState runtime.FrameState
	frameBegin time.Time

	// lastFrameTimes holds at most frameTimeWindow entries, oldest first.
	lastFrameTimes []time.Duration
}

func newDrawState(clock clockwork.Clock) *drawState {
	return &drawState{clock: clock}
}

// recordFrameTime appends the just-finished frame's duration, evicting the
// oldest entry once the window is full, and returns the duration together
// with the rolling average.
func (d *drawState) recordFrameTime() (last, avg time.Duration) {
	last = d.clock.Since(d.frameBegin)

	if len(d.lastFrameTimes) >= frameTimeWindow {
		copy(d.lastFrameTimes, d.lastFrameTimes[1:])
		d.lastFrameTimes = d.lastFrameTimes[:frameTimeWindow-1]
	}
	d.lastFrameTimes = append(d.lastFrameTimes, last)

	var total time.Duration
	for _, t := range d.lastFrameTimes {
		total += t
	}
	return last, total / time.Duration(len(d.lastFrameTimes))
}

// Draw renders exactly one frame: wait for the runtime's pacing, begin the
// frame, render every view into its swapchain, and submit the composited
// layer. When the runtime reports the frame should not be rendered (display
// off, focus lost), the wait/begin/end cycle still completes with zero
// layers to keep the runtime's timing model consistent.
func (s *Session) Draw(customData any) error {
	if s.opts.renderFn == nil {
		return fmt.Errorf("%w: no view render callback configured; set one with WithViewRenderer "+
			"before drawing", ErrConfiguration)
	}
	if s.draw == nil {
		return fmt.Errorf("%w: Draw called before session drawing was prepared", ErrConfiguration)
	}

	if err := s.beginFrameDrawing(); err != nil {
		return err
	}

	var layers []*runtime.CompositionLayerProjection
	if s.draw.frameState.ShouldRender {
		layer, err := s.drawLayer(customData)
		if err != nil {
			return err
		}
		layers = append(layers, layer)
	}

	return s.endFrameDrawing(layers)
}

// beginFrameDrawing blocks until the runtime wants the next frame (the
// frame-rate synchronization point, and the primary suspension point of the
// whole session), then signals the frame start.
func (s *Session) beginFrameDrawing() error {
	frameState, err := s.rt.WaitFrame(s.handle)
	if err != nil {
		return runtimeCall(err, "failed to synchronize frame rates with the device")
	}
	if err := s.rt.BeginFrame(s.handle); err != nil {
		return runtimeCall(err, "failed to submit frame rendering start state")
	}

	s.draw.frameState = frameState
	if s.opts.debugTimes {
		s.draw.frameBegin = s.draw.clock.Now()
	}
	return nil
}

// drawLayer locates the views for the frame's predicted display time and
// renders each one, producing the frame's single projection layer.
func (s *Session) drawLayer(customData any) (*runtime.CompositionLayerProjection, error) {
	views, err := s.rt.LocateViews(s.handle, runtime.ViewLocateInfo{
		ViewConfigurationType: s.viewType,
		DisplayTime:           s.draw.frameState.PredictedDisplayTime,
		Space:                 s.space,
	})
	if err != nil {
		return nil, runtimeCall(err, "failed to query frame view and projection state")
	}
	if len(views) != len(s.pool.swapchains) {
		return nil, fmt.Errorf("xr: runtime located %d views but the session owns %d swapchains",
			len(views), len(s.pool.swapchains))
	}
	copy(s.views, views)

	layerViews := make([]runtime.CompositionLayerProjectionView, len(views))
	for i := range views {
		lv, err := s.drawView(s.pool.swapchains[i], views[i], customData)
		if err != nil {
			return nil, err
		}
		layerViews[i] = lv
	}

	return &runtime.CompositionLayerProjection{
		Space: s.space,
		Views: layerViews,
	}, nil
}

// drawView renders one view: acquire the next swapchain image, wait for it,
// hand the view description to the host's render callback, submit the
// result into the image, and release it. The acquire/wait/render/submit/
// release order is part of the runtime's contract and must not be
// reordered.
func (s *Session) drawView(sc *swapchain, view runtime.View, customData any) (runtime.CompositionLayerProjectionView, error) {
	var lv runtime.CompositionLayerProjectionView

	imageIdx, err := s.rt.AcquireSwapchainImage(sc.handle)
	if err != nil {
		return lv, runtimeCall(err, "failed to acquire swapchain image")
	}
	if err := s.rt.WaitSwapchainImage(sc.handle, s.opts.imageWaitTimeout); err != nil {
		return lv, runtimeCall(err, "failed to wait for swapchain image availability")
	}
	if imageIdx < 0 || imageIdx >= len(sc.images) {
		return lv, fmt.Errorf("xr: runtime acquired swapchain image index %d of %d",
			imageIdx, len(sc.images))
	}

	lv = runtime.CompositionLayerProjectionView{
		Pose: view.Pose,
		FOV:  view.FOV,
		SubImage: runtime.SwapchainSubImage{
			Swapchain: sc.handle,
			X:         0,
			Y:         0,
			Width:     s.pool.width,
			Height:    s.pool.height,
		},
	}

	info := DrawViewInfo{
		Pose:              view.Pose,
		FOV:               view.FOV,
		X:                 lv.SubImage.X,
		Y:                 lv.SubImage.Y,
		Width:             lv.SubImage.Width,
		Height:            lv.SubImage.Height,
		ExpectsSRGBBuffer: s.expectsSRGBBuffer(),
	}

	data, err := s.opts.renderFn(&info, customData)
	if err != nil {
		return lv, fmt.Errorf("xr: view render callback failed: %w", err)
	}
	if err := s.gfxBinding.SubmitToSwapchain(sc.images[imageIdx], data); err != nil {
		return lv, fmt.Errorf("xr: failed to submit rendered view to swapchain: %w", err)
	}

	if err := s.rt.ReleaseSwapchainImage(sc.handle); err != nil {
		return lv, runtimeCall(err, "failed to release swapchain image used for frame submission")
	}
	return lv, nil
}

// expectsSRGBBuffer reports whether the render callback should produce an
// sRGB-encoded buffer. Windows Mixed Reality does not apply the OETF
// transform correctly, so an sRGB buffer is expected there to compensate.
func (s *Session) expectsSRGBBuffer() bool {
	return s.rt.ID() == runtime.IDWindowsMixedReality
}

// endFrameDrawing submits the composited layer list (possibly empty) with
// the frame's predicted display time, then reports frame timing when debug
// timing is enabled.
func (s *Session) endFrameDrawing(layers []*runtime.CompositionLayerProjection) error {
	err := s.rt.EndFrame(s.handle, runtime.FrameEndInfo{
		DisplayTime: s.draw.frameState.PredictedDisplayTime,
		BlendMode:   runtime.BlendModeOpaque,
		Layers:      layers,
	})
	if err != nil {
		return runtimeCall(err, "failed to submit rendered frame")
	}

	if s.opts.debugTimes {
		last, avg := s.draw.recordFrameTime()
		Logger().Debug("xr: frame rendered",
			"session", s.id,
			"duration_ms", float64(last.Microseconds())/1000.0,
			"fps", perSecond(last),
			"avg_fps", perSecond(avg))
	}
	return nil
}

// perSecond converts a frame duration into a rate. Zero durations (fake
// clocks, sub-microsecond frames) report zero rather than +Inf.
func perSecond(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(time.Second) / float64(d)
}
