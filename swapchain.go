package xr

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr/runtime"
)

// swapchain is one view's ring of render targets: the runtime-owned handle
// plus the binding-wrapped images, indexed by acquire order.
type swapchain struct {
	handle runtime.SwapchainHandle
	images []any
}

// swapchainPool is the session's per-view swapchains, created once during
// session preparation and destroyed with the session. All swapchains share
// the dimensions of the last processed view configuration; per-view
// heterogeneous resolutions are unsupported.
type swapchainPool struct {
	swapchains []*swapchain
	width      int32
	height     int32
}

// destroy releases every swapchain at the runtime. Failures are collected
// so teardown runs to completion.
func (p *swapchainPool) destroy(rt runtime.Runtime) []error {
	var errs []error
	for _, sc := range p.swapchains {
		if sc.handle.IsZero() {
			continue
		}
		if err := rt.DestroySwapchain(sc.handle); err != nil {
			errs = append(errs, runtimeCall(err, "failed to destroy swapchain"))
		}
		sc.handle = 0
		sc.images = nil
	}
	p.swapchains = nil
	return errs
}

// prepareDrawing builds the swapchain pool from the runtime's view
// configuration enumeration and sets up per-frame state. One swapchain per
// view; the counts must agree for the lifetime of the session.
func (s *Session) prepareDrawing() error {
	viewConfigs, err := s.rt.EnumerateViewConfigurationViews(s.system, s.viewType)
	if err != nil {
		return runtimeCall(err, "failed to get view configurations")
	}

	formats, err := s.rt.EnumerateSwapchainFormats(s.handle)
	if err != nil {
		return runtimeCall(err, "failed to get swapchain image formats")
	}

	pool := &swapchainPool{}
	for i := range viewConfigs {
		sc, err := s.createSwapchain(&viewConfigs[i], formats)
		if err != nil {
			// Leave already built swapchains in place for Destroy.
			s.pool = pool
			return err
		}
		pool.width = viewConfigs[i].RecommendedImageRectWidth
		pool.height = viewConfigs[i].RecommendedImageRectHeight
		pool.swapchains = append(pool.swapchains, sc)
	}

	s.pool = pool
	s.views = make([]runtime.View, len(viewConfigs))
	s.draw = newDrawState(s.opts.clock)
	return nil
}

// createSwapchain negotiates a format and creates one view's swapchain,
// sized to the runtime's recommendation, then wraps its images through the
// graphics binding. On a failure after creation, the runtime handle is
// released before returning so no half-built swapchain leaks.
func (s *Session) createSwapchain(view *runtime.ViewConfigurationView, formats []gputypes.TextureFormat) (*swapchain, error) {
	format, ok := s.gfxBinding.ChooseSwapchainFormat(formats)
	if !ok {
		return nil, fmt.Errorf("%w: no format in common between the runtime (%d offered) and the "+
			"%s graphics binding", ErrUnsupportedFormat, len(formats), s.gfxBinding.Type())
	}

	handle, err := s.rt.CreateSwapchain(s.handle, runtime.SwapchainCreateInfo{
		Usage:       runtime.SwapchainUsageSampled | runtime.SwapchainUsageColorAttachment,
		Format:      format,
		SampleCount: view.RecommendedSwapchainSampleCount,
		Width:       view.RecommendedImageRectWidth,
		Height:      view.RecommendedImageRectHeight,
		FaceCount:   1,
		ArraySize:   1,
		MipCount:    1,
	})
	if err != nil {
		return nil, runtimeCall(err, "failed to create swapchain")
	}

	raw, err := s.rt.EnumerateSwapchainImages(handle)
	if err != nil {
		_ = s.rt.DestroySwapchain(handle)
		return nil, runtimeCall(err, "failed to enumerate swapchain images")
	}
	images, err := s.gfxBinding.WrapSwapchainImages(raw)
	if err != nil {
		_ = s.rt.DestroySwapchain(handle)
		return nil, fmt.Errorf("xr: failed to wrap swapchain images: %w", err)
	}

	return &swapchain{handle: handle, images: images}, nil
}
