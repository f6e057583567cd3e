package binding

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr/runtime"
)

// Software is a graphics binding with no GPU behind it. It satisfies every
// version requirement, takes the runtime's most preferred format, and
// submits by handing pixel data to images that accept uploads.
//
// It exists for the headless runtime, CI, and tests; a session on real
// hardware wants the wgpu binding.
type Software struct {
	provider gpucontext.DeviceProvider
}

// NewSoftware creates a software binding.
func NewSoftware() *Software {
	return &Software{}
}

// Type returns TypeSoftware.
func (s *Software) Type() Type { return TypeSoftware }

// CheckVersionRequirements always succeeds: there is no driver to be
// incompatible with.
func (s *Software) CheckVersionRequirements(gpucontext.DeviceProvider, runtime.GraphicsRequirements) (bool, string) {
	return true, ""
}

// InitFromContext stores the borrowed context.
func (s *Software) InitFromContext(provider gpucontext.DeviceProvider) error {
	s.provider = provider
	return nil
}

// SessionGraphicsBinding returns nil: the software binding has no device
// payload a runtime could composite through.
func (s *Software) SessionGraphicsBinding() any { return nil }

// ChooseSwapchainFormat takes the runtime's first preference.
func (s *Software) ChooseSwapchainFormat(candidates []gputypes.TextureFormat) (gputypes.TextureFormat, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[0], true
}

// WrapSwapchainImages passes runtime images through unchanged.
func (s *Software) WrapSwapchainImages(images []runtime.SwapchainImage) ([]any, error) {
	if s.provider == nil {
		return nil, ErrNotInitialized
	}
	wrapped := make([]any, len(images))
	copy(wrapped, images)
	return wrapped, nil
}

// SubmitToSwapchain uploads the rendered pixels if the image accepts them
// and silently succeeds otherwise.
func (s *Software) SubmitToSwapchain(image any, data []byte) error {
	if s.provider == nil {
		return ErrNotInitialized
	}
	if updater, ok := image.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(data); err != nil {
			return fmt.Errorf("binding: software submit failed: %w", err)
		}
	}
	return nil
}
