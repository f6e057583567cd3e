// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wgpu implements the graphics binding for the pure-Go WebGPU
// stack. The session's borrowed graphics context supplies texture access
// through gpucontext interfaces; device identity for runtime compositing is
// carried as wgpu core IDs.
package wgpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/binding"
	"github.com/gogpu/xr/runtime"
)

// apiVersion is the WebGPU implementation version this binding reports when
// the runtime checks graphics requirements.
var apiVersion = runtime.Version{Major: 0, Minor: 27, Patch: 1}

// SessionBinding is the payload handed to Runtime.CreateSession. Runtimes
// compositing through wgpu read the device and queue from it.
type SessionBinding struct {
	Device core.DeviceID
	Queue  core.QueueID
}

// Binding is the wgpu graphics binding.
type Binding struct {
	device  core.DeviceID
	queue   core.QueueID
	adapter core.AdapterID

	provider gpucontext.DeviceProvider
}

var _ binding.GraphicsBinding = (*Binding)(nil)

// New creates a wgpu binding from the host's device identity. The IDs are
// borrowed: the binding never drops them, their lifetime belongs to whoever
// created the device.
func New(device core.DeviceID, queue core.QueueID, adapter core.AdapterID) *Binding {
	return &Binding{device: device, queue: queue, adapter: adapter}
}

// Type returns binding.TypeWGPU.
func (b *Binding) Type() binding.Type { return binding.TypeWGPU }

// CheckVersionRequirements compares the WebGPU implementation version
// against the runtime's constraints.
func (b *Binding) CheckVersionRequirements(_ gpucontext.DeviceProvider, reqs runtime.GraphicsRequirements) (bool, string) {
	if !apiVersion.AtLeast(reqs.MinAPIVersion) {
		return false, fmt.Sprintf("WebGPU version >= %s (have %s)", reqs.MinAPIVersion, apiVersion)
	}
	return true, ""
}

// InitFromContext stores the borrowed context and logs the GPU the session
// will render on.
func (b *Binding) InitFromContext(provider gpucontext.DeviceProvider) error {
	b.provider = provider
	b.logAdapterInfo()
	return nil
}

// logAdapterInfo logs information about the selected GPU, if an adapter ID
// was supplied.
func (b *Binding) logAdapterInfo() {
	if b.adapter.IsZero() {
		return
	}
	info, err := core.GetAdapterInfo(b.adapter)
	if err != nil {
		xr.Logger().Warn("wgpu: failed to get GPU info", "error", err)
		return
	}
	xr.Logger().Info("wgpu: GPU selected for XR session",
		"name", info.Name, "backend", info.Backend, "driver", info.Driver)
}

// SessionGraphicsBinding returns the device/queue payload for session
// creation.
func (b *Binding) SessionGraphicsBinding() any {
	return SessionBinding{Device: b.device, Queue: b.queue}
}

// ChooseSwapchainFormat prefers the context's surface format so composited
// frames need no conversion, then falls back to the plain 8-bit color
// formats, then to the runtime's first preference.
func (b *Binding) ChooseSwapchainFormat(candidates []gputypes.TextureFormat) (gputypes.TextureFormat, bool) {
	if len(candidates) == 0 {
		return 0, false
	}

	preferred := []gputypes.TextureFormat{
		gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatRGBA8Unorm,
	}
	if b.provider != nil {
		preferred = append([]gputypes.TextureFormat{b.provider.SurfaceFormat()}, preferred...)
	}

	for _, want := range preferred {
		for _, have := range candidates {
			if have == want {
				return have, true
			}
		}
	}
	return candidates[0], true
}

// WrapSwapchainImages verifies every runtime image accepts pixel uploads
// through gpucontext.TextureUpdater.
func (b *Binding) WrapSwapchainImages(images []runtime.SwapchainImage) ([]any, error) {
	if b.provider == nil {
		return nil, binding.ErrNotInitialized
	}
	wrapped := make([]any, len(images))
	for i, img := range images {
		if _, ok := img.(gpucontext.TextureUpdater); !ok {
			return nil, fmt.Errorf("wgpu: swapchain image %d (%T) does not support data upload", i, img)
		}
		wrapped[i] = img
	}
	return wrapped, nil
}

// SubmitToSwapchain uploads the rendered view into the acquired image.
func (b *Binding) SubmitToSwapchain(image any, data []byte) error {
	if b.provider == nil {
		return binding.ErrNotInitialized
	}
	updater, ok := image.(gpucontext.TextureUpdater)
	if !ok {
		return fmt.Errorf("wgpu: swapchain image %T does not support data upload", image)
	}
	if err := updater.UpdateData(data); err != nil {
		return fmt.Errorf("wgpu: swapchain image upload failed: %w", err)
	}
	return nil
}
