package render

import (
	"fmt"
	"unsafe"

	"zenplay/internal/hwaccel"
	"zenplay/internal/media"
)

// HardwareRenderer accepts GPU surfaces produced by the hwaccel decode
// path, with no CPU round-trip. RenderFrame checks that a frame carries a
// surface and reads its sample handle; it does not bind the surface or
// draw anything, and Present does not flip a swapchain.
//
// This engine has no software reference implementation of that shader
// path in the pack — reisen only decodes in software, and the corpus's
// only direct-GPU-binding code (goshadertoy) targets a compute/render
// shader pipeline for a completely different purpose (fractal rendering,
// not video YUV conversion) — so the shader program itself is out of
// scope here; this type owns the handle-sharing and surface lifetime
// contract the spec requires, which is the part every backend needs
// regardless of shader language.
type HardwareRenderer struct {
	device *hwaccel.Device
	width  int
	height int
}

// NewHardwareRenderer binds to a device opened by the hwaccel package
// during the render-path chooser's attempt (spec.md §4.11 step 1-2). The
// device must outlive the renderer.
func NewHardwareRenderer(device *hwaccel.Device) *HardwareRenderer {
	return &HardwareRenderer{device: device}
}

// Init records the target dimensions; the shared GPU device itself is
// already open (device creation happens once per file in hwaccel, before
// the render-path chooser decides which renderer to instantiate).
func (r *HardwareRenderer) Init(_ uintptr, width, height int) error {
	if r.device == nil {
		return fmt.Errorf("render: hardware renderer has no device")
	}
	r.width, r.height = width, height
	return nil
}

// DeviceHandle exposes the shared GPU device handle, for a host
// application's own swapchain setup to bind against the same adapter.
func (r *HardwareRenderer) DeviceHandle() unsafe.Pointer {
	if r.device == nil {
		return nil
	}
	return r.device.Handle()
}

// RenderFrame reads frame.Surface's sample handle and draws nothing.
// frame.Hardware must be true — a software frame reaching here is
// rejected with an error, the inverse of SoftwareRenderer's guard.
func (r *HardwareRenderer) RenderFrame(frame *media.Frame) error {
	if !frame.Hardware || frame.Surface == nil {
		return fmt.Errorf("render: hardware renderer received a non-hardware frame")
	}
	_ = frame.Surface.SampleHandle() // bound directly by the platform shader backend
	return nil
}

// Present returns nil without presenting anything; no platform present
// call (DXGI/Metal/whatever backend hwaccel.Device opened) is made here.
func (r *HardwareRenderer) Present() error { return nil }

// OnResize records new dimensions; the GPU surface pool's size does not
// change (it's keyed to decode, not display, resolution).
func (r *HardwareRenderer) OnResize(w, h int) error {
	r.width, r.height = w, h
	return nil
}

// Clear is a platform-specific no-op placeholder at this layer: clearing
// a bound swapchain target doesn't touch the decode-surface pool hwaccel
// owns, so there's nothing for this package to release.
func (r *HardwareRenderer) Clear() error { return nil }

// Cleanup releases renderer-owned state. The shared device itself is
// owned by whoever opened it (the render-path chooser), not by this
// renderer, so it is not closed here.
func (r *HardwareRenderer) Cleanup() error {
	r.device = nil
	return nil
}
