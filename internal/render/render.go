// Package render implements the renderer contract and thread-affinity
// proxy from spec.md §4.10-4.11: a software variant that uploads decoded
// pixels to a display texture, and a hardware variant that samples a GPU
// surface directly with no CPU round-trip.
package render

import "zenplay/internal/media"

// Renderer is the contract both variants implement, called exclusively
// through Proxy per spec.md §4.10.
type Renderer interface {
	Init(windowHandle uintptr, width, height int) error
	RenderFrame(frame *media.Frame) error
	Present() error
	OnResize(w, h int) error
	Clear() error
	Cleanup() error
}

// Proxy wraps an inner Renderer and enforces that every call happens on
// the designated UI thread: calls originating there go straight through;
// calls from any other goroutine are marshaled onto the UI thread's task
// channel and block for the result. This is the only sanctioned path to
// native-graphics resources, mirroring ebiten's own single-threaded-
// image-access rule (every ebiten.Image method must run on the game's
// Update/Draw goroutine).
//
// Go has no portable way to ask "is this the same goroutine that called
// Run", so callers state it explicitly via the isUIThread parameter each
// proxied method takes — the video player's dedicated render thread
// always passes false, ebiten's Update/Draw callback always passes true.
type Proxy struct {
	inner Renderer
	tasks chan func()
}

// NewProxy wraps inner; it does not start the UI-thread task pump. Run
// must be called from the goroutine driving the UI event loop (typically
// ebiten.Game.Update on its first invocation, or directly before
// ebiten.RunGame for engines that own their own loop).
func NewProxy(inner Renderer) *Proxy {
	return &Proxy{inner: inner, tasks: make(chan func())}
}

// Run pumps proxied tasks until the proxy is closed via Cleanup. Call it
// once, from the UI thread, before any off-thread caller invokes a
// proxied method.
func (p *Proxy) Run() {
	for task := range p.tasks {
		task()
	}
}

func (p *Proxy) dispatch(isUIThread bool, fn func() error) error {
	if isUIThread {
		return fn()
	}
	done := make(chan error, 1)
	p.tasks <- func() { done <- fn() }
	return <-done
}

// Init proxies Renderer.Init.
func (p *Proxy) Init(isUIThread bool, windowHandle uintptr, width, height int) error {
	return p.dispatch(isUIThread, func() error { return p.inner.Init(windowHandle, width, height) })
}

// RenderFrame proxies Renderer.RenderFrame.
func (p *Proxy) RenderFrame(isUIThread bool, frame *media.Frame) error {
	return p.dispatch(isUIThread, func() error { return p.inner.RenderFrame(frame) })
}

// Present proxies Renderer.Present.
func (p *Proxy) Present(isUIThread bool) error {
	return p.dispatch(isUIThread, func() error { return p.inner.Present() })
}

// OnResize proxies Renderer.OnResize.
func (p *Proxy) OnResize(isUIThread bool, w, h int) error {
	return p.dispatch(isUIThread, func() error { return p.inner.OnResize(w, h) })
}

// Clear proxies Renderer.Clear.
func (p *Proxy) Clear(isUIThread bool) error {
	return p.dispatch(isUIThread, func() error { return p.inner.Clear() })
}

// Cleanup proxies Renderer.Cleanup and then stops the task pump. No
// further proxied calls may be made afterward.
func (p *Proxy) Cleanup(isUIThread bool) error {
	err := p.dispatch(isUIThread, func() error { return p.inner.Cleanup() })
	close(p.tasks)
	return err
}
