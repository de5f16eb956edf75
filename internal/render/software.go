package render

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"zenplay/internal/media"
)

// SoftwareRenderer uploads a decoded frame's packed RGBA pixels to an
// ebiten.Image and draws it into the viewport, scaled and letterboxed to
// preserve aspect ratio. Grounded directly on draw.go's Draw/CalcProjection
// — that logic is copied here near verbatim because it already is exactly
// the "upload to display texture and present" contract spec.md §4.11 asks
// of the software path; the only change is accepting a *media.Frame
// instead of an already-wrapped *ebiten.Image.
type SoftwareRenderer struct {
	viewport      *ebiten.Image
	frameImg      *ebiten.Image
	width, height int
}

// NewSoftwareRenderer constructs an unopened software renderer.
func NewSoftwareRenderer() *SoftwareRenderer {
	return &SoftwareRenderer{}
}

// Init allocates the destination frame texture. windowHandle is unused by
// the software path (ebiten owns the window itself); it is accepted only
// to satisfy the Renderer contract shared with the hardware variant.
func (r *SoftwareRenderer) Init(_ uintptr, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render: invalid frame size %dx%d", width, height)
	}
	r.width, r.height = width, height
	r.frameImg = ebiten.NewImage(width, height)
	r.frameImg.Fill(color.Black)
	return nil
}

// BindViewport sets the destination image Present draws into; the host
// application supplies this every frame (typically the ebiten.Game's
// screen argument inside Draw).
func (r *SoftwareRenderer) BindViewport(viewport *ebiten.Image) {
	r.viewport = viewport
}

// RenderFrame uploads frame.Pix into the frame texture. frame.Hardware
// must be false; a hardware-backed frame reaching here is a programmer
// error (the render-path chooser in §4.11 guarantees the two never mix
// within one open file).
func (r *SoftwareRenderer) RenderFrame(frame *media.Frame) error {
	if frame.Hardware {
		return fmt.Errorf("render: software renderer received a hardware frame")
	}
	if r.frameImg == nil {
		return fmt.Errorf("render: not initialized")
	}
	r.frameImg.WritePixels(frame.Pix)
	return nil
}

// Present draws the frame texture into the bound viewport, scaled to fit
// while preserving aspect ratio (letterboxed, no bars explicitly drawn —
// draw.go's exact behavior).
func (r *SoftwareRenderer) Present() error {
	if r.viewport == nil || r.frameImg == nil {
		return fmt.Errorf("render: not initialized")
	}
	geom, filter := calcProjection(r.viewport, r.frameImg)
	var opts ebiten.DrawImageOptions
	opts.GeoM = geom
	opts.Filter = filter
	r.viewport.DrawImage(r.frameImg, &opts)
	return nil
}

// OnResize is a no-op for the software path: Present recomputes the
// projection from the viewport's current bounds on every call, so there
// is nothing to resize eagerly.
func (r *SoftwareRenderer) OnResize(int, int) error { return nil }

// Clear fills the frame texture black, used when transitioning to Idle or
// on open failure so no stale frame lingers on screen.
func (r *SoftwareRenderer) Clear() error {
	if r.frameImg == nil {
		return nil
	}
	r.frameImg.Fill(color.Black)
	return nil
}

// Cleanup releases the frame texture.
func (r *SoftwareRenderer) Cleanup() error {
	r.frameImg = nil
	r.viewport = nil
	return nil
}

// calcProjection is draw.go's CalcProjection, unchanged.
func calcProjection(viewport, frame *ebiten.Image) (ebiten.GeoM, ebiten.Filter) {
	frameBounds := frame.Bounds()
	viewBounds := viewport.Bounds()
	vwWidth, vwHeight := viewBounds.Dx(), viewBounds.Dy()
	frWidth, frHeight := frameBounds.Dx(), frameBounds.Dy()

	tx, ty := float64(viewBounds.Min.X), float64(viewBounds.Min.Y)

	var geom ebiten.GeoM
	var filter ebiten.Filter = ebiten.FilterLinear
	wf, hf := float64(vwWidth)/float64(frWidth), float64(vwHeight)/float64(frHeight)
	sf := wf
	if hf < wf {
		sf = hf
	}
	if sf == 1.0 {
		offx := (float64(vwWidth) - float64(frWidth)) / 2
		offy := (float64(vwHeight) - float64(frHeight)) / 2
		geom.Translate(tx+offx, ty+offy)
	} else {
		sfrWidth := float64(frWidth) * sf
		sfrHeight := float64(frHeight) * sf
		geom.Scale(sf, sf)
		geom.Translate(tx+(float64(vwWidth)-sfrWidth)/2, ty+(float64(vwHeight)-sfrHeight)/2)
	}
	return geom, filter
}
