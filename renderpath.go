package zenplay

import (
	"strings"

	"zenplay/config"
	"zenplay/internal/demux"
	"zenplay/internal/hwaccel"
	"zenplay/internal/render"
)

// chooseRenderPath implements the render-path chooser spec.md §4.11
// describes, run inside Open after demuxing: try hardware acceleration
// per the configured backend priority, falling back to software on any
// failure (or immediately if hardware acceleration is disabled in
// configuration).
func (p *Player) chooseRenderPath(d *demux.Demuxer) (render.Renderer, *hwaccel.Device) {
	if !p.config.GetBool(config.KeyUseHardwareAcceleration, true) {
		return render.NewSoftwareRenderer(), nil
	}

	for _, name := range p.config.GetStringSlice(config.KeyBackendPriority, defaultBackendPriority) {
		backend, ok := backendFromName(name)
		if !ok || !p.backendAllowed(backend) {
			continue
		}

		device, err := hwaccel.OpenDevice(backend)
		if err != nil {
			continue
		}
		return render.NewHardwareRenderer(device), device
	}

	if !p.config.GetBool(config.KeyAllowFallback, true) {
		pkgLogger.Printf("WARNING: hardware acceleration requested but unavailable, and fallback is disabled; using the software renderer anyway")
	}
	return render.NewSoftwareRenderer(), nil
}

func (p *Player) backendAllowed(b hwaccel.Backend) bool {
	switch b {
	case hwaccel.BackendD3D11VA:
		return p.config.GetBool(config.KeyAllowD3D11VA, true)
	case hwaccel.BackendDXVA2:
		return p.config.GetBool(config.KeyAllowDXVA2, true)
	default:
		return true
	}
}

func backendFromName(name string) (hwaccel.Backend, bool) {
	switch strings.ToLower(name) {
	case "d3d11va":
		return hwaccel.BackendD3D11VA, true
	case "dxva2":
		return hwaccel.BackendDXVA2, true
	case "vaapi":
		return hwaccel.BackendVAAPI, true
	case "videotoolbox":
		return hwaccel.BackendVideoToolbox, true
	default:
		return hwaccel.BackendNone, false
	}
}

var defaultBackendPriority = []string{"d3d11va", "dxva2", "vaapi", "videotoolbox"}
