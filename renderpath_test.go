package zenplay

import (
	"testing"

	"zenplay/config"
	"zenplay/internal/hwaccel"
)

func TestBackendFromNameIsCaseInsensitive(t *testing.T) {
	cases := []struct {
		name string
		want hwaccel.Backend
	}{
		{"d3d11va", hwaccel.BackendD3D11VA},
		{"D3D11VA", hwaccel.BackendD3D11VA},
		{"dxva2", hwaccel.BackendDXVA2},
		{"vaapi", hwaccel.BackendVAAPI},
		{"VideoToolbox", hwaccel.BackendVideoToolbox},
	}
	for _, c := range cases {
		got, ok := backendFromName(c.name)
		if !ok || got != c.want {
			t.Errorf("backendFromName(%q) = %v, %v; want %v, true", c.name, got, ok, c.want)
		}
	}
}

func TestBackendFromNameRejectsUnknown(t *testing.T) {
	if _, ok := backendFromName("nvenc"); ok {
		t.Fatal("expected unknown backend name to report not-ok")
	}
}

func TestBackendAllowedHonorsPerBackendFlags(t *testing.T) {
	p := NewPlayer(nil)
	p.config.Set(config.KeyAllowD3D11VA, false)
	if p.backendAllowed(hwaccel.BackendD3D11VA) {
		t.Fatal("expected d3d11va to be disallowed once its flag is false")
	}
	if !p.backendAllowed(hwaccel.BackendDXVA2) {
		t.Fatal("expected dxva2 to remain allowed")
	}
}

func TestBackendAllowedDefaultsTrueForBackendsWithoutAFlag(t *testing.T) {
	p := NewPlayer(nil)
	if !p.backendAllowed(hwaccel.BackendVAAPI) {
		t.Fatal("expected vaapi to be allowed by default (no dedicated flag)")
	}
}
