package hwaccel

import "testing"

func TestBackendString(t *testing.T) {
	cases := map[Backend]string{
		BackendNone:         "none",
		BackendD3D11VA:      "d3d11va",
		BackendDXVA2:        "dxva2",
		BackendVAAPI:        "vaapi",
		BackendVideoToolbox: "videotoolbox",
	}
	for b, want := range cases {
		if got := b.String(); got != want {
			t.Errorf("Backend(%d).String() = %q, want %q", b, got, want)
		}
	}
}

func TestOpenDeviceRejectsUnsupportedBackend(t *testing.T) {
	if _, err := OpenDevice(BackendNone); err == nil {
		t.Fatal("expected error opening BackendNone")
	}
}
