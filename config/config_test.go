package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInMemorySourceGetSetRoundTrip(t *testing.T) {
	s := NewInMemorySource()
	s.Set(KeyUseHardwareAcceleration, true)
	s.Set(KeyAudioSampleRate, 48000)
	s.Set(KeyAudioVolume, 0.8)
	s.Set(KeyBackendPriority, []string{"d3d11va", "dxva2"})

	if !s.GetBool(KeyUseHardwareAcceleration, false) {
		t.Fatal("expected stored bool true")
	}
	if got := s.GetInt(KeyAudioSampleRate, -1); got != 48000 {
		t.Fatalf("expected 48000, got %d", got)
	}
	if got := s.GetFloat(KeyAudioVolume, -1); got != 0.8 {
		t.Fatalf("expected 0.8, got %v", got)
	}
	if got := s.GetStringSlice(KeyBackendPriority, nil); len(got) != 2 || got[0] != "d3d11va" {
		t.Fatalf("unexpected slice %v", got)
	}
}

func TestInMemorySourceFallbackOnMissingKey(t *testing.T) {
	s := NewInMemorySource()
	if got := s.GetInt("player.audio.sample_rate", 44100); got != 44100 {
		t.Fatalf("expected fallback 44100, got %d", got)
	}
}

func TestDefaultsMatchesDocumentedValues(t *testing.T) {
	d := Defaults()
	if !d.GetBool(KeyUseHardwareAcceleration, false) {
		t.Fatal("expected hardware acceleration default true")
	}
	if got := d.GetInt(KeyAudioSampleRate, 0); got != 44100 {
		t.Fatalf("expected default sample rate 44100, got %d", got)
	}
	if got := d.GetInt(KeyAudioChannels, 0); got != 2 {
		t.Fatalf("expected default channels 2, got %d", got)
	}
}

func TestTreeGetSetNestedPaths(t *testing.T) {
	tr := make(tree)
	tr.set("render.hardware.allow_d3d11va", true)
	tr.set("render.use_hardware_acceleration", false)

	v, ok := tr.get("render.hardware.allow_d3d11va")
	if !ok || v != true {
		t.Fatalf("expected nested value true, got %v ok=%v", v, ok)
	}
	v2, ok2 := tr.get("render.use_hardware_acceleration")
	if !ok2 || v2 != false {
		t.Fatalf("expected sibling value false, got %v ok=%v", v2, ok2)
	}
	if _, ok := tr.get("render.nonexistent.path"); ok {
		t.Fatal("expected missing path to report not-ok")
	}
}

func TestFileSourcePersistsAndReloadsOnExternalWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zenplay.json")

	s, err := OpenFileSource(path)
	if err != nil {
		t.Fatalf("OpenFileSource: %v", err)
	}
	defer s.Close()

	s.Set(KeyAudioSampleRate, 44100)
	if got := s.GetInt(KeyAudioSampleRate, 0); got != 44100 {
		t.Fatalf("expected 44100 immediately after Set, got %d", got)
	}

	changed := make(chan struct{}, 1)
	unsub := s.OnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsub()

	s2, err := OpenFileSource(path)
	if err != nil {
		t.Fatalf("second OpenFileSource: %v", err)
	}
	defer s2.Close()
	s2.Set(KeyAudioSampleRate, 48000)

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected OnChange notification after external write")
	}

	if got := s.GetInt(KeyAudioSampleRate, 0); got != 48000 {
		t.Fatalf("expected reloaded value 48000, got %d", got)
	}
}

func TestFileSourceOpenCreatesMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "zenplay.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	s, err := OpenFileSource(path)
	if err != nil {
		t.Fatalf("OpenFileSource on missing file: %v", err)
	}
	defer s.Close()

	if got := s.GetBool(KeyUseHardwareAcceleration, true); !got {
		t.Fatal("expected fallback true on an empty freshly created file")
	}
}
