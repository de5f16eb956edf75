package audiodevice

import (
	"io"
	"testing"
)

func TestReaderAdapterDelegatesToFill(t *testing.T) {
	d := &ebitenDevice{}
	d.fill = func(buf []byte) int {
		for i := range buf {
			buf[i] = byte(i)
		}
		return len(buf)
	}

	r := readerAdapter{d: d}
	buf := make([]byte, 8)
	n, err := r.Read(buf)
	if err != nil || n != 8 {
		t.Fatalf("Read() = %d, %v", n, err)
	}
	for i, b := range buf {
		if b != byte(i) {
			t.Fatalf("buf[%d] = %d, want %d", i, b, i)
		}
	}
}

func TestReaderAdapterWritesSilenceWithoutFill(t *testing.T) {
	d := &ebitenDevice{}
	r := readerAdapter{d: d}
	buf := []byte{1, 2, 3, 4}
	n, err := r.Read(buf)
	if err != nil || n != 4 {
		t.Fatalf("Read() = %d, %v", n, err)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected silence, got %v", buf)
		}
	}
}

func TestReaderAdapterReturnsEOFAfterClose(t *testing.T) {
	d := &ebitenDevice{closed: true}
	r := readerAdapter{d: d}
	_, err := r.Read(make([]byte, 4))
	if err != io.EOF {
		t.Fatalf("expected io.EOF after close, got %v", err)
	}
}

func TestBufferedFramesFalseBeforeStart(t *testing.T) {
	d := &ebitenDevice{}
	if _, ok := d.BufferedFrames(); ok {
		t.Fatal("expected BufferedFrames to report false before Start")
	}
}

func TestNewEbitenDeviceDefaultsToFullVolumeUnmuted(t *testing.T) {
	d := NewEbitenDevice()
	if got := d.Volume(); got != 1.0 {
		t.Fatalf("expected default volume 1.0, got %v", got)
	}
	if d.Muted() {
		t.Fatal("expected unmuted by default")
	}
}

func TestSetVolumeClampsToUnitRange(t *testing.T) {
	d := &ebitenDevice{}
	d.SetVolume(1.5)
	if got := d.Volume(); got != 1.0 {
		t.Fatalf("expected clamp to 1.0, got %v", got)
	}
	d.SetVolume(-0.5)
	if got := d.Volume(); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

func TestSetVolumeBeforeStartIsRemembered(t *testing.T) {
	d := &ebitenDevice{}
	d.SetVolume(0.25)
	if got := d.Volume(); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}

func TestSetMutedPreservesConfiguredVolume(t *testing.T) {
	d := &ebitenDevice{volume: 0.7}
	d.SetMuted(true)
	if !d.Muted() {
		t.Fatal("expected muted=true")
	}
	if got := d.Volume(); got != 0.7 {
		t.Fatalf("expected Volume() to still report 0.7 while muted, got %v", got)
	}
	d.SetMuted(false)
	if d.Muted() {
		t.Fatal("expected muted=false after unmute")
	}
	if got := d.Volume(); got != 0.7 {
		t.Fatalf("expected 0.7 preserved after unmute, got %v", got)
	}
}
