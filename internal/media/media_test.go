package media

import "testing"

func TestFrameReleaseCallsHardwareSurfaceOnce(t *testing.T) {
	calls := 0
	f := &Frame{
		Hardware: true,
		Surface:  fakeSurface{onRelease: func() { calls++ }},
	}
	f.Release()
	if calls != 1 {
		t.Fatalf("expected exactly 1 release call, got %d", calls)
	}
}

func TestSoftwareFrameReleaseIsNoop(t *testing.T) {
	f := &Frame{Hardware: false, Pix: []byte{1, 2, 3, 4}}
	f.Release() // must not panic
}

func TestPresentationDurationConversion(t *testing.T) {
	f := &Frame{PresentationMS: 1500}
	if got := f.PresentationDuration(); got.Milliseconds() != 1500 {
		t.Fatalf("expected 1500ms, got %v", got)
	}
}

type fakeSurface struct {
	onRelease func()
}

func (f fakeSurface) Release()            { f.onRelease() }
func (f fakeSurface) SampleHandle() any { return nil }
