package decode

import (
	"testing"
	"time"
)

// VideoDecoder and AudioDecoder wrap reisen's concrete stream types
// directly (reisen has no interface seam to fake), so there is no
// in-package way to exercise Decode/Flush without a real opened source.
// The pairing between a demuxer's ReadPacket and the matching decoder's
// Decode call is instead covered by internal/controller's fake-backed
// pipeline test, against the streamDecoder interface controller.go
// declares. This file covers the one pure helper in this package.
func TestPtsToMS(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want float64
	}{
		{0, 0},
		{time.Second, 1000},
		{1500 * time.Millisecond, 1500},
		{250 * time.Microsecond, 0.25},
	}
	for _, c := range cases {
		if got := ptsToMS(c.d); got != c.want {
			t.Errorf("ptsToMS(%v) = %v, want %v", c.d, got, c.want)
		}
	}
}
