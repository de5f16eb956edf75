package demux

import (
	"testing"
	"time"
)

func TestSchemeOf(t *testing.T) {
	cases := []struct {
		url  string
		want Scheme
	}{
		{"/tmp/movie.mp4", SchemeFile},
		{"movie.mkv", SchemeFile},
		{"http://example.com/stream.m3u8", SchemeHTTP},
		{"https://example.com/stream.m3u8", SchemeHTTP},
		{"rtsp://camera.local/live", SchemeRTSP},
		{"rtmp://ingest.example.com/app/key", SchemeRTMP},
		{"udp://239.0.0.1:1234", SchemeUDP},
	}
	for _, c := range cases {
		if got := schemeOf(c.url); got != c.want {
			t.Errorf("schemeOf(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}

func TestOptionsForSchemeMatchesTable(t *testing.T) {
	http := optionsForScheme(SchemeHTTP)
	if http.BufferSizeBytes != 10<<20 || http.Timeout != 2*time.Second || !http.Reconnect || !http.FollowRedirects {
		t.Fatalf("HTTP options don't match spec table: %+v", http)
	}

	rtsp := optionsForScheme(SchemeRTSP)
	if !rtsp.TCPTransport || rtsp.BufferSizeBytes != 5<<20 {
		t.Fatalf("RTSP options don't match spec table: %+v", rtsp)
	}

	rtmp := optionsForScheme(SchemeRTMP)
	if !rtmp.LiveMode {
		t.Fatalf("RTMP options don't match spec table: %+v", rtmp)
	}

	udp := optionsForScheme(SchemeUDP)
	if udp.BufferSizeBytes != 1<<20 || udp.Timeout != time.Second {
		t.Fatalf("UDP options don't match spec table: %+v", udp)
	}

	file := optionsForScheme(SchemeFile)
	if file.BufferSizeBytes != 0 || file.Timeout != 0 || file.Reconnect {
		t.Fatalf("local file should carry no extra options: %+v", file)
	}
}
