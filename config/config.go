// Package config implements the dotted-path configuration contract
// spec.md §6 describes, plus the two collaborators that satisfy it: an
// in-memory default used when the host application has no config file of
// its own, and a JSON file-backed source that hot-reloads on change.
package config

// Source is the external collaborator the engine reads configuration
// through. Keys are dotted paths (e.g. "render.use_hardware_acceleration",
// "player.audio.sample_rate") against a nested JSON-object-shaped value
// tree. Writes happen on the configuration I/O thread, off any playback
// critical path, per spec.md §5's thread table.
type Source interface {
	GetBool(path string, fallback bool) bool
	GetInt(path string, fallback int) int
	GetFloat(path string, fallback float64) float64
	GetString(path string, fallback string) string
	GetStringSlice(path string, fallback []string) []string

	Set(path string, value any)

	// OnChange registers fn to be called whenever the backing
	// configuration changes (e.g. a hot-reloaded file edit). Returns an
	// unsubscribe function. Source implementations that never change
	// out from under the caller (InMemorySource) may treat this as a
	// no-op returning a no-op unsubscribe.
	OnChange(fn func()) (unsubscribe func())
}

// Keys is the dotted-path key list spec.md §6 enumerates, exported as
// named constants so callers don't scatter string literals.
const (
	KeyUseHardwareAcceleration = "render.use_hardware_acceleration"
	KeyAllowD3D11VA            = "render.hardware.allow_d3d11va"
	KeyAllowDXVA2              = "render.hardware.allow_dxva2"
	KeyAllowFallback           = "render.hardware.allow_fallback"
	KeyBackendPriority         = "render.backend_priority"
	KeyAudioBufferSize         = "player.audio.buffer_size"
	KeyAudioSampleRate         = "player.audio.sample_rate"
	KeyAudioChannels           = "player.audio.channels"
	KeyAudioVolume             = "player.audio.volume"
)

// Defaults returns an in-memory Source pre-populated with spec.md §6's
// documented default values, for callers that don't supply their own
// config file.
func Defaults() *InMemorySource {
	s := NewInMemorySource()
	s.Set(KeyUseHardwareAcceleration, true)
	s.Set(KeyAllowD3D11VA, true)
	s.Set(KeyAllowDXVA2, true)
	s.Set(KeyAllowFallback, true)
	s.Set(KeyBackendPriority, []string{"d3d11va", "dxva2", "vaapi", "videotoolbox"})
	s.Set(KeyAudioBufferSize, 4096)
	s.Set(KeyAudioSampleRate, 44100)
	s.Set(KeyAudioChannels, 2)
	s.Set(KeyAudioVolume, 1.0)
	return s
}
