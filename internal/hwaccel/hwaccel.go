// Package hwaccel implements the hardware decoder context from spec.md
// §4.5: device allocation, the get_format/get_hw_frames_parameters pool
// sizing sequence, and the shared GPU device handle the renderer binds to
// for zero-copy sampling.
//
// The cgo shape (a C struct holding the FFmpeg contexts, a Go wrapper
// calling into it through CGoString/CBytes-style helpers) follows
// pkg/mpeg/player.go's videoDecoder/Decoder split; the backend-priority
// list per codec is the same pattern as that file's priority_decoders
// table, generalized from "pick the first available decoder" into
// "allocate a matching hw device context for the configured backend".
package hwaccel

/*
#cgo pkg-config: libavcodec libavutil

#include <stdlib.h>
#include <libavcodec/avcodec.h>
#include <libavutil/hwcontext.h>
#include <libavutil/hwcontext_d3d11va.h>
#include <libavutil/hwcontext_vaapi.h>
#include <libavutil/hwcontext_videotoolbox.h>

// D3D11_BIND_SHADER_RESOURCE, from the Direct3D 11 D3D11_BIND_FLAG enum.
// Pulled in as a literal rather than <d3d11.h> so this file builds the same
// on every platform that ships libavutil/hwcontext_d3d11va.h, the same way
// the rest of this callback already assumes a full multi-backend FFmpeg
// build rather than per-platform build tags.
#define ZENPLAY_D3D11_BIND_SHADER_RESOURCE 0x8L

// addShaderResourceBindFlag implements step 4 of spec.md §4.5's hw-frames
// sequence: the renderer samples decoded surfaces directly (zero-copy), so
// the frames context's backend-native surfaces must be created with
// whatever flag lets a shader read them, not just the decoder-only usage
// get_hw_frames_parameters defaults to.
static void addShaderResourceBindFlag(AVHWFramesContext *framesCtx) {
    switch (framesCtx->device_ctx->type) {
    case AV_HWDEVICE_TYPE_D3D11VA: {
        AVD3D11VAFramesContext *d3d11Frames = (AVD3D11VAFramesContext *)framesCtx->hwctx;
        d3d11Frames->BindFlags |= ZENPLAY_D3D11_BIND_SHADER_RESOURCE;
        break;
    }
    case AV_HWDEVICE_TYPE_VAAPI:
        // VAAPI surfaces already support direct EGL/Vulkan import without a
        // separate shader-resource usage flag; nothing to set here.
        break;
    case AV_HWDEVICE_TYPE_VIDEOTOOLBOX:
        // CVPixelBuffer-backed surfaces are texture-cache-compatible by
        // construction; CoreVideo has no bind-flag analog to set.
        break;
    default:
        break;
    }
}

// extraPoolFrames cushions get_hw_frames_parameters' computed pool size
// against decode-to-render latency (spec.md §4.5 step 3). It is a plain C
// global rather than a Go closure capture because get_format is invoked
// by the codec on an arbitrary internal thread; reading one int is safe
// without additional synchronization, writing it only ever happens before
// decode begins.
static int extraPoolFrames = 6;

void hwaccel_set_extra_pool_frames(int n) { extraPoolFrames = n; }

// hwaccel_get_format implements the get_format callback contract spec.md
// §4.5 describes: called after sequence-header parse, once pix_fmts is
// populated, to negotiate the hardware pixel format and initialize the
// frames context with a pool size the codec itself cannot know in advance.
enum AVPixelFormat hwaccel_get_format(AVCodecContext *ctx, const enum AVPixelFormat *pix_fmts) {
    AVHWFramesContext *framesCtx;
    const enum AVPixelFormat *p;

    for (p = pix_fmts; *p != AV_PIX_FMT_NONE; p++) {
        if (!ctx->hw_device_ctx) {
            continue;
        }

        AVBufferRef *hwFramesRef = NULL;
        if (avcodec_get_hw_frames_parameters(ctx, ctx->hw_device_ctx, *p, &hwFramesRef) < 0) {
            continue;
        }

        framesCtx = (AVHWFramesContext *)hwFramesRef->data;
        framesCtx->initial_pool_size += extraPoolFrames;
#ifdef AV_HWFRAME_MAP_DIRECT
        framesCtx->format = *p;
#endif
        addShaderResourceBindFlag(framesCtx);

        if (av_hwframe_ctx_init(hwFramesRef) < 0) {
            av_buffer_unref(&hwFramesRef);
            continue;
        }

        av_buffer_unref(&ctx->hw_frames_ctx);
        ctx->hw_frames_ctx = hwFramesRef;
        return *p;
    }

    return AV_PIX_FMT_NONE;
}
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"
)

// Backend names the platform GPU decode API this context targets. Only one
// is active per process; selection follows render.backend_priority from
// configuration.
type Backend int

const (
	BackendNone Backend = iota
	BackendD3D11VA
	BackendDXVA2
	BackendVAAPI
	BackendVideoToolbox
)

func (b Backend) hwDeviceType() C.enum_AVHWDeviceType {
	switch b {
	case BackendD3D11VA:
		return C.AV_HWDEVICE_TYPE_D3D11VA
	case BackendDXVA2:
		return C.AV_HWDEVICE_TYPE_DXVA2
	case BackendVAAPI:
		return C.AV_HWDEVICE_TYPE_VAAPI
	case BackendVideoToolbox:
		return C.AV_HWDEVICE_TYPE_VIDEOTOOLBOX
	default:
		return C.AV_HWDEVICE_TYPE_NONE
	}
}

func (b Backend) String() string {
	switch b {
	case BackendD3D11VA:
		return "d3d11va"
	case BackendDXVA2:
		return "dxva2"
	case BackendVAAPI:
		return "vaapi"
	case BackendVideoToolbox:
		return "videotoolbox"
	default:
		return "none"
	}
}

// Device owns one hardware device context (step 1 of spec.md §4.5),
// shareable with the renderer so it can sample decoded surfaces from the
// same GPU device with no copy.
type Device struct {
	backend Backend
	ref     *C.AVBufferRef
}

// OpenDevice allocates a hardware device context for backend. Callers try
// backends in render.backend_priority order and fall back to the software
// renderer if every candidate fails, per spec.md §4.11's render-path
// chooser.
func OpenDevice(backend Backend) (*Device, error) {
	devType := backend.hwDeviceType()
	if devType == C.AV_HWDEVICE_TYPE_NONE {
		return nil, fmt.Errorf("hwaccel: unsupported backend %v", backend)
	}

	var ref *C.AVBufferRef
	if ret := C.av_hwdevice_ctx_create(&ref, devType, nil, nil, 0); ret < 0 {
		return nil, fmt.Errorf("hwaccel: av_hwdevice_ctx_create(%v): ffmpeg error %d", backend, int(ret))
	}

	d := &Device{backend: backend, ref: ref}
	runtime.SetFinalizer(d, (*Device).Close)
	return d, nil
}

// Backend reports which GPU API this device was opened for.
func (d *Device) Backend() Backend { return d.backend }

// Handle exposes the underlying AVBufferRef* as an opaque pointer, for the
// renderer package to bind via its own cgo call without this package
// needing to know about ebiten or any specific graphics API.
func (d *Device) Handle() unsafe.Pointer { return unsafe.Pointer(d.ref) }

// Close releases the device context. Safe to call multiple times.
func (d *Device) Close() {
	if d.ref == nil {
		return
	}
	C.av_buffer_unref(&d.ref)
	d.ref = nil
	runtime.SetFinalizer(d, nil)
}

// SetExtraPoolFrames overrides the cushion spec.md §4.5 step 3 adds on top
// of the codec-computed initial_pool_size (default 6). Exposed so
// render.hardware.* configuration can tune it per device class.
func SetExtraPoolFrames(n int) {
	if n < 0 {
		n = 0
	}
	C.hwaccel_set_extra_pool_frames(C.int(n))
}

// AttachToCodec wires this device into a codec context so that, once the
// codec parses the sequence header and invokes get_format, the callback
// above runs the §4.5 pool-sizing sequence. codecCtx is an
// *AVCodecContext obtained from whatever decode-library binding opened the
// stream; it is passed as unsafe.Pointer so this package stays independent
// of that binding's Go wrapper type.
func (d *Device) AttachToCodec(codecCtx unsafe.Pointer) error {
	if d.ref == nil {
		return fmt.Errorf("hwaccel: device already closed")
	}
	ctx := (*C.AVCodecContext)(codecCtx)
	ctx.hw_device_ctx = C.av_buffer_ref(d.ref)
	ctx.get_format = C.hwaccel_get_format
	return nil
}
