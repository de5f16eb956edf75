package zenplay

import "fmt"

// Code categorizes a failure the way spec §7 taxonomizes them. Callers
// should branch on Code, not on Error.Error()'s text.
type Code int

const (
	Unknown Code = iota
	InvalidArgument
	NotInitialized
	AlreadyRunning
	IOOpenFailed
	IOStreamNotFound
	IODemuxError
	IOUnexpectedEOF
	DecoderNotFound
	DecoderUnsupportedCodec
	DecoderInitFailed
	DecoderSendPacketFailed
	DecoderReceiveFrameFailed
	AudioDeviceInitFailed
	AudioFormatUnsupported
	AudioResampleFailed
	NetworkConnectionRefused
	NetworkTimeout
	NetworkInvalidURL
	NetworkUnreachable
	HardwareDeviceUnavailable
	HardwareFramePoolInitFailed
)

func (c Code) String() string {
	switch c {
	case InvalidArgument:
		return "InvalidArgument"
	case NotInitialized:
		return "NotInitialized"
	case AlreadyRunning:
		return "AlreadyRunning"
	case IOOpenFailed:
		return "IOOpenFailed"
	case IOStreamNotFound:
		return "IOStreamNotFound"
	case IODemuxError:
		return "IODemuxError"
	case IOUnexpectedEOF:
		return "IOUnexpectedEOF"
	case DecoderNotFound:
		return "DecoderNotFound"
	case DecoderUnsupportedCodec:
		return "DecoderUnsupportedCodec"
	case DecoderInitFailed:
		return "DecoderInitFailed"
	case DecoderSendPacketFailed:
		return "DecoderSendPacketFailed"
	case DecoderReceiveFrameFailed:
		return "DecoderReceiveFrameFailed"
	case AudioDeviceInitFailed:
		return "AudioDeviceInitFailed"
	case AudioFormatUnsupported:
		return "AudioFormatUnsupported"
	case AudioResampleFailed:
		return "AudioResampleFailed"
	case NetworkConnectionRefused:
		return "NetworkConnectionRefused"
	case NetworkTimeout:
		return "NetworkTimeout"
	case NetworkInvalidURL:
		return "NetworkInvalidURL"
	case NetworkUnreachable:
		return "NetworkUnreachable"
	case HardwareDeviceUnavailable:
		return "HardwareDeviceUnavailable"
	case HardwareFramePoolInitFailed:
		return "HardwareFramePoolInitFailed"
	default:
		return "Unknown"
	}
}

// Error is the error type every fallible engine operation returns. It
// chains via Unwrap so callers can use errors.Is/errors.As against the
// wrapped cause; IsCode tests the Code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("zenplay: %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("zenplay: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a new Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a new Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Code and message to an underlying cause. Wrapping nil
// returns nil, so chained initialization steps can short-circuit cleanly:
//
//	if err := zenplay.Wrap(DecoderInitFailed, "open codec", step1()); err != nil {
//		return err
//	}
func Wrap(code Code, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	if ze, ok := cause.(*Error); ok && ze.Code == code {
		return ze
	}
	return &Error{Code: code, Message: message, Cause: cause}
}

// IsCode reports whether err is a *Error carrying the given code, unwrapping
// through any chain.
func IsCode(err error, code Code) bool {
	for err != nil {
		if ze, ok := err.(*Error); ok {
			if ze.Code == code {
				return true
			}
			err = ze.Cause
			continue
		}
		return false
	}
	return false
}
