package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError is returned before any network call for blank input.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// HTTPError means the remote answered with a non-success status.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.Status, e.Body)
}

// TransportError means no response was obtained at all.
type TransportError struct {
	Reason string
	Err    error
}

func (e *TransportError) Error() string {
	return "Request failed: " + e.Reason
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ReplyError means the remote answered 200 but the body was not a usable reply.
type ReplyError struct {
	Message string
}

func (e *ReplyError) Error() string {
	return "Error: " + e.Message
}

// TranscriptionError means the speech-to-text backend failed or returned nothing.
type TranscriptionError struct {
	Reason string
	Err    error
}

func (e *TranscriptionError) Error() string {
	return "Transcription failed: " + e.Reason
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// ErrorCode identifies errors for rendering surfaces.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeInvalidInput  ErrorCode = "invalid_input"
	ErrorCodeHTTP          ErrorCode = "http"
	ErrorCodeTransport     ErrorCode = "transport"
	ErrorCodeReply         ErrorCode = "reply"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeAudioCapture  ErrorCode = "audio_capture"
	ErrorCodeAudioStop     ErrorCode = "audio_stop"
	ErrorCodeUnknown       ErrorCode = "unknown"
)

// ErrorCodeFor classifies err.
func ErrorCodeFor(err error) ErrorCode {
	var (
		httpErr          *HTTPError
		transportErr     *TransportError
		replyErr         *ReplyError
		transcriptionErr *TranscriptionError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return ErrorCodeInvalidInput
	case errors.As(err, &httpErr):
		return ErrorCodeHTTP
	case errors.As(err, &transportErr):
		return ErrorCodeTransport
	case errors.As(err, &replyErr):
		return ErrorCodeReply
	case errors.As(err, &transcriptionErr):
		return ErrorCodeTranscription
	default:
		return ErrorCodeUnknown
	}
}

// IsRemote reports whether err came from the remote side of a call.
func IsRemote(err error) bool {
	switch ErrorCodeFor(err) {
	case ErrorCodeHTTP, ErrorCodeTransport, ErrorCodeReply:
		return true
	default:
		return false
	}
}
