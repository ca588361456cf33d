package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeTooLarge        Code = "PAYLOAD_TOO_LARGE"
	CodeTooManyRequests Code = "TOO_MANY_REQUESTS"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeTimeout         Code = "TIMEOUT"
	CodeStageFailed     Code = "STAGE_FAILED"
	CodeInternal        Code = "INTERNAL"
)

// AppError is the unified error contract across layers.
type AppError struct {
	Code    Code
	Op      string // operation name, ex: "PipelineService.Run"
	Message string // safe message
	Err     error  // wrapped error
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "error"
	}
}

func (e *AppError) Unwrap() error { return e.Err }

func E(code Code, op, msg string, err error) error {
	return &AppError{Code: code, Op: op, Message: msg, Err: err}
}

func IsCode(err error, code Code) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// Kind classifies failures of the extraction pipeline.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindTranscoding   Kind = "transcoding"
	KindTranscription Kind = "transcription"
	KindCompletion    Kind = "completion"
)

// Messages shown to the user. Completion failures append the raw error.
const (
	MsgMissingCredentials = "API keys not found! Please check your .env file."
	MsgTranscoding        = "An error occurred while processing the video."
	MsgTranscription      = "An error occurred during transcription."
	MsgCompletion         = "An error occurred while generating the BRD"
)

// PipelineError is a failure of one pipeline stage (or of the startup
// configuration the stages depend on).
type PipelineError struct {
	Kind        Kind
	Op          string
	UserMessage string
	Err         error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s failure: %v", e.Op, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

func Configuration(op string, err error) error {
	return &PipelineError{Kind: KindConfiguration, Op: op, UserMessage: MsgMissingCredentials, Err: err}
}

func Transcoding(op string, err error) error {
	return &PipelineError{Kind: KindTranscoding, Op: op, UserMessage: MsgTranscoding, Err: err}
}

func Transcription(op string, err error) error {
	return &PipelineError{Kind: KindTranscription, Op: op, UserMessage: MsgTranscription, Err: err}
}

// Completion keeps the provider error text in the user message.
func Completion(op string, err error) error {
	msg := MsgCompletion
	if err != nil {
		msg = fmt.Sprintf("%s: %v", MsgCompletion, err)
	}
	return &PipelineError{Kind: KindCompletion, Op: op, UserMessage: msg, Err: err}
}

// CodeOf maps err onto the API error code.
func CodeOf(err error) Code {
	var pe *PipelineError
	if errors.As(err, &pe) {
		if pe.Kind == KindConfiguration {
			return CodeUnavailable
		}
		return CodeStageFailed
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// KindOf returns the pipeline kind carried by err, or "" when err is not a
// pipeline failure.
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// UserMessage returns the text that is safe to render for err.
func UserMessage(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.UserMessage
	}
	var ae *AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return http.StatusText(HTTPStatus(err))
}

func HTTPStatus(err error) int {
	var pe *PipelineError
	if errors.As(err, &pe) {
		if pe.Kind == KindConfiguration {
			return http.StatusServiceUnavailable
		}
		return http.StatusUnprocessableEntity
	}

	var ae *AppError
	if errors.As(err, &ae) {
		switch ae.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict:
			return http.StatusConflict
		case CodeTooLarge:
			return http.StatusRequestEntityTooLarge
		case CodeTooManyRequests:
			return http.StatusTooManyRequests
		case CodeUnavailable:
			return http.StatusServiceUnavailable
		case CodeTimeout:
			return http.StatusGatewayTimeout
		default:
			return http.StatusInternalServerError
		}
	}
	// fallback
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Sentinel errors returned by repositories
var (
	ErrNotFound = errors.New("not found")
)
