package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"storyline/internal/artifact"
)

// Code is the machine-readable failure class returned to callers.
type Code string

const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeMissingPrerequisite Code = "MISSING_PREREQUISITE"
	CodeAlreadyExists       Code = "ALREADY_EXISTS"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeInternal            Code = "INTERNAL_ERROR"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrMissingPrerequisite = errors.New("missing prerequisite")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternal            = errors.New("internal error")
)

var codeSentinels = map[Code]error{
	CodeNotFound:            ErrNotFound,
	CodeMissingPrerequisite: ErrMissingPrerequisite,
	CodeAlreadyExists:       ErrAlreadyExists,
	CodeInvalidInput:        ErrInvalidInput,
	CodeInternal:            ErrInternal,
}

// Error is the single error type surfaced by pipeline operations. Violations
// is populated only for MISSING_PREREQUISITE.
type Error struct {
	Code       Code
	Message    string
	Violations []Violation
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(string(e.Code), "_", " "))
	}
	if len(e.Violations) > 0 {
		codes := make([]string, 0, len(e.Violations))
		for _, v := range e.Violations {
			codes = append(codes, v.Code)
		}
		msg += " (" + strings.Join(codes, ", ") + ")"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's code so callers can use errors.Is.
func (e *Error) Is(target error) bool {
	sentinel, ok := codeSentinels[e.Code]
	return ok && sentinel == target
}

// Retryable reports whether repeating the same request may succeed. Only
// internal failures qualify; guarded writes never leave partial state.
func (e *Error) Retryable() bool {
	return e.Code == CodeInternal
}

// ErrorKind classifies the error for logging and metrics.
func (e *Error) ErrorKind() string {
	switch e.Code {
	case CodeNotFound:
		return "not_found"
	case CodeMissingPrerequisite:
		return "missing_prerequisite"
	case CodeAlreadyExists:
		return "conflict"
	case CodeInvalidInput:
		return "validation"
	default:
		return "error"
	}
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

func MissingPrerequisite(violations []Violation) *Error {
	return &Error{Code: CodeMissingPrerequisite, Message: "prerequisites not met", Violations: violations}
}

func AlreadyExists(message string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: message}
}

func InvalidInput(message string) *Error {
	return &Error{Code: CodeInvalidInput, Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Code: CodeInternal, Message: message, Err: err}
}

// AsError extracts a *Error from err. Any other non-nil error is wrapped as INTERNAL_ERROR.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return Internal("unexpected failure", err)
}

// CodeOf returns the taxonomy code for err, or "" when err is nil.
func CodeOf(err error) Code {
	if pe := AsError(err); pe != nil {
		return pe.Code
	}
	return ""
}

// FromStore translates artifact store sentinels into the pipeline taxonomy.
func FromStore(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, artifact.ErrConflict):
		return &Error{Code: CodeAlreadyExists, Message: "target artifact already exists", Err: err}
	case errors.Is(err, artifact.ErrNotFound), errors.Is(err, artifact.ErrParentMissing):
		return &Error{Code: CodeNotFound, Message: "artifact not found", Err: err}
	case errors.Is(err, artifact.ErrNotApproved):
		return &Error{
			Code:       CodeMissingPrerequisite,
			Message:    "prerequisites not met",
			Violations: []Violation{socialNotApproved()},
			Err:        err,
		}
	case errors.Is(err, artifact.ErrDirectorMissing):
		return notReady(err, directorRequired())
	case errors.Is(err, artifact.ErrProductionIncomplete):
		return notReady(err, productionIncomplete())
	case errors.Is(err, artifact.ErrNotReady):
		return notReady(err)
	case errors.Is(err, artifact.ErrInvalidInput):
		return &Error{Code: CodeInvalidInput, Message: "invalid input", Err: err}
	default:
		var pe *Error
		if errors.As(err, &pe) {
			return pe
		}
		return Internal("storage failure", err)
	}
}

func notReady(err error, violations ...Violation) *Error {
	return &Error{Code: CodeMissingPrerequisite, Message: "prerequisites not met", Violations: violations, Err: err}
}
