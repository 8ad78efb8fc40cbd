package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies failures returned by the services.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidCoordinates Code = "INVALID_COORDINATES"
	CodeOverlappingRegion  Code = "OVERLAPPING_REGION"
	CodeUpstreamFailure    Code = "UPSTREAM_SERVICE_FAILURE"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeStorageFailed      Code = "STORAGE_FAILED"
)

type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of err, or "" for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to the status the HTTP layer answers with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidCoordinates, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeOverlappingRegion:
		return http.StatusConflict
	case CodeUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(what, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %q not found", what, id)}
}

func InvalidCoordinates(msg string) *Error {
	return &Error{Code: CodeInvalidCoordinates, Message: msg}
}

func OverlappingRegion(imageID string) *Error {
	return &Error{Code: CodeOverlappingRegion, Message: fmt.Sprintf("region overlaps an existing block on image %q", imageID)}
}

func Upstream(service string, cause error) *Error {
	return &Error{Code: CodeUpstreamFailure, Message: service + " call failed", Cause: cause}
}

func InvalidInput(msg string) *Error {
	return &Error{Code: CodeInvalidInput, Message: msg}
}

func Storage(op string, cause error) *Error {
	return &Error{Code: CodeStorageFailed, Message: op, Cause: cause}
}
