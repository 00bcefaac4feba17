package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the request could not be completed due to a conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	// TypeServer represents server-side failures.
	TypeServer Type = iota
	// TypeBusiness represents business rule violations.
	TypeBusiness
	// TypeValidation represents input validation failures.
	TypeValidation
)

// String returns the string representation of the error type.
func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Kind tags an error with the failure it represents. Transport layers
// dispatch on the kind, never on the concrete error value.
type Kind int

const (
	// KindInternal represents an unexpected or wrapped failure.
	KindInternal Kind = iota
	// KindBadRequest indicates malformed or missing input.
	KindBadRequest
	// KindUnauthorized indicates a missing or invalid bearer credential,
	// or an attempt to claim a role the caller may not hold.
	KindUnauthorized
	// KindAuthentication indicates wrong credentials or an invalid refresh token.
	KindAuthentication
	// KindVerification indicates a failed OTP or verification-token flow.
	KindVerification
	// KindNotFound indicates a missing resource.
	KindNotFound
	// KindConflict indicates a duplicate resource.
	KindConflict
	// KindTooManyRequests indicates rate limiting.
	KindTooManyRequests
	// KindUnavailable indicates the service refuses work temporarily.
	KindUnavailable
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindAuthentication:
		return "AUTHENTICATION"
	case KindVerification:
		return "VERIFICATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case KindUnavailable:
		return "UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}

// StatusCode maps the kind to an HTTP status code.
func (k Kind) StatusCode() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized, KindAuthentication:
		return http.StatusUnauthorized
	case KindVerification:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a structured error used across the application.
//
// It can wrap an underlying error while also carrying a user-facing message,
// a high-level type, a kind, and optional per-field details.
type Error struct {
	err     error
	msg     string
	errType Type
	kind    Kind
	fields  map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}

	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	case TypeServer:
		return "Internal error"
	}

	return "Unknown error"
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Kind: %s, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.kind.String(),
		e.msg,
		e.err,
	)
}

// Msg returns the user-facing error message, if set.
func (e *Error) Msg() string {
	return e.msg
}

// Type returns the high-level error type.
func (e *Error) Type() Type {
	return e.errType
}

// Kind returns the error kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// Fields returns structured details (field to message map), if any.
func (e *Error) Fields() map[string]string {
	return e.fields
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode maps the error kind to an HTTP status code.
func (e *Error) StatusCode() int {
	return e.kind.StatusCode()
}

func new(err error, msg string, et Type, kind Kind) *Error {
	return &Error{err: err, msg: msg, errType: et, kind: kind}
}

// NewServer creates a server-type error with the provided error.
func NewServer(err error) error {
	return new(err, "Internal server error", TypeServer, KindInternal)
}

// NewBusiness creates a business-type error with the specified message and kind.
func NewBusiness(msg string, kind Kind) error {
	return new(nil, msg, TypeBusiness, kind)
}

// NewVerification creates a verification-kind error. The reason is safe to
// show to clients and is echoed under the "reason" detail.
func NewVerification(reason string) error {
	e := new(nil, reason, TypeBusiness, KindVerification)
	e.fields = map[string]string{"reason": reason}
	return e
}

// NewInvalidInput creates a validation error for invalid input.
// Either err carries per-field messages, or kv supplies field/message pairs.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return new(err, "Validation error", TypeValidation, KindBadRequest)
	}

	if len(kv)%2 != 0 {
		return new(nil, "Invalid request body", TypeValidation, KindBadRequest)
	}

	e := new(nil, "Validation error", TypeValidation, KindBadRequest)
	e.fields = make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		e.fields[kv[i]] = kv[i+1]
	}

	return e
}

// NewInvalidFormat creates a validation error for an invalid request body format.
func NewInvalidFormat(msgs ...string) error {
	if len(msgs) == 0 {
		return new(nil, "Invalid request body", TypeValidation, KindBadRequest)
	}
	return new(nil, msgs[0], TypeValidation, KindBadRequest)
}

// KindOf reports the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}
