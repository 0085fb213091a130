package parse

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an Error.
type ErrorKind int

const (
	// KindOther is a server error whose code and status have no dedicated kind
	KindOther ErrorKind = iota
	// KindConnectionFailed indicates the server could not be reached (code 100)
	KindConnectionFailed
	// KindObjectNotFound indicates a missing object or invalid login (code 101)
	KindObjectNotFound
	// KindInvalidQuery indicates a malformed query (code 102)
	KindInvalidQuery
	// KindInvalidFieldType indicates a field type mismatch (code 111)
	KindInvalidFieldType
	// KindOperationForbidden indicates a missing elevated credential (code 119)
	KindOperationForbidden
	// KindDuplicateValue indicates a unique index violation (code 137)
	KindDuplicateValue
	// KindUsernameTaken indicates the username is already in use (code 202)
	KindUsernameTaken
	// KindEmailTaken indicates the email is already in use (code 203)
	KindEmailTaken
	// KindInvalidSessionToken indicates an expired or unknown session (code 209)
	KindInvalidSessionToken
	// KindInternalServerError indicates a 5xx response with an unknown code
	KindInternalServerError
	// KindAuthentication indicates a 401/403 response with an unknown code
	KindAuthentication
	// KindMasterKeyRequired indicates the call needs a master key the client lacks
	KindMasterKeyRequired
	// KindSessionTokenMissing indicates the call needs a session the client lacks
	KindSessionTokenMissing
	// KindResponseDecodeFailed indicates a 2xx body that did not match the expected shape
	KindResponseDecodeFailed
	// KindInvalidRequest indicates the request could not be built
	KindInvalidRequest
)

var kindNames = map[ErrorKind]string{
	KindOther:                "server error",
	KindConnectionFailed:     "connection failed",
	KindObjectNotFound:       "object not found",
	KindInvalidQuery:         "invalid query",
	KindInvalidFieldType:     "invalid field type",
	KindOperationForbidden:   "operation forbidden",
	KindDuplicateValue:       "duplicate value",
	KindUsernameTaken:        "username taken",
	KindEmailTaken:           "email taken",
	KindInvalidSessionToken:  "invalid session token",
	KindInternalServerError:  "internal server error",
	KindAuthentication:       "authentication failed",
	KindMasterKeyRequired:    "master key required",
	KindSessionTokenMissing:  "session token missing",
	KindResponseDecodeFailed: "response decode failed",
	KindInvalidRequest:       "invalid request",
}

// String returns the string representation of an ErrorKind
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Origin tells where a failure happened.
type Origin int

const (
	// OriginServer is an error reported by the server in a non-2xx response
	OriginServer Origin = iota
	// OriginLocal is a misconfiguration caught before any network call
	OriginLocal
	// OriginTransport is a connection, DNS or socket failure
	OriginTransport
	// OriginDecode is a 2xx response that could not be decoded
	OriginDecode
)

// String returns the string representation of an Origin
func (o Origin) String() string {
	switch o {
	case OriginServer:
		return "server"
	case OriginLocal:
		return "local"
	case OriginTransport:
		return "transport"
	case OriginDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// protocolKinds maps Parse error codes to kinds. Codes win over HTTP status.
var protocolKinds = map[int]ErrorKind{
	100: KindConnectionFailed,
	101: KindObjectNotFound,
	102: KindInvalidQuery,
	111: KindInvalidFieldType,
	119: KindOperationForbidden,
	137: KindDuplicateValue,
	202: KindUsernameTaken,
	203: KindEmailTaken,
	209: KindInvalidSessionToken,
}

// Error is the error type returned by every client operation.
type Error struct {
	Kind   ErrorKind
	Origin Origin
	// Code is the Parse error code, zero when the server sent none
	Code int
	// Status is the HTTP status, zero when no response was received
	Status  int
	Message string
	// Body holds the raw response body for server and decode errors
	Body string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := "parse: " + e.Kind.String()
	switch {
	case e.Code != 0 && e.Status != 0:
		msg += fmt.Sprintf(" (code %d, status %d)", e.Code, e.Status)
	case e.Code != 0:
		msg += fmt.Sprintf(" (code %d)", e.Code)
	case e.Status != 0:
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so the sentinel
// values below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsNotFound checks if the error indicates a missing object
func (e *Error) IsNotFound() bool {
	return e.Kind == KindObjectNotFound
}

// IsUnauthorized checks if the error indicates a credential problem
func (e *Error) IsUnauthorized() bool {
	switch e.Kind {
	case KindAuthentication, KindInvalidSessionToken, KindOperationForbidden,
		KindMasterKeyRequired, KindSessionTokenMissing:
		return true
	}
	return false
}

// Temporary reports whether retrying the same call later may succeed.
// Everything else needs the call or the configuration to change.
func (e *Error) Temporary() bool {
	if e.Origin == OriginTransport {
		return true
	}
	return e.Kind == KindConnectionFailed || e.Kind == KindInternalServerError
}

// Sentinel errors for use with errors.Is.
var (
	ErrConnectionFailed      = &Error{Kind: KindConnectionFailed}
	ErrObjectNotFound        = &Error{Kind: KindObjectNotFound}
	ErrInvalidQuery          = &Error{Kind: KindInvalidQuery}
	ErrOperationForbidden    = &Error{Kind: KindOperationForbidden}
	ErrDuplicateValue        = &Error{Kind: KindDuplicateValue}
	ErrUsernameTaken         = &Error{Kind: KindUsernameTaken}
	ErrEmailTaken            = &Error{Kind: KindEmailTaken}
	ErrInvalidSessionToken   = &Error{Kind: KindInvalidSessionToken}
	ErrMasterKeyRequired     = &Error{Kind: KindMasterKeyRequired}
	ErrSessionTokenMissing   = &Error{Kind: KindSessionTokenMissing}
	ErrResponseDecodeFailed  = &Error{Kind: KindResponseDecodeFailed}
	ErrInternalServerError   = &Error{Kind: KindInternalServerError}
	ErrAuthenticationFailure = &Error{Kind: KindAuthentication}
)

// ErrInvalidConfig indicates invalid client configuration
var ErrInvalidConfig = errors.New("invalid parse client configuration")

// ErrorBody is the failure envelope sent by the server.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// MapError turns an HTTP status and a decoded failure body into an Error.
// The protocol code takes precedence; unknown codes fall back on the status.
// Every input yields exactly one Error.
func MapError(status int, body ErrorBody) *Error {
	e := &Error{
		Origin:  OriginServer,
		Code:    body.Code,
		Status:  status,
		Message: body.Message,
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}

	if kind, ok := protocolKinds[body.Code]; ok {
		e.Kind = kind
		return e
	}

	switch {
	case status >= 500:
		e.Kind = KindInternalServerError
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuthentication
	case status == http.StatusNotFound:
		e.Kind = KindObjectNotFound
	default:
		e.Kind = KindOther
	}
	return e
}

// localError builds an error for failures caught before anything is sent.
func localError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Origin:  OriginLocal,
		Message: fmt.Sprintf(format, args...),
	}
}
