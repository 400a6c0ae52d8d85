package apiclient

import (
	"context"
	"errors"
	"net"
	"sort"
	"strings"
	"syscall"
)

// Kind classifies a failed backend call.
type Kind string

const (
	// KindConnectivity means the backend could not be reached at all.
	KindConnectivity Kind = "connectivity"
	// KindHTTP means the backend answered with a non-2xx status.
	KindHTTP Kind = "http"
	// KindApplication means a 2xx response carried success:false.
	KindApplication Kind = "application"
	// KindValidation means the payload was rejected field by field.
	KindValidation Kind = "validation"
	// KindConflict means a unique value is already in use.
	KindConflict Kind = "conflict"
	// KindSession means no usable bearer token was available.
	KindSession Kind = "session"
	// KindCanceled means the caller abandoned the request.
	KindCanceled Kind = "canceled"
)

// Display messages used when the backend offers none.
const (
	MessageUnreachable   = "Backend not reachable. Please check that the server is running."
	MessageRequestFailed = "Request failed"
	MessageCanceled      = "Request cancelled"
	MessageTimeout       = "Request timed out. The backend did not respond in time."
)

// ErrBackendUnreachable is matched by every connectivity error.
var ErrBackendUnreachable = errors.New("backend not reachable")

// Error is the single error type returned by the client. Message is always
// display-ready.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	// Fields maps field names to messages when the backend supplied them.
	Fields map[string]string
	cause  error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return MessageRequestFailed
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is lets errors.Is(err, ErrBackendUnreachable) match connectivity errors.
func (e *Error) Is(target error) bool {
	return target == ErrBackendUnreachable && e.Kind == KindConnectivity
}

// Field returns the first field name the backend blamed, if any.
func (e *Error) Field() string {
	if len(e.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys[0]
}

// AsError extracts a client error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind reports whether err is a client error of the given kind.
func IsKind(err error, kind Kind) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == kind
}

// Message returns a display-ready message for any error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsError(err); ok {
		return apiErr.Error()
	}
	return err.Error()
}

var connectivityPatterns = []string{
	"failed to fetch",
	"networkerror",
	"network is unreachable",
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"server misbehaving",
	"eof",
}

// classifyTransport maps a failure of http.Client.Do into the taxonomy.
func classifyTransport(ctx context.Context, err error) *Error {
	// the caller's own context wins over a client timeout
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Message: MessageCanceled, cause: err}
	}
	if isTimeout(err) {
		return &Error{Kind: KindConnectivity, Message: MessageTimeout, cause: err}
	}
	if isConnectivityFailure(err) {
		return &Error{Kind: KindConnectivity, Message: MessageUnreachable, cause: err}
	}
	return &Error{Kind: KindHTTP, Message: err.Error(), cause: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectivityFailure(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range connectivityPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var conflictPatterns = []string{
	"already exists",
	"already in use",
	"already taken",
	"duplicate",
	"unique constraint",
}

// looksLikeConflict matches the prose the backend uses for unique-key clashes.
func looksLikeConflict(message string) bool {
	lower := strings.ToLower(message)
	for _, pattern := range conflictPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// NewValidationError builds a client-side validation error for one field.
func NewValidationError(field, message string) *Error {
	apiErr := &Error{Kind: KindValidation, Message: message}
	if field != "" {
		apiErr.Fields = map[string]string{field: message}
	}
	return apiErr
}
