package providers

import "errors"

// ErrorKind classifies a transport failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindHTTPStatus
	KindNetwork
	KindNonJSON
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindNetwork:
		return "network"
	case KindNonJSON:
		return "non_json"
	default:
		return "unknown"
	}
}

// Error is a failed completion call. Message never contains an unredacted
// response body.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// retryable reports whether the transport tier may try again.
func (e *Error) retryable() bool {
	switch e.Kind {
	case KindNetwork:
		return true
	case KindHTTPStatus:
		return e.StatusCode >= 500 && e.StatusCode < 600
	}
	return false
}

// KindOf returns the kind of a transport error, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// IsTimeout checks if an error is a per-attempt timeout.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	code := StatusCode(err)
	return code == 401 || code == 403
}
