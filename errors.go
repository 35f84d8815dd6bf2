package gremlin

import "fmt"

// CastError reports wire bytes, a JSON shape, or a Value that could not be
// interpreted as the requested type. Cast failures are recoverable: the
// caller can retry with a different target type or treat the payload as
// corrupt.
type CastError struct {
	Msg string
}

func (e *CastError) Error() string {
	return "gremlin: " + e.Msg
}

func castErrorf(format string, args ...any) error {
	return &CastError{Msg: fmt.Sprintf(format, args...)}
}

// RequestError is a non-success status returned by the server, carried
// verbatim. The client never retries these automatically, except the single
// 407 authentication continuation.
type RequestError struct {
	Code    int16
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("gremlin: server returned status %d: %s", e.Code, e.Message)
}

// GenericError is a misuse of the client API, such as closing a session
// twice. It indicates a programmer error and is never retried.
type GenericError struct {
	Msg string
}

func (e *GenericError) Error() string {
	return "gremlin: " + e.Msg
}

func genericErrorf(format string, args ...any) error {
	return &GenericError{Msg: fmt.Sprintf(format, args...)}
}
