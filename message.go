package gremlin

import "github.com/google/uuid"

// Request is one request envelope: created per call, consumed immediately by
// the wire codec, never persisted.
type Request struct {
	ID        uuid.UUID
	Op        string
	Processor string
	Args      map[string]Value
}

// Response is one decoded response envelope. The dispatcher interprets the
// status code, drains Data into a result sequence, and discards the envelope.
type Response struct {
	RequestID  uuid.UUID
	Code       int16
	Message    string
	Attributes Map
	Meta       Map
	Data       Value
}

// Well-known ops and processors.
const (
	opEval           = "eval"
	opBytecode       = "bytecode"
	opAuthentication = "authentication"
	opClose          = "close"

	processorSession   = "session"
	processorTraversal = "traversal"
)

// Server status codes driving the dispatch state machine.
const (
	statusSuccess        = 200
	statusNoContent      = 204
	statusPartialContent = 206
	statusUnauthorized   = 401
	statusAuthenticate   = 407
)
