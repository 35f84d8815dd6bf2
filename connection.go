package gremlin

import (
	"encoding/base64"

	"github.com/tliron/commonlog"
)

var connLog = commonlog.GetLogger("gremlin.connection")

// connection binds one transport to one protocol codec. Connections are used
// by a single goroutine at a time; the pool enforces that.
type connection struct {
	transport transport
	proto     protocol
	opts      Options

	// broken marks the connection poisoned: a transport failure, an
	// undecodable frame, or an abandoned partial result stream. Broken
	// connections never return to the idle set.
	broken bool
}

func dialConnection(opts Options, dial dialFunc) (*connection, error) {
	proto, err := newProtocol(opts.Format)
	if err != nil {
		return nil, err
	}
	t, err := dial(opts)
	if err != nil {
		return nil, err
	}
	connLog.Debugf("connected to %s (%s)", opts.url(), proto.contentType())
	return &connection{transport: t, proto: proto, opts: opts}, nil
}

func (c *connection) send(req *Request) error {
	frame, err := c.proto.encodeRequest(req)
	if err != nil {
		return err
	}
	if err := c.transport.write(frame); err != nil {
		c.broken = true
		return err
	}
	return nil
}

func (c *connection) recv() (*Response, error) {
	frame, err := c.transport.read()
	if err != nil {
		c.broken = true
		return nil, err
	}
	resp, err := c.proto.decodeResponse(frame)
	if err != nil {
		// An undecodable frame desynchronizes the stream.
		c.broken = true
		return nil, err
	}
	return resp, nil
}

// roundTrip sends a request and returns its first response, transparently
// answering a single authentication challenge. The server replays the
// original request after a successful handshake, so the caller only ever
// sees the real response. A second consecutive challenge is a hard error:
// retrying again could loop forever against a server that keeps rejecting
// the same credentials.
func (c *connection) roundTrip(req *Request) (*Response, error) {
	if err := c.send(req); err != nil {
		return nil, err
	}
	authRetried := false
	for {
		resp, err := c.recv()
		if err != nil {
			return nil, err
		}
		if resp.Code != statusAuthenticate {
			return resp, nil
		}
		if authRetried {
			return nil, &RequestError{Code: resp.Code, Message: resp.Message}
		}
		user, pass, ok := c.opts.credentials()
		if !ok {
			// No credentials to answer with; surface the challenge as the
			// server phrased it.
			return nil, &RequestError{Code: resp.Code, Message: resp.Message}
		}
		if err := c.authenticate(req, user, pass); err != nil {
			return nil, err
		}
		authRetried = true
	}
}

// authenticate answers a 407 challenge with the SASL PLAIN initial response,
// reusing the challenged request's id so the server correlates the exchange.
func (c *connection) authenticate(challenged *Request, user, pass string) error {
	sasl := base64.StdEncoding.EncodeToString([]byte("\x00" + user + "\x00" + pass))
	connLog.Debugf("answering authentication challenge for request %s", challenged.ID)
	return c.send(&Request{
		ID:        challenged.ID,
		Op:        opAuthentication,
		Processor: processorTraversal,
		Args: map[string]Value{
			"sasl": String(sasl),
		},
	})
}

func (c *connection) close() error {
	return c.transport.close()
}
