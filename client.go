package gremlin

import (
	"sync"

	"github.com/google/uuid"
)

// Client submits scripts and traversal programs to a server over a pooled
// websocket connection. A Client is safe for concurrent use; each call checks
// out its own connection, so concurrency is bounded by the pool size.
type Client struct {
	opts  Options
	pool  *pool
	dial  dialFunc
	alias string
}

// Dial builds a client for the given options. Connections are opened lazily
// on first use.
func Dial(opts Options) (*Client, error) {
	return dialWith(opts, dialWebsocket)
}

// dialWith is the injectable constructor used by tests.
func dialWith(opts Options, dial dialFunc) (*Client, error) {
	// An unknown format must fail here, not on first request.
	if _, err := newProtocol(opts.Format); err != nil {
		return nil, err
	}
	manager := &websocketManager{opts: opts, dial: dial}
	return &Client{
		opts: opts,
		pool: newPool(manager, opts.PoolSize, opts.AcquireTimeout),
		dial: dial,
	}, nil
}

// Alias returns a client bound to an alternate traversal-source alias. The
// clone shares the connection pool but carries its own alias binding.
func (c *Client) Alias(alias string) *Client {
	clone := *c
	clone.alias = alias
	return &clone
}

// Execute evaluates a script with optional bindings and returns the result
// sequence.
func (c *Client) Execute(script string, bindings map[string]any) (*ResultSet, error) {
	args, err := c.evalArgs(script, bindings, "")
	if err != nil {
		return nil, err
	}
	return c.dispatch(&Request{ID: uuid.New(), Op: opEval, Args: args})
}

// Submit sends a traversal program for execution and returns the result
// sequence.
func (c *Client) Submit(program *Bytecode) (*ResultSet, error) {
	return c.dispatch(&Request{
		ID:        uuid.New(),
		Op:        opBytecode,
		Processor: processorTraversal,
		Args:      c.bytecodeArgs(program, ""),
	})
}

// SubmitTraversal sends the accumulated program of a traversal builder.
func (c *Client) SubmitTraversal(t *GraphTraversal) (*ResultSet, error) {
	return c.Submit(t.Bytecode())
}

// CreateSession opens a session-bound client. Session clients hold a pool of
// exactly one connection so every request reaches the same server-side
// context.
func (c *Client) CreateSession(name string) (*SessionClient, error) {
	if name == "" {
		return nil, genericErrorf("session name is empty")
	}
	opts := c.opts
	opts.PoolSize = 1
	inner, err := dialWith(opts, c.dial)
	if err != nil {
		return nil, err
	}
	inner.alias = c.alias
	return &SessionClient{client: inner, name: name}, nil
}

// Close shuts the client's connection pool.
func (c *Client) Close() error {
	return c.pool.close()
}

func (c *Client) dispatch(req *Request) (*ResultSet, error) {
	conn, err := c.pool.get()
	if err != nil {
		return nil, err
	}
	resp, err := conn.roundTrip(req)
	if err != nil {
		c.pool.put(conn)
		return nil, err
	}
	return newResultSet(c.pool, conn, resp)
}

// evalArgs assembles the argument map for a script evaluation.
func (c *Client) evalArgs(script string, bindings map[string]any, session string) (map[string]Value, error) {
	args := map[string]Value{
		"gremlin":  String(script),
		"language": String("gremlin-groovy"),
	}
	if c.alias != "" {
		args["aliases"] = Map{StringKey("g"): String(c.alias)}
	}
	if len(bindings) > 0 {
		bound := make(Map, len(bindings))
		for k, v := range bindings {
			gv, err := NewValue(v)
			if err != nil {
				return nil, err
			}
			bound[StringKey(k)] = gv
		}
		args["bindings"] = bound
	}
	if session != "" {
		args["session"] = String(session)
	}
	return args, nil
}

// bytecodeArgs assembles the argument map for a traversal submission. The
// traversal source aliases to "g" unless the client is rebound.
func (c *Client) bytecodeArgs(program *Bytecode, session string) map[string]Value {
	alias := c.alias
	if alias == "" {
		alias = "g"
	}
	args := map[string]Value{
		"gremlin": program,
		"aliases": Map{StringKey("g"): String(alias)},
	}
	if session != "" {
		args["session"] = String(session)
	}
	return args
}

// SessionClient routes every request through one server-side session. All
// operations go through the "session" processor and carry the session name;
// closing the session invalidates the client.
type SessionClient struct {
	client *Client
	name   string

	mu     sync.Mutex
	closed bool
}

// Execute evaluates a script inside the session.
func (s *SessionClient) Execute(script string, bindings map[string]any) (*ResultSet, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	args, err := s.client.evalArgs(script, bindings, s.name)
	if err != nil {
		return nil, err
	}
	return s.client.dispatch(&Request{
		ID:        uuid.New(),
		Op:        opEval,
		Processor: processorSession,
		Args:      args,
	})
}

// Submit sends a traversal program inside the session.
func (s *SessionClient) Submit(program *Bytecode) (*ResultSet, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.client.dispatch(&Request{
		ID:        uuid.New(),
		Op:        opBytecode,
		Processor: processorSession,
		Args:      s.client.bytecodeArgs(program, s.name),
	})
}

// Close tears down the server-side session and invalidates the client.
// Closing twice is a Generic error; no second close request is sent.
func (s *SessionClient) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return genericErrorf("no session to close")
	}
	s.closed = true
	s.mu.Unlock()

	rs, err := s.client.dispatch(&Request{
		ID:        uuid.New(),
		Op:        opClose,
		Processor: processorSession,
		Args: map[string]Value{
			"session": String(s.name),
		},
	})
	if rs != nil {
		_ = rs.Close()
	}
	if cerr := s.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *SessionClient) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return genericErrorf("session is closed")
	}
	return nil
}
