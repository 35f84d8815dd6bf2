package gremlin

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var poolLog = commonlog.GetLogger("gremlin.pool")

// connectionManager creates and validates pooled connections.
type connectionManager interface {
	connect() (*connection, error)
	// isValid probes an idle connection before handing it out.
	isValid(c *connection) error
	// hasBroken reports whether a returned connection must be discarded.
	hasBroken(c *connection) bool
}

// websocketManager is the production manager: it dials websockets and probes
// idle connections with a trivial traversal.
type websocketManager struct {
	opts Options
	dial dialFunc
}

func (m *websocketManager) connect() (*connection, error) {
	return dialConnection(m.opts, m.dial)
}

// isValid runs a no-op eval through the connection. A 401 response is
// tolerated: some servers reject the replayed probe after an authentication
// handshake even though the connection is perfectly healthy, and treating
// that as invalid would evict and re-dial forever.
func (m *websocketManager) isValid(c *connection) error {
	req := &Request{
		ID: uuid.New(),
		Op: opEval,
		Args: map[string]Value{
			"gremlin":  String("g.inject(0)"),
			"language": String("gremlin-groovy"),
		},
	}
	resp, err := c.roundTrip(req)
	if err != nil {
		return err
	}
	switch resp.Code {
	case statusSuccess, statusNoContent, statusPartialContent, statusUnauthorized:
		return nil
	default:
		return &RequestError{Code: resp.Code, Message: resp.Message}
	}
}

func (m *websocketManager) hasBroken(c *connection) bool {
	return c.broken
}

// pool is a bounded connection pool. Capacity is enforced with a token
// channel: every live or in-flight connection holds one token, so get blocks
// once the cap is reached until a connection comes back or the acquire
// timeout fires.
type pool struct {
	manager connectionManager
	timeout time.Duration

	tokens chan struct{}

	mu     sync.Mutex
	idle   []*connection
	closed bool
}

func newPool(manager connectionManager, size int, acquireTimeout time.Duration) *pool {
	if size < 1 {
		size = 1
	}
	tokens := make(chan struct{}, size)
	for i := 0; i < size; i++ {
		tokens <- struct{}{}
	}
	return &pool{
		manager: manager,
		timeout: acquireTimeout,
		tokens:  tokens,
	}
}

// get returns a healthy connection, reusing an idle one when possible. Idle
// connections that fail the validity probe are closed and replaced.
func (p *pool) get() (*connection, error) {
	if err := p.acquireToken(); err != nil {
		return nil, err
	}
	for {
		c, ok := p.popIdle()
		if !ok {
			break
		}
		if err := p.manager.isValid(c); err == nil {
			return c, nil
		}
		poolLog.Debugf("discarding stale idle connection")
		_ = c.close()
	}
	c, err := p.manager.connect()
	if err != nil {
		p.releaseToken()
		return nil, err
	}
	return c, nil
}

// put returns a connection to the pool, discarding it when broken.
func (p *pool) put(c *connection) {
	defer p.releaseToken()
	if p.manager.hasBroken(c) {
		poolLog.Debugf("discarding broken connection")
		_ = c.close()
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = c.close()
		return
	}
	p.idle = append(p.idle, c)
}

func (p *pool) acquireToken() error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return genericErrorf("pool is closed")
	}
	if p.timeout <= 0 {
		<-p.tokens
		return nil
	}
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-p.tokens:
		return nil
	case <-timer.C:
		return genericErrorf("timed out after %s waiting for a connection", p.timeout)
	}
}

func (p *pool) releaseToken() {
	select {
	case p.tokens <- struct{}{}:
	default:
	}
}

func (p *pool) popIdle() (*connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.idle)
	if n == 0 {
		return nil, false
	}
	c := p.idle[n-1]
	p.idle = p.idle[:n-1]
	return c, true
}

// close shuts the pool and every idle connection. In-flight connections are
// closed as they come back.
func (p *pool) close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()
	for _, c := range idle {
		_ = c.close()
	}
	return nil
}
