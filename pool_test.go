package gremlin

import (
	"strings"
	"testing"
	"time"
)

func newTestManager(dialer *fakeDialer) *websocketManager {
	opts := testOptions()
	return &websocketManager{opts: opts, dial: dialer.dial}
}

func TestPoolReusesHealthyIdleConnection(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{v3Frame(200, "", intListJSON(0))}}
	p := newPool(newTestManager(&fakeDialer{transports: []*fakeTransport{ft}}), 1, time.Second)

	c1, err := p.get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	p.put(c1)

	// The second checkout probes the idle connection and reuses it.
	c2, err := p.get()
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if c2.transport != ft {
		t.Error("expected the idle connection to be reused")
	}
	if ft.pos != 1 {
		t.Errorf("probe reads = %d, want 1", ft.pos)
	}
	probeBody := string(ft.writes[0])
	if !strings.Contains(probeBody, "g.inject(0)") {
		t.Errorf("probe body = %s", probeBody)
	}
}

// A 401 probe response means the server is reachable but rejected the probe's
// credentials. The connection stays usable; evicting it would dial and fail
// forever.
func TestPoolToleratesUnauthorizedProbe(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{v3Frame(401, "unauthorized", "")}}
	p := newPool(newTestManager(&fakeDialer{transports: []*fakeTransport{ft}}), 1, time.Second)

	c1, err := p.get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	p.put(c1)

	c2, err := p.get()
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if c2.transport != ft {
		t.Error("401 probe should not evict the connection")
	}
	if ft.closed {
		t.Error("connection should not be closed")
	}
}

func TestPoolEvictsFailingProbe(t *testing.T) {
	ft1 := &fakeTransport{reads: [][]byte{v3Frame(500, "boom", "")}}
	ft2 := &fakeTransport{}
	p := newPool(newTestManager(&fakeDialer{transports: []*fakeTransport{ft1, ft2}}), 1, time.Second)

	c1, err := p.get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	p.put(c1)

	c2, err := p.get()
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if c2.transport != ft2 {
		t.Error("failing connection should be replaced by a fresh dial")
	}
	if !ft1.closed {
		t.Error("failing connection should be closed")
	}
}

func TestPoolDiscardsBrokenConnectionOnReturn(t *testing.T) {
	ft1 := &fakeTransport{}
	ft2 := &fakeTransport{}
	p := newPool(newTestManager(&fakeDialer{transports: []*fakeTransport{ft1, ft2}}), 1, time.Second)

	c1, err := p.get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	c1.broken = true
	p.put(c1)
	if !ft1.closed {
		t.Error("broken connection should be closed on return")
	}

	c2, err := p.get()
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if c2.transport != ft2 {
		t.Error("expected a fresh connection after eviction")
	}
}

func TestPoolAcquireTimeout(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{v3Frame(200, "", intListJSON(0))}}
	p := newPool(newTestManager(&fakeDialer{transports: []*fakeTransport{ft}}), 1, 20*time.Millisecond)

	c, err := p.get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	// The only slot is held, so the next acquisition times out.
	if _, err := p.get(); err == nil {
		t.Fatal("expected an acquire timeout")
	} else if _, ok := err.(*GenericError); !ok {
		t.Errorf("err = %v, want GenericError", err)
	}

	p.put(c)
	if _, err := p.get(); err != nil {
		t.Fatalf("get after release: %v", err)
	}
}

func TestPoolClosedRejectsCheckout(t *testing.T) {
	ft := &fakeTransport{}
	p := newPool(newTestManager(&fakeDialer{transports: []*fakeTransport{ft}}), 1, time.Second)

	c, err := p.get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	p.put(c)
	if err := p.close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ft.closed {
		t.Error("idle connections should be closed with the pool")
	}
	if _, err := p.get(); err == nil {
		t.Fatal("closed pool should reject checkouts")
	}
}
