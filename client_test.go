package gremlin

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"testing"
)

// fakeTransport replays a scripted sequence of response frames and records
// every frame written to it.
type fakeTransport struct {
	writes [][]byte
	reads  [][]byte
	pos    int
	closed bool
}

func (t *fakeTransport) write(data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	t.writes = append(t.writes, cp)
	return nil
}

func (t *fakeTransport) read() ([]byte, error) {
	if t.pos >= len(t.reads) {
		return nil, io.EOF
	}
	frame := t.reads[t.pos]
	t.pos++
	return frame, nil
}

func (t *fakeTransport) close() error {
	t.closed = true
	return nil
}

// fakeDialer hands out scripted transports in order.
type fakeDialer struct {
	transports []*fakeTransport
	next       int
}

func (d *fakeDialer) dial(Options) (transport, error) {
	if d.next >= len(d.transports) {
		return nil, fmt.Errorf("no transport scripted for dial %d", d.next)
	}
	t := d.transports[d.next]
	d.next++
	return t, nil
}

// v3Frame builds a GraphSON v3 response frame.
func v3Frame(code int, message, dataJSON string) []byte {
	if dataJSON == "" {
		dataJSON = "null"
	}
	return []byte(fmt.Sprintf(`{
		"requestId": "00112233-4455-6677-8899-aabbccddeeff",
		"status": {"code": %d, "message": %q, "attributes": {"@type":"g:Map","@value":[]}},
		"result": {"data": %s, "meta": {"@type":"g:Map","@value":[]}}
	}`, code, message, dataJSON))
}

func intListJSON(ns ...int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf(`{"@type":"g:Int64","@value":%d}`, n)
	}
	return `{"@type":"g:List","@value":[` + strings.Join(parts, ",") + `]}`
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Format = FormatGraphSONV3
	opts.PoolSize = 1
	return opts
}

func newTestClient(t *testing.T, opts Options, transports ...*fakeTransport) *Client {
	t.Helper()
	dialer := &fakeDialer{transports: transports}
	client, err := dialWith(opts, dialer.dial)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return client
}

func TestUnknownFormatRejectedAtDial(t *testing.T) {
	opts := DefaultOptions()
	opts.Format = "xml"
	_, err := dialWith(opts, (&fakeDialer{}).dial)
	if _, ok := err.(*GenericError); !ok {
		t.Fatalf("err = %v, want GenericError", err)
	}
}

func TestExecuteSuccess(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{v3Frame(200, "", intListJSON(6))}}
	client := newTestClient(t, testOptions(), ft)

	rs, err := client.Execute("g.V().count()", nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	all, err := rs.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 || !Equal(all[0], Int64(6)) {
		t.Errorf("results = %v", all)
	}
	if len(ft.writes) != 1 {
		t.Errorf("writes = %d, want 1", len(ft.writes))
	}
	body := string(ft.writes[0])
	if !strings.Contains(body, `"op":"eval"`) || !strings.Contains(body, "g.V().count()") {
		t.Errorf("request body = %s", body)
	}
}

func TestExecuteBindings(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{v3Frame(200, "", intListJSON(1))}}
	client := newTestClient(t, testOptions(), ft)

	if _, err := client.Execute("g.V(x)", map[string]any{"x": 1}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	body := string(ft.writes[0])
	if !strings.Contains(body, "bindings") || !strings.Contains(body, `"x"`) {
		t.Errorf("request body = %s", body)
	}
}

func TestAuthChallengeAnsweredOnce(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{
		v3Frame(407, "authenticate", ""),
		v3Frame(200, "", intListJSON(1)),
	}}
	opts := testOptions()
	opts.Username = "stephen"
	opts.Password = "password"
	client := newTestClient(t, opts, ft)

	rs, err := client.Execute("g.V()", nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	all, err := rs.All()
	if err != nil || len(all) != 1 || !Equal(all[0], Int64(1)) {
		t.Fatalf("results = %v, %v", all, err)
	}

	// The challenge costs exactly one extra write and one extra read; the
	// caller only ever sees the final result.
	if len(ft.writes) != 2 {
		t.Fatalf("writes = %d, want 2", len(ft.writes))
	}
	if ft.pos != 2 {
		t.Fatalf("reads = %d, want 2", ft.pos)
	}
	authBody := string(ft.writes[1])
	if !strings.Contains(authBody, `"op":"authentication"`) {
		t.Errorf("auth request body = %s", authBody)
	}
	sasl := base64.StdEncoding.EncodeToString([]byte("\x00stephen\x00password"))
	if !strings.Contains(authBody, sasl) {
		t.Errorf("auth request missing sasl payload: %s", authBody)
	}
}

func TestAuthRejectedTwiceIsHardError(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{
		v3Frame(407, "authenticate", ""),
		v3Frame(407, "authenticate", ""),
	}}
	opts := testOptions()
	opts.Username = "stephen"
	opts.Password = "wrong"
	client := newTestClient(t, opts, ft)

	_, err := client.Execute("g.V()", nil)
	re, ok := err.(*RequestError)
	if !ok {
		t.Fatalf("err = %v, want RequestError", err)
	}
	if re.Code != 407 {
		t.Errorf("code = %d, want 407", re.Code)
	}
	if len(ft.writes) != 2 {
		t.Errorf("writes = %d, want 2 (no third attempt)", len(ft.writes))
	}
}

func TestAuthChallengeWithoutCredentials(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{v3Frame(407, "please authenticate against realm x", "")}}
	client := newTestClient(t, testOptions(), ft)

	_, err := client.Execute("g.V()", nil)
	re, ok := err.(*RequestError)
	if !ok || re.Code != 407 {
		t.Fatalf("err = %v, want RequestError 407", err)
	}
	// The error carries the server's status message as sent, not a
	// client-side paraphrase.
	if re.Message != "please authenticate against realm x" {
		t.Errorf("message = %q, want the server's challenge text", re.Message)
	}
	if len(ft.writes) != 1 {
		t.Errorf("writes = %d, want 1", len(ft.writes))
	}
}

func TestRequestErrorCarriesStatus(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{v3Frame(500, "boom", "")}}
	client := newTestClient(t, testOptions(), ft)

	_, err := client.Execute("g.V()", nil)
	re, ok := err.(*RequestError)
	if !ok {
		t.Fatalf("err = %v, want RequestError", err)
	}
	if re.Code != 500 || re.Message != "boom" {
		t.Errorf("error = %d %q", re.Code, re.Message)
	}
}

func TestNoContentIsEmptySequence(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{v3Frame(204, "", "")}}
	client := newTestClient(t, testOptions(), ft)

	rs, err := client.Execute("g.V().drop()", nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	all, err := rs.All()
	if err != nil || len(all) != 0 {
		t.Errorf("results = %v, %v", all, err)
	}
}

func TestPartialContentPaging(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{
		v3Frame(206, "", intListJSON(1)),
		v3Frame(206, "", intListJSON(2)),
		v3Frame(200, "", intListJSON(3)),
	}}
	client := newTestClient(t, testOptions(), ft)

	rs, err := client.Execute("g.V()", nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !rs.More() {
		t.Fatal("expected a pending partial page")
	}
	all, err := rs.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	want := []Value{Int64(1), Int64(2), Int64(3)}
	if len(all) != len(want) {
		t.Fatalf("results = %v", all)
	}
	for i := range want {
		if !Equal(all[i], want[i]) {
			t.Errorf("result %d = %v, want %v", i, all[i], want[i])
		}
	}
	if rs.More() {
		t.Error("sequence should be drained")
	}
	// Paging never writes additional requests.
	if len(ft.writes) != 1 {
		t.Errorf("writes = %d, want 1", len(ft.writes))
	}
}

func TestAbandonedPartialsPoisonConnection(t *testing.T) {
	ft1 := &fakeTransport{reads: [][]byte{v3Frame(206, "", intListJSON(1))}}
	ft2 := &fakeTransport{reads: [][]byte{v3Frame(200, "", intListJSON(2))}}
	client := newTestClient(t, testOptions(), ft1, ft2)

	rs, err := client.Execute("g.V()", nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ft1.closed {
		t.Error("abandoned connection should be discarded")
	}

	// The next call dials fresh instead of reusing the poisoned stream.
	rs, err = client.Execute("g.V()", nil)
	if err != nil {
		t.Fatalf("second execute: %v", err)
	}
	all, err := rs.All()
	if err != nil || len(all) != 1 || !Equal(all[0], Int64(2)) {
		t.Errorf("results = %v, %v", all, err)
	}
}

func TestAliasRebindsTraversalSource(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{v3Frame(200, "", intListJSON(1))}}
	client := newTestClient(t, testOptions(), ft)

	if _, err := client.Alias("g2").Execute("g.V()", nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	body := string(ft.writes[0])
	if !strings.Contains(body, `"aliases"`) || !strings.Contains(body, "g2") {
		t.Errorf("request body = %s", body)
	}
}

func TestSubmitBytecode(t *testing.T) {
	ft := &fakeTransport{reads: [][]byte{v3Frame(200, "", intListJSON(1))}}
	client := newTestClient(t, testOptions(), ft)

	program := Traversal().V().Step("count").Bytecode()
	if _, err := client.Submit(program); err != nil {
		t.Fatalf("submit: %v", err)
	}
	body := string(ft.writes[0])
	if !strings.Contains(body, `"op":"bytecode"`) || !strings.Contains(body, `"processor":"traversal"`) {
		t.Errorf("request body = %s", body)
	}
	if !strings.Contains(body, "g:Bytecode") {
		t.Errorf("request body missing serialized program: %s", body)
	}
}

func TestSessionLifecycle(t *testing.T) {
	// One transport serves the whole session: eval, then the idle-checkout
	// probe, then the close.
	ft := &fakeTransport{reads: [][]byte{
		v3Frame(200, "", intListJSON(1)),
		v3Frame(200, "", intListJSON(0)),
		v3Frame(200, "", ""),
	}}
	client := newTestClient(t, testOptions(), ft)

	session, err := client.CreateSession("s1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := session.Execute("x = 1", nil); err != nil {
		t.Fatalf("session execute: %v", err)
	}
	evalBody := string(ft.writes[0])
	if !strings.Contains(evalBody, `"processor":"session"`) || !strings.Contains(evalBody, `"s1"`) {
		t.Errorf("session eval body = %s", evalBody)
	}

	if err := session.Close(); err != nil {
		t.Fatalf("close session: %v", err)
	}
	closeBody := string(ft.writes[len(ft.writes)-1])
	if !strings.Contains(closeBody, `"op":"close"`) || !strings.Contains(closeBody, `"processor":"session"`) {
		t.Errorf("session close body = %s", closeBody)
	}

	// The invalidated session rejects further work without touching the wire.
	if _, err := session.Execute("x", nil); err == nil {
		t.Fatal("execute after close should fail")
	} else if _, ok := err.(*GenericError); !ok {
		t.Errorf("err = %v, want GenericError", err)
	}
	if err := session.Close(); err == nil {
		t.Fatal("second close should fail")
	} else if _, ok := err.(*GenericError); !ok {
		t.Errorf("err = %v, want GenericError", err)
	}
	if len(ft.writes) != 3 {
		t.Errorf("writes = %d, want 3 (no second close request)", len(ft.writes))
	}
}

func TestCreateSessionRequiresName(t *testing.T) {
	client := newTestClient(t, testOptions())
	if _, err := client.CreateSession(""); err == nil {
		t.Fatal("empty session name should fail")
	}
}
