package gremlin

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func encodeQualified(t *testing.T, v Value) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := writeQualified(&buf, v); err != nil {
		t.Fatalf("encode %s: %v", TypeName(v), err)
	}
	return buf.Bytes()
}

func decodeQualified(t *testing.T, data []byte) Value {
	t.Helper()
	r := &binaryReader{data: data}
	v, err := r.readQualified()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.off != len(data) {
		t.Fatalf("decode left %d trailing bytes", len(data)-r.off)
	}
	return v
}

func TestBinaryFixedLayouts(t *testing.T) {
	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	cases := []struct {
		name string
		v    Value
		want []byte
	}{
		{"int32 one", Int32(1), []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x01}},
		{"int64 one", Int64(1), []byte{0x02, 0x00, 0, 0, 0, 0, 0, 0, 0, 1}},
		{"empty string", String(""), []byte{0x03, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"string abc", String("abc"), []byte{0x03, 0x00, 0x00, 0x00, 0x00, 0x03, 'a', 'b', 'c'}},
		{"null", Null{}, []byte{0xfe, 0x01}},
		{"bool true", Bool(true), []byte{0x27, 0x00, 0x01}},
		{"bool false", Bool(false), []byte{0x27, 0x00, 0x00}},
		{"uuid", UUID(id), append([]byte{0x0c, 0x00}, id[:]...)},
		{"empty list", List{}, []byte{0x09, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"list of one int32", List{Int32(1)}, []byte{
			0x09, 0x00, 0x00, 0x00, 0x00, 0x01,
			0x01, 0x00, 0x00, 0x00, 0x00, 0x01,
		}},
		{"date epoch", DateFromMillis(0), []byte{0x04, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, c := range cases {
		got := encodeQualified(t, c.v)
		if !bytes.Equal(got, c.want) {
			t.Errorf("%s: encoded % x, want % x", c.name, got, c.want)
		}
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	id := uuid.MustParse("8dd8ad70-db66-4d91-99c2-b1ae6e59e2b2")
	vertex := &Vertex{
		ID:    Int64(1),
		Label: "person",
		Properties: []VertexProperty{
			{ID: Int64(10), Label: "name", Value: String("marko")},
		},
	}
	edge := &Edge{
		ID:    Int64(7),
		Label: "knows",
		InV:   Vertex{ID: Int64(2), Label: "person"},
		OutV:  Vertex{ID: Int64(1), Label: "person"},
		Properties: []Property{
			{Key: "weight", Value: Double(0.5)},
		},
	}
	program := NewBytecode()
	program.AddSource("withStrategies", String("ReadOnlyStrategy"))
	program.AddStep("V", Int64(1))
	program.AddStep("has", String("name"), NewP("eq", String("marko")))

	values := []Value{
		Null{},
		Int32(-5),
		Int64(1 << 40),
		Float(2.25),
		Double(-0.125),
		String("héllo"),
		Bool(true),
		UUID(id),
		DateFromMillis(1709294400000),
		List{Int32(1), String("two"), Null{}},
		Set{Int64(1), Int64(2)},
		Map{StringKey("a"): Int32(1), TokenKey(TLabel): String("x"), DirectionKey(DirectionIn): Bool(false)},
		vertex,
		edge,
		&VertexProperty{ID: Int64(10), Label: "name", Value: String("marko"), Properties: []Property{{Key: "since", Value: Int32(2020)}}},
		&Property{Key: "weight", Value: Double(0.5)},
		&Path{Labels: List{Set{String("a")}}, Objects: List{Int64(1)}},
		&Traverser{Bulk: 3, Value: String("v")},
		NewP("within", Int32(1), Int32(2)),
		NewTextP("containing", String("ark")),
		program,
		TID,
		ScopeLocal,
		OrderShuffle,
		PopAll,
		CardinalitySet,
		MergeOnCreate,
		DirectionBoth,
		ColumnValues,
		&Metrics{
			ID: "0.0.0", Name: "V", Duration: 1200,
			Counts:      Map{StringKey("elementCount"): Int64(6)},
			Annotations: Map{StringKey("percentDur"): Double(25.0)},
			Nested:      []Metrics{{ID: "0.0.1", Name: "inner", Duration: 100}},
		},
		&TraversalMetrics{Duration: 5000, Metrics: []Metrics{{ID: "0", Name: "V", Duration: 1}}},
	}
	for _, v := range values {
		data := encodeQualified(t, v)
		back := decodeQualified(t, data)
		if !Equal(v, back) {
			t.Errorf("%s: round trip %v != %v", TypeName(v), back, v)
		}
	}
}

// group().by() traversals return maps keyed by vertices; the decoded map must
// compare equal to the encoded one and answer lookups by freshly built keys.
func TestBinaryVertexKeyedMapRoundTrip(t *testing.T) {
	grouped := Map{
		VertexKey(&Vertex{ID: Int64(1), Label: "person"}):   Int64(3),
		VertexKey(&Vertex{ID: Int64(2), Label: "software"}): Int64(1),
	}
	back := decodeQualified(t, encodeQualified(t, grouped))
	if !Equal(grouped, back) {
		t.Fatalf("round trip %v != %v", back, grouped)
	}
	bm, ok := back.(Map)
	if !ok {
		t.Fatalf("decoded %s, want Map", TypeName(back))
	}
	got, ok := bm[VertexKey(&Vertex{ID: Int64(1), Label: "person"})]
	if !ok || !Equal(got, Int64(3)) {
		t.Errorf("lookup in decoded map = %v, %v", got, ok)
	}
}

func TestBinaryMapEncodingDeterministic(t *testing.T) {
	m := Map{
		VertexKey(&Vertex{ID: Int64(2), Label: "software"}): Int32(2),
		VertexKey(&Vertex{ID: Int64(1), Label: "person"}):   Int32(1),
		StringKey("total"):                                  Int32(3),
	}
	first := encodeQualified(t, m)
	for i := 0; i < 8; i++ {
		if !bytes.Equal(encodeQualified(t, m), first) {
			t.Fatal("map encoding varies between runs")
		}
	}
}

func TestBinaryTruncatedInput(t *testing.T) {
	cases := [][]byte{
		{},
		{0x01},
		{0x01, 0x00},
		{0x01, 0x00, 0x00, 0x00},
		{0x03, 0x00, 0x00, 0x00, 0x00, 0x05, 'a'},
		{0x09, 0x00, 0x00, 0x00, 0x00, 0x02, 0x01, 0x00, 0x00, 0x00, 0x00, 0x01},
		{0x0c, 0x00, 0x00, 0x01},
	}
	for _, data := range cases {
		r := &binaryReader{data: data}
		_, err := r.readQualified()
		if _, ok := err.(*CastError); !ok {
			t.Errorf("input % x: err = %v, want CastError", data, err)
		}
	}
}

func TestBinaryMalformedInput(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"unknown type code", []byte{0x7f, 0x00, 0x00}},
		{"bad flag", []byte{0x01, 0x05, 0x00, 0x00, 0x00, 0x01}},
		{"negative length", []byte{0x03, 0x00, 0xff, 0xff, 0xff, 0xff}},
		{"bad bool payload", []byte{0x27, 0x00, 0x02}},
		{"null code with present flag", []byte{0xfe, 0x00}},
	}
	for _, c := range cases {
		r := &binaryReader{data: c.data}
		_, err := r.readQualified()
		if _, ok := err.(*CastError); !ok {
			t.Errorf("%s: err = %v, want CastError", c.name, err)
		}
	}
}

func TestBinaryRequestEnvelope(t *testing.T) {
	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	req := &Request{
		ID: id,
		Op: "eval",
		Args: map[string]Value{
			"gremlin": String("g"),
		},
	}
	got, err := encodeBinaryRequest(req)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}

	var want bytes.Buffer
	want.WriteByte(byte(len(contentTypeGraphBinaryV1)))
	want.WriteString(contentTypeGraphBinaryV1)
	want.WriteByte(0x81)
	want.Write(id[:])
	want.Write([]byte{0x00, 0x00, 0x00, 0x04})
	want.WriteString("eval")
	want.Write([]byte{0x00, 0x00, 0x00, 0x00}) // empty processor
	want.Write([]byte{0x00, 0x00, 0x00, 0x01}) // one argument
	want.Write([]byte{0x03, 0x00, 0x00, 0x00, 0x00, 0x07})
	want.WriteString("gremlin")
	want.Write([]byte{0x03, 0x00, 0x00, 0x00, 0x00, 0x01, 'g'})

	if !bytes.Equal(got, want.Bytes()) {
		t.Errorf("request envelope:\n got % x\nwant % x", got, want.Bytes())
	}
}

func TestBinaryResponseEnvelope(t *testing.T) {
	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	var frame bytes.Buffer
	frame.WriteByte(0x81)
	frame.WriteByte(0x00) // request id present
	frame.Write(id[:])
	frame.Write([]byte{0x00, 0x00, 0x00, 0xc8}) // 200
	frame.WriteByte(0x00)                       // message present
	frame.Write([]byte{0x00, 0x00, 0x00, 0x02, 'o', 'k'})
	frame.Write([]byte{0x00, 0x00, 0x00, 0x00}) // attributes
	frame.Write([]byte{0x00, 0x00, 0x00, 0x01}) // one meta entry
	frame.Write([]byte{0x03, 0x00, 0x00, 0x00, 0x00, 0x01, 'm'})
	frame.Write([]byte{0x02, 0x00, 0, 0, 0, 0, 0, 0, 0, 9})
	frame.Write([]byte{ // data: [int32 1]
		0x09, 0x00, 0x00, 0x00, 0x00, 0x01,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x01,
	})

	resp, err := decodeBinaryResponse(frame.Bytes())
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RequestID != id {
		t.Errorf("request id = %v, want %v", resp.RequestID, id)
	}
	if resp.Code != 200 || resp.Message != "ok" {
		t.Errorf("status = %d %q", resp.Code, resp.Message)
	}
	if !Equal(resp.Meta[StringKey("m")], Int64(9)) {
		t.Errorf("meta = %v", resp.Meta)
	}
	if !Equal(resp.Data, List{Int32(1)}) {
		t.Errorf("data = %v", resp.Data)
	}
}

func TestBinaryResponseNullableFields(t *testing.T) {
	var frame bytes.Buffer
	frame.WriteByte(0x81)
	frame.WriteByte(0x01)                       // null request id
	frame.Write([]byte{0x00, 0x00, 0x00, 0xcc}) // 204
	frame.WriteByte(0x01)                       // null message
	frame.Write([]byte{0x00, 0x00, 0x00, 0x00})
	frame.Write([]byte{0x00, 0x00, 0x00, 0x00})
	frame.Write([]byte{0xfe, 0x01}) // null data

	resp, err := decodeBinaryResponse(frame.Bytes())
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RequestID != (uuid.UUID{}) || resp.Code != 204 || resp.Message != "" {
		t.Errorf("resp = %+v", resp)
	}
	if _, ok := resp.Data.(Null); !ok {
		t.Errorf("data = %s, want Null", TypeName(resp.Data))
	}
}

func TestBinaryResponseBadVersion(t *testing.T) {
	_, err := decodeBinaryResponse([]byte{0x80, 0x01})
	if _, ok := err.(*CastError); !ok {
		t.Fatalf("err = %v, want CastError", err)
	}
}
