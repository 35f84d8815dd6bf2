package gremlin

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"

	"github.com/google/uuid"
)

// GraphBinary v1 codec.
//
// Every value is written fully qualified: one type-code byte, one value-flag
// byte (0x00 present, 0x01 null; a null carries no payload), then the
// payload. Composite payloads are length-prefixed with a 4-byte big-endian
// signed int and their elements are themselves fully qualified. Scalars are
// raw big-endian with no inner flag. Decoding is the symmetric grammar and
// fails with a Cast error on truncated or malformed input.

// Type codes from the protocol's data-type table.
const (
	typeInt32            byte = 0x01
	typeInt64            byte = 0x02
	typeString           byte = 0x03
	typeDate             byte = 0x04
	typeDouble           byte = 0x07
	typeFloat            byte = 0x08
	typeList             byte = 0x09
	typeMap              byte = 0x0a
	typeSet              byte = 0x0b
	typeUUID             byte = 0x0c
	typeEdge             byte = 0x0d
	typePath             byte = 0x0e
	typeProperty         byte = 0x0f
	typeVertex           byte = 0x11
	typeVertexProperty   byte = 0x12
	typeBytecode         byte = 0x15
	typeCardinality      byte = 0x16
	typeColumn           byte = 0x17
	typeDirection        byte = 0x18
	typeOrder            byte = 0x1a
	typePop              byte = 0x1c
	typeP                byte = 0x1e
	typeScope            byte = 0x1f
	typeT                byte = 0x20
	typeTraverser        byte = 0x21
	typeBool             byte = 0x27
	typeTextP            byte = 0x28
	typeMetrics          byte = 0x2c
	typeTraversalMetrics byte = 0x2d
	typeMerge            byte = 0x2e
	typeNull             byte = 0xfe
)

const (
	flagPresent byte = 0x00
	flagNull    byte = 0x01
)

// versionByte leads every message envelope in this format.
const versionByte byte = 0x81

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

// writeLength writes a collection or string length as a signed 4-byte int.
func writeLength(buf *bytes.Buffer, n int) error {
	if n > math.MaxInt32 {
		return castErrorf("length %d exceeds int32", n)
	}
	writeInt32(buf, int32(n))
	return nil
}

// writeStringPayload writes the unqualified form of a string: int32 byte
// length then UTF-8 bytes.
func writeStringPayload(buf *bytes.Buffer, s string) error {
	if err := writeLength(buf, len(s)); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

// writeQualified writes the fully-qualified form of v.
func writeQualified(buf *bytes.Buffer, v Value) error {
	if v == nil {
		v = Null{}
	}
	if _, ok := v.(Null); ok {
		buf.WriteByte(typeNull)
		buf.WriteByte(flagNull)
		return nil
	}
	code, err := typeCodeOf(v)
	if err != nil {
		return err
	}
	buf.WriteByte(code)
	buf.WriteByte(flagPresent)
	return writePayload(buf, v)
}

func typeCodeOf(v Value) (byte, error) {
	switch v.(type) {
	case Int32:
		return typeInt32, nil
	case Int64:
		return typeInt64, nil
	case String:
		return typeString, nil
	case Date:
		return typeDate, nil
	case Double:
		return typeDouble, nil
	case Float:
		return typeFloat, nil
	case List:
		return typeList, nil
	case Map:
		return typeMap, nil
	case Set:
		return typeSet, nil
	case UUID:
		return typeUUID, nil
	case *Edge:
		return typeEdge, nil
	case *Path:
		return typePath, nil
	case *Property:
		return typeProperty, nil
	case *Vertex:
		return typeVertex, nil
	case *VertexProperty:
		return typeVertexProperty, nil
	case *Bytecode:
		return typeBytecode, nil
	case Cardinality:
		return typeCardinality, nil
	case Column:
		return typeColumn, nil
	case Direction:
		return typeDirection, nil
	case Order:
		return typeOrder, nil
	case Pop:
		return typePop, nil
	case P:
		return typeP, nil
	case Scope:
		return typeScope, nil
	case T:
		return typeT, nil
	case *Traverser:
		return typeTraverser, nil
	case Bool:
		return typeBool, nil
	case TextP:
		return typeTextP, nil
	case *Metrics:
		return typeMetrics, nil
	case *TraversalMetrics:
		return typeTraversalMetrics, nil
	case Merge:
		return typeMerge, nil
	default:
		return 0, castErrorf("%s is not representable in graphbinary", TypeName(v))
	}
}

func writePayload(buf *bytes.Buffer, v Value) error {
	switch t := v.(type) {
	case Int32:
		writeInt32(buf, int32(t))
	case Int64:
		writeInt64(buf, int64(t))
	case String:
		return writeStringPayload(buf, string(t))
	case Date:
		writeInt64(buf, t.Millis())
	case Double:
		writeInt64(buf, int64(math.Float64bits(float64(t))))
	case Float:
		writeInt32(buf, int32(math.Float32bits(float32(t))))
	case List:
		return writeElements(buf, t)
	case Set:
		return writeElements(buf, t)
	case Map:
		return writeMapPayload(buf, t)
	case UUID:
		buf.Write(t[:])
	case *Edge:
		return writeEdgePayload(buf, t)
	case *Path:
		if err := writeQualified(buf, t.Labels); err != nil {
			return err
		}
		return writeQualified(buf, t.Objects)
	case *Property:
		if err := writeStringPayload(buf, t.Key); err != nil {
			return err
		}
		if err := writeQualified(buf, t.Value); err != nil {
			return err
		}
		return writeQualified(buf, Null{}) // parent is not serialized
	case *Vertex:
		return writeVertexPayload(buf, t)
	case *VertexProperty:
		return writeVertexPropertyPayload(buf, t)
	case *Bytecode:
		if err := writeInstructions(buf, t.steps); err != nil {
			return err
		}
		return writeInstructions(buf, t.sources)
	case Cardinality:
		return writeQualified(buf, String(t))
	case Column:
		return writeQualified(buf, String(t))
	case Direction:
		return writeQualified(buf, String(t))
	case Order:
		return writeQualified(buf, String(t))
	case Pop:
		return writeQualified(buf, String(t))
	case Scope:
		return writeQualified(buf, String(t))
	case T:
		return writeQualified(buf, String(t))
	case Merge:
		return writeQualified(buf, String(t))
	case P:
		return writePredicatePayload(buf, t.Predicate, t.Args)
	case TextP:
		return writePredicatePayload(buf, t.Predicate, t.Args)
	case *Traverser:
		writeInt64(buf, t.Bulk)
		return writeQualified(buf, t.Value)
	case Bool:
		if t {
			buf.WriteByte(0x01)
		} else {
			buf.WriteByte(0x00)
		}
	case *Metrics:
		return writeMetricsPayload(buf, t)
	case *TraversalMetrics:
		writeInt64(buf, t.Duration)
		return writeMetricsList(buf, t.Metrics)
	default:
		return castErrorf("%s is not representable in graphbinary", TypeName(v))
	}
	return nil
}

func writeElements(buf *bytes.Buffer, elems []Value) error {
	if err := writeLength(buf, len(elems)); err != nil {
		return err
	}
	for _, e := range elems {
		if err := writeQualified(buf, e); err != nil {
			return err
		}
	}
	return nil
}

func writeMapPayload(buf *bytes.Buffer, m Map) error {
	if err := writeLength(buf, len(m)); err != nil {
		return err
	}
	// Deterministic output: order entries by kind, then canonical payload.
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	for _, k := range keys {
		if err := writeQualified(buf, k.Value()); err != nil {
			return err
		}
		if err := writeQualified(buf, m[k]); err != nil {
			return err
		}
	}
	return nil
}

func writeInstructions(buf *bytes.Buffer, instructions []Instruction) error {
	if err := writeLength(buf, len(instructions)); err != nil {
		return err
	}
	for _, in := range instructions {
		if err := writeStringPayload(buf, in.Operator); err != nil {
			return err
		}
		if err := writeLength(buf, len(in.Args)); err != nil {
			return err
		}
		for _, arg := range in.Args {
			if err := writeQualified(buf, arg); err != nil {
				return err
			}
		}
	}
	return nil
}

func writePredicatePayload(buf *bytes.Buffer, predicate string, args []Value) error {
	if err := writeStringPayload(buf, predicate); err != nil {
		return err
	}
	if err := writeLength(buf, len(args)); err != nil {
		return err
	}
	for _, arg := range args {
		if err := writeQualified(buf, arg); err != nil {
			return err
		}
	}
	return nil
}

func writeVertexPayload(buf *bytes.Buffer, v *Vertex) error {
	if err := writeQualified(buf, v.ID); err != nil {
		return err
	}
	if err := writeStringPayload(buf, v.Label); err != nil {
		return err
	}
	if len(v.Properties) == 0 {
		return writeQualified(buf, Null{})
	}
	props := make(List, len(v.Properties))
	for i := range v.Properties {
		props[i] = &v.Properties[i]
	}
	return writeQualified(buf, props)
}

func writeVertexPropertyPayload(buf *bytes.Buffer, p *VertexProperty) error {
	if err := writeQualified(buf, p.ID); err != nil {
		return err
	}
	if err := writeStringPayload(buf, p.Label); err != nil {
		return err
	}
	if err := writeQualified(buf, p.Value); err != nil {
		return err
	}
	if err := writeQualified(buf, Null{}); err != nil { // parent
		return err
	}
	if len(p.Properties) == 0 {
		return writeQualified(buf, Null{})
	}
	props := make(List, len(p.Properties))
	for i := range p.Properties {
		props[i] = &p.Properties[i]
	}
	return writeQualified(buf, props)
}

func writeEdgePayload(buf *bytes.Buffer, e *Edge) error {
	if err := writeQualified(buf, e.ID); err != nil {
		return err
	}
	if err := writeStringPayload(buf, e.Label); err != nil {
		return err
	}
	if err := writeQualified(buf, e.InV.ID); err != nil {
		return err
	}
	if err := writeStringPayload(buf, e.InV.Label); err != nil {
		return err
	}
	if err := writeQualified(buf, e.OutV.ID); err != nil {
		return err
	}
	if err := writeStringPayload(buf, e.OutV.Label); err != nil {
		return err
	}
	if err := writeQualified(buf, Null{}); err != nil { // parent
		return err
	}
	if len(e.Properties) == 0 {
		return writeQualified(buf, Null{})
	}
	props := make(List, len(e.Properties))
	for i := range e.Properties {
		props[i] = &e.Properties[i]
	}
	return writeQualified(buf, props)
}

func writeMetricsPayload(buf *bytes.Buffer, m *Metrics) error {
	if err := writeStringPayload(buf, m.ID); err != nil {
		return err
	}
	if err := writeStringPayload(buf, m.Name); err != nil {
		return err
	}
	writeInt64(buf, m.Duration)
	if err := writeQualified(buf, m.Counts); err != nil {
		return err
	}
	if err := writeQualified(buf, m.Annotations); err != nil {
		return err
	}
	return writeMetricsList(buf, m.Nested)
}

func writeMetricsList(buf *bytes.Buffer, metrics []Metrics) error {
	list := make(List, len(metrics))
	for i := range metrics {
		list[i] = &metrics[i]
	}
	return writeQualified(buf, list)
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// binaryReader consumes a frame, returning Cast errors once input runs short.
type binaryReader struct {
	data []byte
	off  int
}

func (r *binaryReader) readByte() (byte, error) {
	if r.off >= len(r.data) {
		return 0, castErrorf("truncated graphbinary input at offset %d", r.off)
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

func (r *binaryReader) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, castErrorf("negative graphbinary length %d", n)
	}
	if r.off+n > len(r.data) {
		return nil, castErrorf("truncated graphbinary input: need %d bytes at offset %d", n, r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *binaryReader) readInt32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (r *binaryReader) readInt64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (r *binaryReader) readLength() (int, error) {
	n, err := r.readInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, castErrorf("negative graphbinary length %d", n)
	}
	return int(n), nil
}

func (r *binaryReader) readStringPayload() (string, error) {
	n, err := r.readLength()
	if err != nil {
		return "", err
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *binaryReader) readUUID() (uuid.UUID, error) {
	b, err := r.take(16)
	if err != nil {
		return uuid.UUID{}, err
	}
	var u uuid.UUID
	copy(u[:], b)
	return u, nil
}

// readQualified reads one fully-qualified value.
func (r *binaryReader) readQualified() (Value, error) {
	code, err := r.readByte()
	if err != nil {
		return nil, err
	}
	flag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch flag {
	case flagNull:
		return Null{}, nil
	case flagPresent:
		if code == typeNull {
			return nil, castErrorf("null type code 0x%02x with non-null flag", code)
		}
		return r.readPayload(code)
	default:
		return nil, castErrorf("invalid graphbinary value flag 0x%02x", flag)
	}
}

func (r *binaryReader) readPayload(code byte) (Value, error) {
	switch code {
	case typeInt32:
		n, err := r.readInt32()
		return Int32(n), err
	case typeInt64:
		n, err := r.readInt64()
		return Int64(n), err
	case typeString:
		s, err := r.readStringPayload()
		return String(s), err
	case typeDate:
		ms, err := r.readInt64()
		return DateFromMillis(ms), err
	case typeDouble:
		bits, err := r.readInt64()
		return Double(math.Float64frombits(uint64(bits))), err
	case typeFloat:
		bits, err := r.readInt32()
		return Float(math.Float32frombits(uint32(bits))), err
	case typeList:
		elems, err := r.readElements()
		return List(elems), err
	case typeSet:
		elems, err := r.readElements()
		return Set(elems), err
	case typeMap:
		return r.readMapPayload()
	case typeUUID:
		u, err := r.readUUID()
		return UUID(u), err
	case typeEdge:
		return r.readEdgePayload()
	case typePath:
		return r.readPathPayload()
	case typeProperty:
		return r.readPropertyPayload()
	case typeVertex:
		return r.readVertexPayload()
	case typeVertexProperty:
		return r.readVertexPropertyPayload()
	case typeBytecode:
		return r.readBytecodePayload()
	case typeCardinality:
		s, err := r.readEnumPayload()
		return Cardinality(s), err
	case typeColumn:
		s, err := r.readEnumPayload()
		return Column(s), err
	case typeDirection:
		s, err := r.readEnumPayload()
		return Direction(s), err
	case typeOrder:
		s, err := r.readEnumPayload()
		return Order(s), err
	case typePop:
		s, err := r.readEnumPayload()
		return Pop(s), err
	case typeScope:
		s, err := r.readEnumPayload()
		return Scope(s), err
	case typeT:
		s, err := r.readEnumPayload()
		return T(s), err
	case typeMerge:
		s, err := r.readEnumPayload()
		return Merge(s), err
	case typeP:
		pred, args, err := r.readPredicatePayload()
		return P{Predicate: pred, Args: args}, err
	case typeTextP:
		pred, args, err := r.readPredicatePayload()
		return TextP{Predicate: pred, Args: args}, err
	case typeTraverser:
		bulk, err := r.readInt64()
		if err != nil {
			return nil, err
		}
		v, err := r.readQualified()
		if err != nil {
			return nil, err
		}
		return &Traverser{Bulk: bulk, Value: v}, nil
	case typeBool:
		b, err := r.readByte()
		if err != nil {
			return nil, err
		}
		switch b {
		case 0x00:
			return Bool(false), nil
		case 0x01:
			return Bool(true), nil
		default:
			return nil, castErrorf("invalid boolean payload 0x%02x", b)
		}
	case typeMetrics:
		return r.readMetricsPayload()
	case typeTraversalMetrics:
		dur, err := r.readInt64()
		if err != nil {
			return nil, err
		}
		metrics, err := r.readMetricsList()
		if err != nil {
			return nil, err
		}
		return &TraversalMetrics{Duration: dur, Metrics: metrics}, nil
	default:
		return nil, castErrorf("unrecognized graphbinary type code 0x%02x", code)
	}
}

func (r *binaryReader) readElements() ([]Value, error) {
	n, err := r.readLength()
	if err != nil {
		return nil, err
	}
	elems := make([]Value, 0, minCap(n))
	for i := 0; i < n; i++ {
		v, err := r.readQualified()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return elems, nil
}

// minCap bounds preallocation so a corrupt length prefix cannot force a huge
// allocation before the read fails.
func minCap(n int) int {
	if n > 1024 {
		return 1024
	}
	return n
}

func (r *binaryReader) readMapPayload() (Map, error) {
	n, err := r.readLength()
	if err != nil {
		return nil, err
	}
	m := make(Map, minCap(n))
	for i := 0; i < n; i++ {
		kv, err := r.readQualified()
		if err != nil {
			return nil, err
		}
		k, err := ValueToKey(kv)
		if err != nil {
			return nil, err
		}
		v, err := r.readQualified()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

// readEnumPayload reads the fully-qualified string every enum serializes as.
func (r *binaryReader) readEnumPayload() (string, error) {
	v, err := r.readQualified()
	if err != nil {
		return "", err
	}
	s, ok := v.(String)
	if !ok {
		return "", castErrorf("enum payload is %s, want String", TypeName(v))
	}
	return string(s), nil
}

func (r *binaryReader) readPredicatePayload() (string, []Value, error) {
	pred, err := r.readStringPayload()
	if err != nil {
		return "", nil, err
	}
	n, err := r.readLength()
	if err != nil {
		return "", nil, err
	}
	args := make([]Value, 0, minCap(n))
	for i := 0; i < n; i++ {
		v, err := r.readQualified()
		if err != nil {
			return "", nil, err
		}
		args = append(args, v)
	}
	return pred, args, nil
}

func (r *binaryReader) readBytecodePayload() (*Bytecode, error) {
	steps, err := r.readInstructions()
	if err != nil {
		return nil, err
	}
	sources, err := r.readInstructions()
	if err != nil {
		return nil, err
	}
	return &Bytecode{sources: sources, steps: steps}, nil
}

func (r *binaryReader) readInstructions() ([]Instruction, error) {
	n, err := r.readLength()
	if err != nil {
		return nil, err
	}
	instructions := make([]Instruction, 0, minCap(n))
	for i := 0; i < n; i++ {
		op, err := r.readStringPayload()
		if err != nil {
			return nil, err
		}
		argc, err := r.readLength()
		if err != nil {
			return nil, err
		}
		args := make([]Value, 0, minCap(argc))
		for j := 0; j < argc; j++ {
			v, err := r.readQualified()
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		instructions = append(instructions, Instruction{Operator: op, Args: args})
	}
	return instructions, nil
}

func (r *binaryReader) readVertexPayload() (*Vertex, error) {
	id, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	label, err := r.readStringPayload()
	if err != nil {
		return nil, err
	}
	props, err := r.readVertexPropertyList()
	if err != nil {
		return nil, err
	}
	return &Vertex{ID: id, Label: label, Properties: props}, nil
}

func (r *binaryReader) readVertexPropertyList() ([]VertexProperty, error) {
	v, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case Null:
		return nil, nil
	case List:
		props := make([]VertexProperty, 0, len(t))
		for _, e := range t {
			vp, ok := e.(*VertexProperty)
			if !ok {
				return nil, castErrorf("vertex property list holds %s", TypeName(e))
			}
			props = append(props, *vp)
		}
		return props, nil
	default:
		return nil, castErrorf("vertex properties are %s, want List or Null", TypeName(v))
	}
}

func (r *binaryReader) readPropertyList() ([]Property, error) {
	v, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case Null:
		return nil, nil
	case List:
		props := make([]Property, 0, len(t))
		for _, e := range t {
			p, ok := e.(*Property)
			if !ok {
				return nil, castErrorf("property list holds %s", TypeName(e))
			}
			props = append(props, *p)
		}
		return props, nil
	default:
		return nil, castErrorf("properties are %s, want List or Null", TypeName(v))
	}
}

func (r *binaryReader) readVertexPropertyPayload() (*VertexProperty, error) {
	id, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	label, err := r.readStringPayload()
	if err != nil {
		return nil, err
	}
	value, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	if _, err := r.readQualified(); err != nil { // parent, always null
		return nil, err
	}
	props, err := r.readPropertyList()
	if err != nil {
		return nil, err
	}
	return &VertexProperty{ID: id, Label: label, Value: value, Properties: props}, nil
}

func (r *binaryReader) readPropertyPayload() (*Property, error) {
	key, err := r.readStringPayload()
	if err != nil {
		return nil, err
	}
	value, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	if _, err := r.readQualified(); err != nil { // parent, always null
		return nil, err
	}
	return &Property{Key: key, Value: value}, nil
}

func (r *binaryReader) readEdgePayload() (*Edge, error) {
	id, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	label, err := r.readStringPayload()
	if err != nil {
		return nil, err
	}
	inVID, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	inVLabel, err := r.readStringPayload()
	if err != nil {
		return nil, err
	}
	outVID, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	outVLabel, err := r.readStringPayload()
	if err != nil {
		return nil, err
	}
	if _, err := r.readQualified(); err != nil { // parent, always null
		return nil, err
	}
	props, err := r.readPropertyList()
	if err != nil {
		return nil, err
	}
	return &Edge{
		ID:         id,
		Label:      label,
		InV:        Vertex{ID: inVID, Label: inVLabel},
		OutV:       Vertex{ID: outVID, Label: outVLabel},
		Properties: props,
	}, nil
}

func (r *binaryReader) readPathPayload() (*Path, error) {
	labels, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	labelList, ok := labels.(List)
	if !ok {
		return nil, castErrorf("path labels are %s, want List", TypeName(labels))
	}
	objects, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	objectList, ok := objects.(List)
	if !ok {
		return nil, castErrorf("path objects are %s, want List", TypeName(objects))
	}
	return &Path{Labels: labelList, Objects: objectList}, nil
}

func (r *binaryReader) readMetricsPayload() (*Metrics, error) {
	id, err := r.readStringPayload()
	if err != nil {
		return nil, err
	}
	name, err := r.readStringPayload()
	if err != nil {
		return nil, err
	}
	dur, err := r.readInt64()
	if err != nil {
		return nil, err
	}
	counts, err := r.readMapOrNull()
	if err != nil {
		return nil, err
	}
	annotations, err := r.readMapOrNull()
	if err != nil {
		return nil, err
	}
	nested, err := r.readMetricsList()
	if err != nil {
		return nil, err
	}
	return &Metrics{ID: id, Name: name, Duration: dur, Counts: counts, Annotations: annotations, Nested: nested}, nil
}

func (r *binaryReader) readMapOrNull() (Map, error) {
	v, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case Null:
		return nil, nil
	case Map:
		return t, nil
	default:
		return nil, castErrorf("expected Map or Null, got %s", TypeName(v))
	}
}

func (r *binaryReader) readMetricsList() ([]Metrics, error) {
	v, err := r.readQualified()
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case Null:
		return nil, nil
	case List:
		metrics := make([]Metrics, 0, len(t))
		for _, e := range t {
			m, ok := e.(*Metrics)
			if !ok {
				return nil, castErrorf("metrics list holds %s", TypeName(e))
			}
			metrics = append(metrics, *m)
		}
		return metrics, nil
	default:
		return nil, castErrorf("metrics are %s, want List or Null", TypeName(v))
	}
}

// ---------------------------------------------------------------------------
// Message envelopes
// ---------------------------------------------------------------------------

// encodeBinaryRequest writes the request envelope: content-type length and
// string, version byte, raw 16-byte request id, op and processor as
// unqualified strings, then the argument count followed by fully-qualified
// key/value pairs. Arguments are written in sorted key order so encoding is
// deterministic.
func encodeBinaryRequest(req *Request) ([]byte, error) {
	var buf bytes.Buffer
	ct := contentTypeGraphBinaryV1
	buf.WriteByte(byte(len(ct)))
	buf.WriteString(ct)
	buf.WriteByte(versionByte)
	buf.Write(req.ID[:])
	if err := writeStringPayload(&buf, req.Op); err != nil {
		return nil, err
	}
	if err := writeStringPayload(&buf, req.Processor); err != nil {
		return nil, err
	}
	if err := writeLength(&buf, len(req.Args)); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(req.Args))
	for k := range req.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeQualified(&buf, String(k)); err != nil {
			return nil, err
		}
		if err := writeQualified(&buf, req.Args[k]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// decodeBinaryResponse reads the response envelope: version byte, nullable
// request id (flag byte then 16 raw bytes), int32 status code narrowed to 16
// bits, nullable status message, attribute map, result meta map, and one
// fully-qualified result value (Null when absent).
func decodeBinaryResponse(data []byte) (*Response, error) {
	r := &binaryReader{data: data}
	version, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if version != versionByte {
		return nil, castErrorf("unexpected graphbinary version byte 0x%02x, want 0x%02x", version, versionByte)
	}
	resp := &Response{}
	idFlag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch idFlag {
	case flagPresent:
		id, err := r.readUUID()
		if err != nil {
			return nil, err
		}
		resp.RequestID = id
	case flagNull:
	default:
		return nil, castErrorf("invalid request id flag 0x%02x", idFlag)
	}
	code, err := r.readInt32()
	if err != nil {
		return nil, err
	}
	resp.Code = int16(code)
	msgFlag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch msgFlag {
	case flagPresent:
		msg, err := r.readStringPayload()
		if err != nil {
			return nil, err
		}
		resp.Message = msg
	case flagNull:
	default:
		return nil, castErrorf("invalid status message flag 0x%02x", msgFlag)
	}
	if resp.Attributes, err = r.readMapEntries(); err != nil {
		return nil, err
	}
	if resp.Meta, err = r.readMapEntries(); err != nil {
		return nil, err
	}
	if resp.Data, err = r.readQualified(); err != nil {
		return nil, err
	}
	return resp, nil
}

// readMapEntries reads the bare length-prefixed key/value map used by the
// envelope's attribute and metadata sections.
func (r *binaryReader) readMapEntries() (Map, error) {
	n, err := r.readLength()
	if err != nil {
		return nil, err
	}
	m := make(Map, minCap(n))
	for i := 0; i < n; i++ {
		kv, err := r.readQualified()
		if err != nil {
			return nil, err
		}
		k, err := ValueToKey(kv)
		if err != nil {
			return nil, err
		}
		v, err := r.readQualified()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}
