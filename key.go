package gremlin

import "bytes"

// Key is the restricted union of values usable as map and property keys:
// string, token (T), vertex, edge, or direction. Key is a comparable struct
// so that Map can be a native Go map, and its comparison is structural:
// vertex and edge keys carry the element's canonical wire form, so two
// independently built or decoded equal elements produce equal Keys.
//
// Every Key converts losslessly to a Value; the reverse conversion is guarded
// and fails for variants outside the key subset.
type Key struct {
	kind keyKind
	// str holds the payload: the text of a string, token or direction key,
	// or the canonical encoding of a vertex or edge key.
	str string
}

type keyKind uint8

const (
	keyString keyKind = iota
	keyToken
	keyDirection
	keyVertex
	keyEdge
)

// StringKey builds a Key from a string.
func StringKey(s string) Key {
	return Key{kind: keyString, str: s}
}

// TokenKey builds a Key from a token.
func TokenKey(t T) Key {
	return Key{kind: keyToken, str: string(t)}
}

// VertexKey builds a Key from a vertex. The key snapshots the vertex; later
// mutation of v does not affect it.
func VertexKey(v *Vertex) Key {
	return Key{kind: keyVertex, str: canonicalElement(v)}
}

// EdgeKey builds a Key from an edge. The key snapshots the edge; later
// mutation of e does not affect it.
func EdgeKey(e *Edge) Key {
	return Key{kind: keyEdge, str: canonicalElement(e)}
}

// DirectionKey builds a Key from a direction.
func DirectionKey(d Direction) Key {
	return Key{kind: keyDirection, str: string(d)}
}

// canonicalElement renders a graph element in its qualified wire form, which
// is deterministic: nested maps serialize in sorted key order.
func canonicalElement(v Value) string {
	var buf bytes.Buffer
	if err := writeQualified(&buf, v); err != nil {
		// Unreachable for elements built from decoded wire data; an
		// element holding an unencodable value degrades to an empty key.
		return ""
	}
	return buf.String()
}

// Value converts the key into its Value form. The conversion is total.
func (k Key) Value() Value {
	switch k.kind {
	case keyToken:
		return T(k.str)
	case keyDirection:
		return Direction(k.str)
	case keyVertex, keyEdge:
		r := &binaryReader{data: []byte(k.str)}
		v, err := r.readQualified()
		if err != nil {
			return Null{}
		}
		return v
	default:
		return String(k.str)
	}
}

// less orders keys for deterministic map serialization.
func (k Key) less(o Key) bool {
	if k.kind != o.kind {
		return k.kind < o.kind
	}
	return k.str < o.str
}

// ValueToKey converts a Value into a Key. Only String, T, Vertex, Edge and
// Direction values are usable as keys; everything else is a Cast error.
func ValueToKey(v Value) (Key, error) {
	switch t := v.(type) {
	case String:
		return StringKey(string(t)), nil
	case T:
		return TokenKey(t), nil
	case *Vertex:
		return VertexKey(t), nil
	case *Edge:
		return EdgeKey(t), nil
	case Direction:
		return DirectionKey(t), nil
	default:
		return Key{}, castErrorf("cannot use %s as a map key", TypeName(v))
	}
}
