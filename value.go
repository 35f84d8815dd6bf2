package gremlin

import (
	"time"

	"github.com/google/uuid"
)

// Value is the closed union of every value that can cross the wire. Exactly
// one variant is active at a time; the set of variants mirrors the protocol's
// type table, so each codec is a single exhaustive switch in each direction.
//
// Scalar variants are defined types over their native representation
// (Int32, Int64, Float, Double, String, Bool). Composite and graph-domain
// variants are structs. Null is its own variant rather than a nil interface,
// so a decoded null is always distinguishable from "no value decoded".
type Value interface {
	gremlinValue()
}

// Null is the unspecified null value.
type Null struct{}

// Int32 is a 32-bit signed integer.
type Int32 int32

// Int64 is a 64-bit signed integer.
type Int64 int64

// Float is a 32-bit IEEE 754 float. The narrow width is the server's declared
// type, not an implementation artifact.
type Float float32

// Double is a 64-bit IEEE 754 float.
type Double float64

// String is a UTF-8 string.
type String string

// Bool is a boolean.
type Bool bool

// UUID is a 128-bit universally unique identifier.
type UUID uuid.UUID

// Date is a millisecond-precision UTC timestamp.
type Date time.Time

// List is an ordered sequence of values.
type List []Value

// Set is an unordered collection of unique elements, represented on the wire
// as a list.
type Set []Value

// Map is a collection keyed by Key. Insertion order is irrelevant.
type Map map[Key]Value

func (Null) gremlinValue()   {}
func (Int32) gremlinValue()  {}
func (Int64) gremlinValue()  {}
func (Float) gremlinValue()  {}
func (Double) gremlinValue() {}
func (String) gremlinValue() {}
func (Bool) gremlinValue()   {}
func (UUID) gremlinValue()   {}
func (Date) gremlinValue()   {}
func (List) gremlinValue()   {}
func (Set) gremlinValue()    {}
func (Map) gremlinValue()    {}

// NewDate builds a Date truncated to millisecond precision in UTC.
func NewDate(t time.Time) Date {
	return Date(t.UTC().Truncate(time.Millisecond))
}

// Millis returns the date as milliseconds since the Unix epoch.
func (d Date) Millis() int64 {
	return time.Time(d).UnixMilli()
}

// DateFromMillis builds a Date from milliseconds since the Unix epoch.
func DateFromMillis(ms int64) Date {
	return Date(time.UnixMilli(ms).UTC())
}

// NewValue converts a native Go value into the corresponding Value variant.
// Values pass through unchanged, Keys convert via Key.Value. Unsupported
// native types yield a Cast error.
func NewValue(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case Key:
		return t.Value(), nil
	case int:
		return Int64(t), nil
	case int32:
		return Int32(t), nil
	case int64:
		return Int64(t), nil
	case float32:
		return Float(t), nil
	case float64:
		return Double(t), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case uuid.UUID:
		return UUID(t), nil
	case time.Time:
		return NewDate(t), nil
	case []any:
		list := make(List, 0, len(t))
		for _, e := range t {
			ev, err := NewValue(e)
			if err != nil {
				return nil, err
			}
			list = append(list, ev)
		}
		return list, nil
	case map[string]any:
		m := make(Map, len(t))
		for k, e := range t {
			ev, err := NewValue(e)
			if err != nil {
				return nil, err
			}
			m[StringKey(k)] = ev
		}
		return m, nil
	case map[string]Value:
		m := make(Map, len(t))
		for k, e := range t {
			m[StringKey(k)] = e
		}
		return m, nil
	default:
		return nil, castErrorf("cannot convert %T to a gremlin value", v)
	}
}

// TypeName names a variant for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case Null:
		return "Null"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Float:
		return "Float"
	case Double:
		return "Double"
	case String:
		return "String"
	case Bool:
		return "Bool"
	case UUID:
		return "UUID"
	case Date:
		return "Date"
	case List:
		return "List"
	case Set:
		return "Set"
	case Map:
		return "Map"
	case *Bytecode:
		return "Bytecode"
	case *Vertex:
		return "Vertex"
	case *Edge:
		return "Edge"
	case *VertexProperty:
		return "VertexProperty"
	case *Property:
		return "Property"
	case *Path:
		return "Path"
	case *Traverser:
		return "Traverser"
	case *Metrics:
		return "Metrics"
	case *TraversalMetrics:
		return "TraversalMetrics"
	case *TraversalExplanation:
		return "TraversalExplanation"
	case P:
		return "P"
	case TextP:
		return "TextP"
	case T:
		return "T"
	case Scope:
		return "Scope"
	case Order:
		return "Order"
	case Pop:
		return "Pop"
	case Cardinality:
		return "Cardinality"
	case Merge:
		return "Merge"
	case Direction:
		return "Direction"
	case Column:
		return "Column"
	default:
		return "unknown"
	}
}

// Equal reports structural equality of two values. Map comparison ignores
// ordering; lists and sets compare element-wise in wire order.
func Equal(a, b Value) bool {
	switch at := a.(type) {
	case List:
		bt, ok := b.(List)
		return ok && equalSlices(at, bt)
	case Set:
		bt, ok := b.(Set)
		return ok && equalSlices(at, bt)
	case Map:
		bt, ok := b.(Map)
		if !ok || len(at) != len(bt) {
			return false
		}
		for k, av := range at {
			bv, ok := bt[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case Date:
		bt, ok := b.(Date)
		return ok && at.Millis() == bt.Millis()
	case *Bytecode:
		bt, ok := b.(*Bytecode)
		return ok && at.equal(bt)
	case *Vertex:
		bt, ok := b.(*Vertex)
		return ok && at.equal(bt)
	case *Edge:
		bt, ok := b.(*Edge)
		return ok && at.equal(bt)
	case *VertexProperty:
		bt, ok := b.(*VertexProperty)
		return ok && at.equal(bt)
	case *Property:
		bt, ok := b.(*Property)
		return ok && at.equal(bt)
	case *Path:
		bt, ok := b.(*Path)
		return ok && Equal(at.Labels, bt.Labels) && Equal(at.Objects, bt.Objects)
	case *Traverser:
		bt, ok := b.(*Traverser)
		return ok && at.Bulk == bt.Bulk && Equal(at.Value, bt.Value)
	case *Metrics:
		bt, ok := b.(*Metrics)
		return ok && at.equal(bt)
	case *TraversalMetrics:
		bt, ok := b.(*TraversalMetrics)
		if !ok || at.Duration != bt.Duration || len(at.Metrics) != len(bt.Metrics) {
			return false
		}
		for i := range at.Metrics {
			if !at.Metrics[i].equal(&bt.Metrics[i]) {
				return false
			}
		}
		return true
	case *TraversalExplanation:
		bt, ok := b.(*TraversalExplanation)
		return ok && equalStrings(at.Original, bt.Original) &&
			equalStrings(at.Intermediate, bt.Intermediate) &&
			equalStrings(at.Final, bt.Final)
	case P:
		bt, ok := b.(P)
		return ok && at.Predicate == bt.Predicate && equalSlices(at.Args, bt.Args)
	case TextP:
		bt, ok := b.(TextP)
		return ok && at.Predicate == bt.Predicate && equalSlices(at.Args, bt.Args)
	default:
		return a == b
	}
}

func equalSlices(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// unwrapSingle implements the wire convention that scalar bindings may arrive
// wrapped in a one-element list.
func unwrapSingle(v Value) (Value, bool) {
	if l, ok := v.(List); ok && len(l) == 1 {
		return l[0], true
	}
	return v, false
}

// AsString converts to a native string, unwrapping a one-element list.
func AsString(v Value) (string, error) {
	if s, ok := v.(String); ok {
		return string(s), nil
	}
	if inner, ok := unwrapSingle(v); ok {
		return AsString(inner)
	}
	return "", castErrorf("cannot cast %s to string", TypeName(v))
}

// AsInt32 converts to a native int32, unwrapping a one-element list.
func AsInt32(v Value) (int32, error) {
	if n, ok := v.(Int32); ok {
		return int32(n), nil
	}
	if inner, ok := unwrapSingle(v); ok {
		return AsInt32(inner)
	}
	return 0, castErrorf("cannot cast %s to int32", TypeName(v))
}

// AsInt64 converts to a native int64, unwrapping a one-element list.
func AsInt64(v Value) (int64, error) {
	if n, ok := v.(Int64); ok {
		return int64(n), nil
	}
	if inner, ok := unwrapSingle(v); ok {
		return AsInt64(inner)
	}
	return 0, castErrorf("cannot cast %s to int64", TypeName(v))
}

// AsFloat converts to a native float32, unwrapping a one-element list.
func AsFloat(v Value) (float32, error) {
	if f, ok := v.(Float); ok {
		return float32(f), nil
	}
	if inner, ok := unwrapSingle(v); ok {
		return AsFloat(inner)
	}
	return 0, castErrorf("cannot cast %s to float32", TypeName(v))
}

// AsDouble converts to a native float64, unwrapping a one-element list.
func AsDouble(v Value) (float64, error) {
	if f, ok := v.(Double); ok {
		return float64(f), nil
	}
	if inner, ok := unwrapSingle(v); ok {
		return AsDouble(inner)
	}
	return 0, castErrorf("cannot cast %s to float64", TypeName(v))
}

// AsBool converts to a native bool, unwrapping a one-element list.
func AsBool(v Value) (bool, error) {
	if b, ok := v.(Bool); ok {
		return bool(b), nil
	}
	if inner, ok := unwrapSingle(v); ok {
		return AsBool(inner)
	}
	return false, castErrorf("cannot cast %s to bool", TypeName(v))
}

// AsUUID converts to a uuid.UUID.
func AsUUID(v Value) (uuid.UUID, error) {
	if u, ok := v.(UUID); ok {
		return uuid.UUID(u), nil
	}
	if inner, ok := unwrapSingle(v); ok {
		return AsUUID(inner)
	}
	return uuid.UUID{}, castErrorf("cannot cast %s to uuid", TypeName(v))
}

// AsDate converts to a time.Time in UTC.
func AsDate(v Value) (time.Time, error) {
	if d, ok := v.(Date); ok {
		return time.Time(d), nil
	}
	if inner, ok := unwrapSingle(v); ok {
		return AsDate(inner)
	}
	return time.Time{}, castErrorf("cannot cast %s to time", TypeName(v))
}

// Native converts a Value into plain Go types: scalars to their native
// counterparts, List/Set to []any, Map to map[any]any, graph elements to
// their struct pointers.
func Native(v Value) any {
	switch t := v.(type) {
	case Null:
		return nil
	case Int32:
		return int32(t)
	case Int64:
		return int64(t)
	case Float:
		return float32(t)
	case Double:
		return float64(t)
	case String:
		return string(t)
	case Bool:
		return bool(t)
	case UUID:
		return uuid.UUID(t)
	case Date:
		return time.Time(t)
	case List:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Native(e)
		}
		return out
	case Set:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Native(e)
		}
		return out
	case Map:
		out := make(map[any]any, len(t))
		for k, e := range t {
			out[Native(k.Value())] = Native(e)
		}
		return out
	default:
		return t
	}
}
