package gremlin

// The closed enumerations of the protocol. Each serializes as a
// fully-qualified string of its wire name.

// T is a token addressing a structural part of a graph element.
type T string

const (
	TID    T = "id"
	TKey   T = "key"
	TLabel T = "label"
	TValue T = "value"
)

// Scope controls whether a step acts on the whole traversal or locally.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeLocal  Scope = "local"
)

// Order is a sort order.
type Order string

const (
	OrderAsc     Order = "asc"
	OrderDesc    Order = "desc"
	OrderShuffle Order = "shuffle"
)

// Pop selects which items to pop from a labeled path.
type Pop string

const (
	PopFirst Pop = "first"
	PopLast  Pop = "last"
	PopAll   Pop = "all"
	PopMixed Pop = "mixed"
)

// Cardinality is a vertex property cardinality.
type Cardinality string

const (
	CardinalityList   Cardinality = "list"
	CardinalitySingle Cardinality = "single"
	CardinalitySet    Cardinality = "set"
)

// Merge names the branches of a mergeV/mergeE step.
type Merge string

const (
	MergeOnCreate Merge = "onCreate"
	MergeOnMatch  Merge = "onMatch"
	MergeOutV     Merge = "outV"
	MergeInV      Merge = "inV"
)

// Direction denotes edge direction relative to a vertex.
type Direction string

const (
	DirectionOut  Direction = "OUT"
	DirectionIn   Direction = "IN"
	DirectionBoth Direction = "BOTH"
)

// Column selects the keys or values of a map-like structure.
type Column string

const (
	ColumnKeys   Column = "keys"
	ColumnValues Column = "values"
)

// P is a predicate over values, e.g. eq, gt, within.
type P struct {
	Predicate string
	Args      []Value
}

// NewP builds a predicate.
func NewP(predicate string, args ...Value) P {
	return P{Predicate: predicate, Args: args}
}

// TextP is a predicate over strings, e.g. containing, startingWith.
type TextP struct {
	Predicate string
	Args      []Value
}

// NewTextP builds a text predicate.
func NewTextP(predicate string, args ...Value) TextP {
	return TextP{Predicate: predicate, Args: args}
}

func (T) gremlinValue()           {}
func (Scope) gremlinValue()       {}
func (Order) gremlinValue()       {}
func (Pop) gremlinValue()         {}
func (Cardinality) gremlinValue() {}
func (Merge) gremlinValue()       {}
func (Direction) gremlinValue()   {}
func (Column) gremlinValue()      {}
func (P) gremlinValue()           {}
func (TextP) gremlinValue()       {}
