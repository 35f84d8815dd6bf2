package gremlin

// Graph-domain values returned by traversals.

// Vertex is a graph vertex: an identifier, a label, and its properties.
type Vertex struct {
	ID         Value
	Label      string
	Properties []VertexProperty
}

func (*Vertex) gremlinValue() {}

func (v *Vertex) equal(o *Vertex) bool {
	if v.Label != o.Label || !Equal(v.ID, o.ID) || len(v.Properties) != len(o.Properties) {
		return false
	}
	for i := range v.Properties {
		if !v.Properties[i].equal(&o.Properties[i]) {
			return false
		}
	}
	return true
}

// Edge is a graph edge between an out-vertex and an in-vertex.
type Edge struct {
	ID         Value
	Label      string
	InV        Vertex
	OutV       Vertex
	Properties []Property
}

func (*Edge) gremlinValue() {}

func (e *Edge) equal(o *Edge) bool {
	if e.Label != o.Label || !Equal(e.ID, o.ID) {
		return false
	}
	if !e.InV.equal(&o.InV) || !e.OutV.equal(&o.OutV) {
		return false
	}
	if len(e.Properties) != len(o.Properties) {
		return false
	}
	for i := range e.Properties {
		if !e.Properties[i].equal(&o.Properties[i]) {
			return false
		}
	}
	return true
}

// VertexProperty is a property attached to a vertex; unlike a plain Property
// it has its own identifier and may carry meta-properties.
type VertexProperty struct {
	ID         Value
	Label      string
	Value      Value
	Properties []Property
}

func (*VertexProperty) gremlinValue() {}

func (p *VertexProperty) equal(o *VertexProperty) bool {
	if p.Label != o.Label || !Equal(p.ID, o.ID) || !Equal(p.Value, o.Value) {
		return false
	}
	if len(p.Properties) != len(o.Properties) {
		return false
	}
	for i := range p.Properties {
		if !p.Properties[i].equal(&o.Properties[i]) {
			return false
		}
	}
	return true
}

// Property is a key/value pair attached to an edge or vertex property.
type Property struct {
	Key   string
	Value Value
}

func (*Property) gremlinValue() {}

func (p *Property) equal(o *Property) bool {
	return p.Key == o.Key && Equal(p.Value, o.Value)
}

// Path records the objects visited by a traversal and the step labels under
// which each was visited. Labels is a List of Sets of strings, Objects a List
// of the visited values; the two run in lockstep.
type Path struct {
	Labels  List
	Objects List
}

func (*Path) gremlinValue() {}

// Traverser pairs a result value with its bulk: the number of times the
// traversal arrived at that value.
type Traverser struct {
	Bulk  int64
	Value Value
}

func (*Traverser) gremlinValue() {}

// Metrics describes the runtime behavior of one traversal step.
// Duration is in nanoseconds.
type Metrics struct {
	ID          string
	Name        string
	Duration    int64
	Counts      Map
	Annotations Map
	Nested      []Metrics
}

func (*Metrics) gremlinValue() {}

func (m *Metrics) equal(o *Metrics) bool {
	if m.ID != o.ID || m.Name != o.Name || m.Duration != o.Duration {
		return false
	}
	if !Equal(m.Counts, o.Counts) || !Equal(m.Annotations, o.Annotations) {
		return false
	}
	if len(m.Nested) != len(o.Nested) {
		return false
	}
	for i := range m.Nested {
		if !m.Nested[i].equal(&o.Nested[i]) {
			return false
		}
	}
	return true
}

// TraversalMetrics aggregates per-step metrics for a profiled traversal.
// Duration is in nanoseconds.
type TraversalMetrics struct {
	Duration int64
	Metrics  []Metrics
}

func (*TraversalMetrics) gremlinValue() {}

// TraversalExplanation reports how traversal strategies rewrote a traversal.
type TraversalExplanation struct {
	Original     []string
	Intermediate []string
	Final        []string
}

func (*TraversalExplanation) gremlinValue() {}
