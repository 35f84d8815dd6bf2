package gremlin

// Instruction is one operation of a traversal program: an operator name and
// its positional arguments.
type Instruction struct {
	Operator string
	Args     []Value
}

// Bytecode is the serialized representation of a traversal program: an
// ordered sequence of source instructions (traversal-source configuration)
// followed by step instructions (the pipeline itself). Building a traversal
// means appending instructions; once submitted the program is not modified.
type Bytecode struct {
	sources []Instruction
	steps   []Instruction
}

func (*Bytecode) gremlinValue() {}

// NewBytecode returns an empty program.
func NewBytecode() *Bytecode {
	return &Bytecode{}
}

// AddSource appends a traversal-source configuration call.
func (b *Bytecode) AddSource(operator string, args ...Value) {
	b.sources = append(b.sources, Instruction{Operator: operator, Args: args})
}

// AddStep appends a traversal step.
func (b *Bytecode) AddStep(operator string, args ...Value) {
	b.steps = append(b.steps, Instruction{Operator: operator, Args: args})
}

// Sources returns the source instructions in order.
func (b *Bytecode) Sources() []Instruction {
	return b.sources
}

// Steps returns the step instructions in order.
func (b *Bytecode) Steps() []Instruction {
	return b.steps
}

func (b *Bytecode) equal(o *Bytecode) bool {
	return equalInstructions(b.sources, o.sources) && equalInstructions(b.steps, o.steps)
}

func equalInstructions(a, b []Instruction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Operator != b[i].Operator || !equalSlices(a[i].Args, b[i].Args) {
			return false
		}
	}
	return true
}

// GraphTraversal accumulates steps into a Bytecode program. It only ever
// appends instructions; it never inspects wire state.
type GraphTraversal struct {
	code *Bytecode
}

// Traversal starts an empty traversal rooted at the default source.
func Traversal() *GraphTraversal {
	return &GraphTraversal{code: NewBytecode()}
}

// V starts from the vertices with the given ids, or all vertices when none
// are given.
func (t *GraphTraversal) V(ids ...Value) *GraphTraversal {
	t.code.AddStep("V", ids...)
	return t
}

// E starts from the edges with the given ids, or all edges when none are
// given.
func (t *GraphTraversal) E(ids ...Value) *GraphTraversal {
	t.code.AddStep("E", ids...)
	return t
}

// Inject injects the given values into the traversal stream.
func (t *GraphTraversal) Inject(values ...Value) *GraphTraversal {
	t.code.AddStep("inject", values...)
	return t
}

// Step appends an arbitrary named step. The full step vocabulary lives on the
// server; this client does not validate operator names.
func (t *GraphTraversal) Step(operator string, args ...Value) *GraphTraversal {
	t.code.AddStep(operator, args...)
	return t
}

// WithSource appends a traversal-source configuration call, such as
// withStrategies or withSideEffect.
func (t *GraphTraversal) WithSource(operator string, args ...Value) *GraphTraversal {
	t.code.AddSource(operator, args...)
	return t
}

// Bytecode returns the accumulated program.
func (t *GraphTraversal) Bytecode() *Bytecode {
	return t.code
}
