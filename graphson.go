package gremlin

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// GraphSON v2/v3 codec.
//
// Typed values are JSON objects of the form {"@type":"g:Name","@value":...};
// strings, booleans and null stay bare. The two versions differ in how
// collections travel: v3 wraps List, Set and Map in typed envelopes (maps as
// flattened key/value arrays), while v2 uses native JSON arrays and objects
// and therefore only supports string-like map keys.
//
// Values are mapped to a plain any-tree first and marshalled in one shot;
// decoding walks the symmetric tree with json.Number preserving integer
// precision.

type graphsonCodec struct {
	version int // 2 or 3
}

func typed(tag string, value any) map[string]any {
	return map[string]any{"@type": tag, "@value": value}
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

func (c graphsonCodec) encodeValue(v Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case Null:
		return nil, nil
	case Int32:
		return typed("g:Int32", int32(t)), nil
	case Int64:
		return typed("g:Int64", int64(t)), nil
	case Float:
		return typed("g:Float", float32(t)), nil
	case Double:
		return typed("g:Double", float64(t)), nil
	case String:
		return string(t), nil
	case Bool:
		return bool(t), nil
	case UUID:
		return typed("g:UUID", uuid.UUID(t).String()), nil
	case Date:
		return typed("g:Date", t.Millis()), nil
	case List:
		elems, err := c.encodeSlice(t)
		if err != nil {
			return nil, err
		}
		if c.version == 2 {
			return elems, nil
		}
		return typed("g:List", elems), nil
	case Set:
		elems, err := c.encodeSlice(t)
		if err != nil {
			return nil, err
		}
		if c.version == 2 {
			return elems, nil
		}
		return typed("g:Set", elems), nil
	case Map:
		return c.encodeMap(t)
	case *Vertex:
		return c.encodeVertex(t)
	case *Edge:
		return c.encodeEdge(t)
	case *VertexProperty:
		return c.encodeVertexProperty(t)
	case *Property:
		value, err := c.encodeValue(t.Value)
		if err != nil {
			return nil, err
		}
		return typed("g:Property", map[string]any{"key": t.Key, "value": value}), nil
	case *Path:
		labels, err := c.encodeValue(t.Labels)
		if err != nil {
			return nil, err
		}
		objects, err := c.encodeValue(t.Objects)
		if err != nil {
			return nil, err
		}
		return typed("g:Path", map[string]any{"labels": labels, "objects": objects}), nil
	case *Traverser:
		value, err := c.encodeValue(t.Value)
		if err != nil {
			return nil, err
		}
		return typed("g:Traverser", map[string]any{
			"bulk":  typed("g:Int64", t.Bulk),
			"value": value,
		}), nil
	case *Bytecode:
		return c.encodeBytecode(t)
	case T:
		return typed("g:T", string(t)), nil
	case Scope:
		return typed("g:Scope", string(t)), nil
	case Order:
		return typed("g:Order", string(t)), nil
	case Pop:
		return typed("g:Pop", string(t)), nil
	case Cardinality:
		return typed("g:Cardinality", string(t)), nil
	case Merge:
		return typed("g:Merge", string(t)), nil
	case Direction:
		return typed("g:Direction", string(t)), nil
	case Column:
		return typed("g:Column", string(t)), nil
	case P:
		return c.encodePredicate("g:P", t.Predicate, t.Args)
	case TextP:
		return c.encodePredicate("g:TextP", t.Predicate, t.Args)
	default:
		return nil, castErrorf("%s is not representable in graphson", TypeName(v))
	}
}

func (c graphsonCodec) encodeSlice(elems []Value) ([]any, error) {
	out := make([]any, 0, len(elems))
	for _, e := range elems {
		ev, err := c.encodeValue(e)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (c graphsonCodec) encodeMap(m Map) (any, error) {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	if c.version == 2 {
		// v2 maps are plain JSON objects, so keys must have a string form.
		out := make(map[string]any, len(m))
		for _, k := range keys {
			ks, err := keyAsString(k)
			if err != nil {
				return nil, err
			}
			ev, err := c.encodeValue(m[k])
			if err != nil {
				return nil, err
			}
			out[ks] = ev
		}
		return out, nil
	}
	flat := make([]any, 0, 2*len(m))
	for _, k := range keys {
		kv, err := c.encodeValue(k.Value())
		if err != nil {
			return nil, err
		}
		ev, err := c.encodeValue(m[k])
		if err != nil {
			return nil, err
		}
		flat = append(flat, kv, ev)
	}
	return typed("g:Map", flat), nil
}

func keyAsString(k Key) (string, error) {
	switch k.kind {
	case keyString, keyToken:
		return k.str, nil
	case keyDirection:
		return k.str, nil
	default:
		return "", castErrorf("cannot use %s as a graphson v2 map key", TypeName(k.Value()))
	}
}

func (c graphsonCodec) encodeVertex(v *Vertex) (any, error) {
	id, err := c.encodeValue(v.ID)
	if err != nil {
		return nil, err
	}
	body := map[string]any{"id": id, "label": v.Label}
	if len(v.Properties) > 0 {
		// Vertex properties group by label.
		grouped := make(map[string][]any)
		for i := range v.Properties {
			p := &v.Properties[i]
			ep, err := c.encodeVertexProperty(p)
			if err != nil {
				return nil, err
			}
			grouped[p.Label] = append(grouped[p.Label], ep)
		}
		props := make(map[string]any, len(grouped))
		for label, list := range grouped {
			props[label] = list
		}
		body["properties"] = props
	}
	return typed("g:Vertex", body), nil
}

func (c graphsonCodec) encodeVertexProperty(p *VertexProperty) (any, error) {
	id, err := c.encodeValue(p.ID)
	if err != nil {
		return nil, err
	}
	value, err := c.encodeValue(p.Value)
	if err != nil {
		return nil, err
	}
	return typed("g:VertexProperty", map[string]any{
		"id":    id,
		"label": p.Label,
		"value": value,
	}), nil
}

func (c graphsonCodec) encodeEdge(e *Edge) (any, error) {
	id, err := c.encodeValue(e.ID)
	if err != nil {
		return nil, err
	}
	inV, err := c.encodeValue(e.InV.ID)
	if err != nil {
		return nil, err
	}
	outV, err := c.encodeValue(e.OutV.ID)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"id":        id,
		"label":     e.Label,
		"inV":       inV,
		"inVLabel":  e.InV.Label,
		"outV":      outV,
		"outVLabel": e.OutV.Label,
	}
	if len(e.Properties) > 0 {
		props := make(map[string]any, len(e.Properties))
		for i := range e.Properties {
			p := &e.Properties[i]
			value, err := c.encodeValue(p.Value)
			if err != nil {
				return nil, err
			}
			props[p.Key] = typed("g:Property", map[string]any{"key": p.Key, "value": value})
		}
		body["properties"] = props
	}
	return typed("g:Edge", body), nil
}

func (c graphsonCodec) encodeBytecode(b *Bytecode) (any, error) {
	body := make(map[string]any, 2)
	if steps, err := c.encodeInstructions(b.steps); err != nil {
		return nil, err
	} else if steps != nil {
		body["step"] = steps
	}
	if sources, err := c.encodeInstructions(b.sources); err != nil {
		return nil, err
	} else if sources != nil {
		body["source"] = sources
	}
	return typed("g:Bytecode", body), nil
}

func (c graphsonCodec) encodeInstructions(instructions []Instruction) ([]any, error) {
	if len(instructions) == 0 {
		return nil, nil
	}
	out := make([]any, 0, len(instructions))
	for _, in := range instructions {
		row := make([]any, 0, 1+len(in.Args))
		row = append(row, in.Operator)
		for _, arg := range in.Args {
			ev, err := c.encodeValue(arg)
			if err != nil {
				return nil, err
			}
			row = append(row, ev)
		}
		out = append(out, row)
	}
	return out, nil
}

// encodePredicate writes the predicate body; a single argument stays bare,
// multiple arguments become a list.
func (c graphsonCodec) encodePredicate(tag, predicate string, args []Value) (any, error) {
	var value any
	if len(args) == 1 {
		ev, err := c.encodeValue(args[0])
		if err != nil {
			return nil, err
		}
		value = ev
	} else {
		elems, err := c.encodeSlice(args)
		if err != nil {
			return nil, err
		}
		value = elems
	}
	return typed(tag, map[string]any{"predicate": predicate, "value": value}), nil
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

func decodeJSONTree(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, castErrorf("malformed graphson: %v", err)
	}
	return tree, nil
}

func (c graphsonCodec) decodeValue(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null{}, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		// Untagged numbers only appear in loosely-typed corners of v2
		// payloads. Integers widen to Int64, anything else to Double.
		if n, err := t.Int64(); err == nil && !strings.ContainsAny(t.String(), ".eE") {
			return Int64(n), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, castErrorf("malformed graphson number %q", t.String())
		}
		return Double(f), nil
	case []any:
		elems, err := c.decodeSlice(t)
		return List(elems), err
	case map[string]any:
		if tag, ok := t["@type"].(string); ok {
			if _, ok := t["@value"]; ok {
				return c.decodeTyped(tag, t["@value"])
			}
		}
		return c.decodeObjectMap(t)
	default:
		return nil, castErrorf("unsupported graphson node %T", raw)
	}
}

func (c graphsonCodec) decodeSlice(raw []any) ([]Value, error) {
	elems := make([]Value, 0, len(raw))
	for _, e := range raw {
		v, err := c.decodeValue(e)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return elems, nil
}

// decodeObjectMap converts an untagged JSON object into a string-keyed Map.
func (c graphsonCodec) decodeObjectMap(raw map[string]any) (Map, error) {
	m := make(Map, len(raw))
	for k, e := range raw {
		v, err := c.decodeValue(e)
		if err != nil {
			return nil, err
		}
		m[StringKey(k)] = v
	}
	return m, nil
}

func (c graphsonCodec) decodeTyped(tag string, raw any) (Value, error) {
	switch tag {
	case "g:Int32":
		n, err := jsonInt(raw)
		return Int32(n), err
	case "g:Int64":
		n, err := jsonInt(raw)
		return Int64(n), err
	case "g:Float":
		f, err := jsonFloat(raw)
		return Float(f), err
	case "g:Double":
		f, err := jsonFloat(raw)
		return Double(f), err
	case "g:UUID":
		s, err := jsonString(raw, tag)
		if err != nil {
			return nil, err
		}
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, castErrorf("malformed uuid %q: %v", s, err)
		}
		return UUID(u), nil
	case "g:Date", "g:Timestamp":
		ms, err := jsonInt(raw)
		return DateFromMillis(ms), err
	case "g:List":
		arr, err := jsonArray(raw, tag)
		if err != nil {
			return nil, err
		}
		elems, err := c.decodeSlice(arr)
		return List(elems), err
	case "g:Set":
		arr, err := jsonArray(raw, tag)
		if err != nil {
			return nil, err
		}
		elems, err := c.decodeSlice(arr)
		return Set(elems), err
	case "g:Map":
		return c.decodeFlatMap(raw)
	case "g:Vertex":
		return c.decodeVertex(raw)
	case "g:Edge":
		return c.decodeEdge(raw)
	case "g:VertexProperty":
		return c.decodeVertexProperty(raw)
	case "g:Property":
		return c.decodeProperty(raw)
	case "g:Path":
		return c.decodePath(raw)
	case "g:Traverser":
		return c.decodeTraverser(raw)
	case "g:Bytecode":
		return c.decodeBytecode(raw)
	case "g:T":
		s, err := jsonString(raw, tag)
		return T(s), err
	case "g:Direction":
		s, err := jsonString(raw, tag)
		return Direction(s), err
	case "g:Scope":
		s, err := jsonString(raw, tag)
		return Scope(s), err
	case "g:Order":
		s, err := jsonString(raw, tag)
		return Order(s), err
	case "g:Pop":
		s, err := jsonString(raw, tag)
		return Pop(s), err
	case "g:Cardinality":
		s, err := jsonString(raw, tag)
		return Cardinality(s), err
	case "g:Merge":
		s, err := jsonString(raw, tag)
		return Merge(s), err
	case "g:Column":
		s, err := jsonString(raw, tag)
		return Column(s), err
	case "g:P":
		pred, args, err := c.decodePredicate(raw)
		return P{Predicate: pred, Args: args}, err
	case "g:TextP":
		pred, args, err := c.decodePredicate(raw)
		return TextP{Predicate: pred, Args: args}, err
	case "g:Metrics":
		return c.decodeMetrics(raw)
	case "g:TraversalExplanation":
		return c.decodeTraversalExplanation(raw)
	case "g:TraversalMetrics":
		return c.decodeTraversalMetrics(raw)
	default:
		return nil, castErrorf("unrecognized graphson tag %q", tag)
	}
}

// decodeFlatMap reads the v3 map form: a flattened array of alternating keys
// and values.
func (c graphsonCodec) decodeFlatMap(raw any) (Map, error) {
	arr, err := jsonArray(raw, "g:Map")
	if err != nil {
		return nil, err
	}
	if len(arr)%2 != 0 {
		return nil, castErrorf("g:Map has odd entry count %d", len(arr))
	}
	m := make(Map, len(arr)/2)
	for i := 0; i < len(arr); i += 2 {
		kv, err := c.decodeValue(arr[i])
		if err != nil {
			return nil, err
		}
		k, err := ValueToKey(kv)
		if err != nil {
			return nil, err
		}
		v, err := c.decodeValue(arr[i+1])
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

func (c graphsonCodec) decodeVertex(raw any) (*Vertex, error) {
	body, err := jsonObject(raw, "g:Vertex")
	if err != nil {
		return nil, err
	}
	id, err := c.decodeValue(body["id"])
	if err != nil {
		return nil, err
	}
	label, _ := body["label"].(string)
	v := &Vertex{ID: id, Label: label}
	if props, ok := body["properties"].(map[string]any); ok {
		labels := make([]string, 0, len(props))
		for l := range props {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		for _, l := range labels {
			list, ok := props[l].([]any)
			if !ok {
				return nil, castErrorf("vertex properties for %q are not a list", l)
			}
			for _, e := range list {
				pv, err := c.decodeValue(e)
				if err != nil {
					return nil, err
				}
				vp, ok := pv.(*VertexProperty)
				if !ok {
					return nil, castErrorf("vertex property list holds %s", TypeName(pv))
				}
				if vp.Label == "" {
					vp.Label = l
				}
				v.Properties = append(v.Properties, *vp)
			}
		}
	}
	return v, nil
}

func (c graphsonCodec) decodeVertexProperty(raw any) (*VertexProperty, error) {
	body, err := jsonObject(raw, "g:VertexProperty")
	if err != nil {
		return nil, err
	}
	p := &VertexProperty{}
	if idRaw, ok := body["id"]; ok {
		if p.ID, err = c.decodeValue(idRaw); err != nil {
			return nil, err
		}
	} else {
		p.ID = Null{}
	}
	p.Label, _ = body["label"].(string)
	if p.Value, err = c.decodeValue(body["value"]); err != nil {
		return nil, err
	}
	if props, ok := body["properties"].(map[string]any); ok {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, err := c.decodeValue(props[k])
			if err != nil {
				return nil, err
			}
			p.Properties = append(p.Properties, Property{Key: k, Value: v})
		}
	}
	return p, nil
}

func (c graphsonCodec) decodeEdge(raw any) (*Edge, error) {
	body, err := jsonObject(raw, "g:Edge")
	if err != nil {
		return nil, err
	}
	id, err := c.decodeValue(body["id"])
	if err != nil {
		return nil, err
	}
	inVID, err := c.decodeValue(body["inV"])
	if err != nil {
		return nil, err
	}
	outVID, err := c.decodeValue(body["outV"])
	if err != nil {
		return nil, err
	}
	label, _ := body["label"].(string)
	inVLabel, _ := body["inVLabel"].(string)
	outVLabel, _ := body["outVLabel"].(string)
	e := &Edge{
		ID:    id,
		Label: label,
		InV:   Vertex{ID: inVID, Label: inVLabel},
		OutV:  Vertex{ID: outVID, Label: outVLabel},
	}
	if props, ok := body["properties"].(map[string]any); ok {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pv, err := c.decodeValue(props[k])
			if err != nil {
				return nil, err
			}
			if p, ok := pv.(*Property); ok {
				e.Properties = append(e.Properties, *p)
				continue
			}
			e.Properties = append(e.Properties, Property{Key: k, Value: pv})
		}
	}
	return e, nil
}

func (c graphsonCodec) decodeProperty(raw any) (*Property, error) {
	body, err := jsonObject(raw, "g:Property")
	if err != nil {
		return nil, err
	}
	key, _ := body["key"].(string)
	value, err := c.decodeValue(body["value"])
	if err != nil {
		return nil, err
	}
	return &Property{Key: key, Value: value}, nil
}

func (c graphsonCodec) decodePath(raw any) (*Path, error) {
	body, err := jsonObject(raw, "g:Path")
	if err != nil {
		return nil, err
	}
	labels, err := c.decodeValue(body["labels"])
	if err != nil {
		return nil, err
	}
	objects, err := c.decodeValue(body["objects"])
	if err != nil {
		return nil, err
	}
	labelList, ok := labels.(List)
	if !ok {
		return nil, castErrorf("path labels are %s, want List", TypeName(labels))
	}
	objectList, ok := objects.(List)
	if !ok {
		return nil, castErrorf("path objects are %s, want List", TypeName(objects))
	}
	return &Path{Labels: labelList, Objects: objectList}, nil
}

func (c graphsonCodec) decodeTraverser(raw any) (*Traverser, error) {
	body, err := jsonObject(raw, "g:Traverser")
	if err != nil {
		return nil, err
	}
	bulkValue, err := c.decodeValue(body["bulk"])
	if err != nil {
		return nil, err
	}
	bulk, err := AsInt64(bulkValue)
	if err != nil {
		return nil, err
	}
	value, err := c.decodeValue(body["value"])
	if err != nil {
		return nil, err
	}
	return &Traverser{Bulk: bulk, Value: value}, nil
}

func (c graphsonCodec) decodeBytecode(raw any) (*Bytecode, error) {
	body, err := jsonObject(raw, "g:Bytecode")
	if err != nil {
		return nil, err
	}
	b := NewBytecode()
	steps, err := c.decodeInstructions(body["step"])
	if err != nil {
		return nil, err
	}
	b.steps = steps
	sources, err := c.decodeInstructions(body["source"])
	if err != nil {
		return nil, err
	}
	b.sources = sources
	return b, nil
}

func (c graphsonCodec) decodeInstructions(raw any) ([]Instruction, error) {
	if raw == nil {
		return nil, nil
	}
	rows, ok := raw.([]any)
	if !ok {
		return nil, castErrorf("bytecode instructions are %T, want array", raw)
	}
	instructions := make([]Instruction, 0, len(rows))
	for _, rowRaw := range rows {
		row, ok := rowRaw.([]any)
		if !ok || len(row) == 0 {
			return nil, castErrorf("bytecode instruction is not a non-empty array")
		}
		op, ok := row[0].(string)
		if !ok {
			return nil, castErrorf("bytecode operator is %T, want string", row[0])
		}
		args, err := c.decodeSlice(row[1:])
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			args = nil
		}
		instructions = append(instructions, Instruction{Operator: op, Args: args})
	}
	return instructions, nil
}

func (c graphsonCodec) decodePredicate(raw any) (string, []Value, error) {
	body, err := jsonObject(raw, "predicate")
	if err != nil {
		return "", nil, err
	}
	pred, _ := body["predicate"].(string)
	value, err := c.decodeValue(body["value"])
	if err != nil {
		return "", nil, err
	}
	if list, ok := value.(List); ok {
		return pred, list, nil
	}
	return pred, []Value{value}, nil
}

// Profile metrics arrive as maps keyed by well-known strings, with durations
// in milliseconds; internally durations are nanoseconds.
func (c graphsonCodec) decodeTraversalMetrics(raw any) (*TraversalMetrics, error) {
	body, err := c.metricsBody(raw)
	if err != nil {
		return nil, err
	}
	tm := &TraversalMetrics{}
	if tm.Duration, err = metricsDuration(body); err != nil {
		return nil, err
	}
	if nested, ok := body[StringKey("metrics")]; ok {
		list, ok := nested.(List)
		if !ok {
			return nil, castErrorf("metrics are %s, want List", TypeName(nested))
		}
		for _, e := range list {
			m, ok := e.(*Metrics)
			if !ok {
				return nil, castErrorf("metrics list holds %s", TypeName(e))
			}
			tm.Metrics = append(tm.Metrics, *m)
		}
	}
	return tm, nil
}

func (c graphsonCodec) decodeMetrics(raw any) (*Metrics, error) {
	body, err := c.metricsBody(raw)
	if err != nil {
		return nil, err
	}
	m := &Metrics{}
	if id, ok := body[StringKey("id")]; ok {
		if m.ID, err = AsString(id); err != nil {
			return nil, err
		}
	}
	if name, ok := body[StringKey("name")]; ok {
		if m.Name, err = AsString(name); err != nil {
			return nil, err
		}
	}
	if m.Duration, err = metricsDuration(body); err != nil {
		return nil, err
	}
	if counts, ok := body[StringKey("counts")].(Map); ok {
		m.Counts = counts
	}
	if annotations, ok := body[StringKey("annotations")].(Map); ok {
		m.Annotations = annotations
	}
	if nested, ok := body[StringKey("metrics")].(List); ok {
		for _, e := range nested {
			nm, ok := e.(*Metrics)
			if !ok {
				return nil, castErrorf("nested metrics list holds %s", TypeName(e))
			}
			m.Nested = append(m.Nested, *nm)
		}
	}
	return m, nil
}

// decodeTraversalExplanation reads a profile explanation. Traversal forms are
// flattened to their string renderings; the client never re-executes them.
func (c graphsonCodec) decodeTraversalExplanation(raw any) (*TraversalExplanation, error) {
	body, err := jsonObject(raw, "g:TraversalExplanation")
	if err != nil {
		return nil, err
	}
	ex := &TraversalExplanation{}
	if ex.Original, err = explanationStrings(body["original"]); err != nil {
		return nil, err
	}
	if ex.Final, err = explanationStrings(body["final"]); err != nil {
		return nil, err
	}
	if intermediate, ok := body["intermediate"].([]any); ok {
		for _, e := range intermediate {
			if obj, ok := e.(map[string]any); ok {
				if s, ok := obj["traversal"].(string); ok {
					ex.Intermediate = append(ex.Intermediate, s)
					continue
				}
			}
			if s, ok := e.(string); ok {
				ex.Intermediate = append(ex.Intermediate, s)
			}
		}
	}
	return ex, nil
}

func explanationStrings(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, castErrorf("explanation section is %T, want array", raw)
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, castErrorf("explanation entry is %T, want string", e)
		}
		out = append(out, s)
	}
	return out, nil
}

// metricsBody decodes the @value of a metrics node, which is a g:Map in v3
// and a plain object in v2, into a Map.
func (c graphsonCodec) metricsBody(raw any) (Map, error) {
	v, err := c.decodeValue(raw)
	if err != nil {
		return nil, err
	}
	m, ok := v.(Map)
	if !ok {
		return nil, castErrorf("metrics body is %s, want Map", TypeName(v))
	}
	return m, nil
}

func metricsDuration(body Map) (int64, error) {
	dur, ok := body[StringKey("dur")]
	if !ok {
		return 0, nil
	}
	ms, err := AsDouble(dur)
	if err != nil {
		return 0, err
	}
	return int64(ms * 1e6), nil
}

// ---------------------------------------------------------------------------
// JSON tree accessors
// ---------------------------------------------------------------------------

func jsonInt(raw any) (int64, error) {
	n, ok := raw.(json.Number)
	if !ok {
		return 0, castErrorf("expected number, got %T", raw)
	}
	v, err := n.Int64()
	if err != nil {
		return 0, castErrorf("malformed integer %q", n.String())
	}
	return v, nil
}

func jsonFloat(raw any) (float64, error) {
	n, ok := raw.(json.Number)
	if !ok {
		return 0, castErrorf("expected number, got %T", raw)
	}
	v, err := n.Float64()
	if err != nil {
		return 0, castErrorf("malformed float %q", n.String())
	}
	return v, nil
}

func jsonString(raw any, tag string) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", castErrorf("%s payload is %T, want string", tag, raw)
	}
	return s, nil
}

func jsonArray(raw any, tag string) ([]any, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, castErrorf("%s payload is %T, want array", tag, raw)
	}
	return arr, nil
}

func jsonObject(raw any, tag string) (map[string]any, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, castErrorf("%s payload is %T, want object", tag, raw)
	}
	return obj, nil
}

// ---------------------------------------------------------------------------
// Message envelopes
// ---------------------------------------------------------------------------

// encodeRequest writes the mime-prefixed JSON request frame. v3 carries the
// request id as a bare string and the args as a g:Map; v2 tags the id and
// uses a plain args object.
func (c graphsonCodec) encodeRequest(req *Request) ([]byte, error) {
	args := make(Map, len(req.Args))
	for k, v := range req.Args {
		args[StringKey(k)] = v
	}
	encodedArgs, err := c.encodeMap(args)
	if err != nil {
		return nil, err
	}
	var id any = req.ID.String()
	if c.version == 2 {
		id = typed("g:UUID", req.ID.String())
	}
	body, err := json.Marshal(map[string]any{
		"requestId": id,
		"op":        req.Op,
		"processor": req.Processor,
		"args":      encodedArgs,
	})
	if err != nil {
		return nil, castErrorf("cannot marshal request: %v", err)
	}
	ct := c.contentType()
	frame := make([]byte, 0, 1+len(ct)+len(body))
	frame = append(frame, byte(len(ct)))
	frame = append(frame, ct...)
	frame = append(frame, body...)
	return frame, nil
}

func (c graphsonCodec) contentType() string {
	if c.version == 2 {
		return contentTypeGraphSONV2
	}
	return contentTypeGraphSONV3
}

type graphsonResponseEnvelope struct {
	RequestID json.RawMessage `json:"requestId"`
	Status    struct {
		Code       int16           `json:"code"`
		Message    string          `json:"message"`
		Attributes json.RawMessage `json:"attributes"`
	} `json:"status"`
	Result struct {
		Data json.RawMessage `json:"data"`
		Meta json.RawMessage `json:"meta"`
	} `json:"result"`
}

// decodeResponse parses the JSON response envelope. The request id arrives as
// a bare uuid string in v3 and a typed g:UUID in v2; both are accepted in
// either version.
func (c graphsonCodec) decodeResponse(data []byte) (*Response, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var env graphsonResponseEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, castErrorf("malformed graphson response: %v", err)
	}
	resp := &Response{
		Code:    env.Status.Code,
		Message: env.Status.Message,
	}
	if len(env.RequestID) > 0 && string(env.RequestID) != "null" {
		id, err := c.decodeRequestID(env.RequestID)
		if err != nil {
			return nil, err
		}
		resp.RequestID = id
	}
	var err error
	if resp.Attributes, err = c.decodeEnvelopeMap(env.Status.Attributes); err != nil {
		return nil, err
	}
	if resp.Meta, err = c.decodeEnvelopeMap(env.Result.Meta); err != nil {
		return nil, err
	}
	if len(env.Result.Data) > 0 && string(env.Result.Data) != "null" {
		tree, err := decodeJSONTree(env.Result.Data)
		if err != nil {
			return nil, err
		}
		if resp.Data, err = c.decodeValue(tree); err != nil {
			return nil, err
		}
	} else {
		resp.Data = Null{}
	}
	return resp, nil
}

func (c graphsonCodec) decodeRequestID(raw json.RawMessage) (uuid.UUID, error) {
	tree, err := decodeJSONTree(raw)
	if err != nil {
		return uuid.UUID{}, err
	}
	v, err := c.decodeValue(tree)
	if err != nil {
		return uuid.UUID{}, err
	}
	switch t := v.(type) {
	case UUID:
		return uuid.UUID(t), nil
	case String:
		id, err := uuid.Parse(string(t))
		if err != nil {
			return uuid.UUID{}, castErrorf("malformed request id %q: %v", t, err)
		}
		return id, nil
	default:
		return uuid.UUID{}, castErrorf("request id is %s, want UUID", TypeName(v))
	}
}

func (c graphsonCodec) decodeEnvelopeMap(raw json.RawMessage) (Map, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	tree, err := decodeJSONTree(raw)
	if err != nil {
		return nil, err
	}
	v, err := c.decodeValue(tree)
	if err != nil {
		return nil, err
	}
	m, ok := v.(Map)
	if !ok {
		return nil, castErrorf("envelope map is %s, want Map", TypeName(v))
	}
	return m, nil
}
