package gremlin

// ResultSet is the sequence of values produced by one request. It borrows
// the underlying connection until the server has sent its final page, so a
// partial result stream keeps its connection out of the pool; draining or
// closing the set gives it back.
type ResultSet struct {
	pool *pool
	conn *connection

	items    []Value
	pos      int
	more     bool
	released bool
}

// newResultSet interprets the first response of a call and wraps the rest of
// the stream. The connection is released immediately on a final page and
// retained while partial pages remain.
func newResultSet(p *pool, conn *connection, resp *Response) (*ResultSet, error) {
	r := &ResultSet{pool: p, conn: conn}
	if err := r.absorb(resp); err != nil {
		return nil, err
	}
	return r, nil
}

// absorb folds one response into the set, releasing or poisoning the
// connection as the status dictates.
func (r *ResultSet) absorb(resp *Response) error {
	switch resp.Code {
	case statusSuccess:
		r.items = append(r.items, dataToValues(resp.Data)...)
		r.more = false
		r.release()
		return nil
	case statusPartialContent:
		r.items = append(r.items, dataToValues(resp.Data)...)
		r.more = true
		return nil
	case statusNoContent:
		r.more = false
		r.release()
		return nil
	default:
		r.release()
		return &RequestError{Code: resp.Code, Message: resp.Message}
	}
}

// dataToValues flattens the result payload into individual values. The
// server wraps results in a list; a bare value stands alone.
func dataToValues(data Value) []Value {
	switch t := data.(type) {
	case nil, Null:
		return nil
	case List:
		return t
	case Set:
		return t
	default:
		return []Value{data}
	}
}

// More reports whether the server still holds undelivered partial pages.
func (r *ResultSet) More() bool {
	return r.more
}

// Fetch reads the next partial page into the set. Calling Fetch with no page
// pending is a Generic error.
func (r *ResultSet) Fetch() error {
	if !r.more {
		return genericErrorf("no partial results pending")
	}
	resp, err := r.conn.recv()
	if err != nil {
		r.more = false
		r.release()
		return err
	}
	return r.absorb(resp)
}

// Next returns the next value, fetching partial pages as needed. The second
// return is false once the sequence is exhausted.
func (r *ResultSet) Next() (Value, bool, error) {
	for r.pos >= len(r.items) {
		if !r.more {
			return nil, false, nil
		}
		if err := r.Fetch(); err != nil {
			return nil, false, err
		}
	}
	v := r.items[r.pos]
	r.pos++
	return v, true, nil
}

// All drains the sequence and returns every remaining value.
func (r *ResultSet) All() ([]Value, error) {
	var out []Value
	for {
		v, ok, err := r.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// One drains the sequence and returns its first value, or Null when the
// result is empty.
func (r *ResultSet) One() (Value, error) {
	first := Value(Null{})
	got := false
	for {
		v, ok, err := r.Next()
		if err != nil {
			return Null{}, err
		}
		if !ok {
			return first, nil
		}
		if !got {
			first = v
			got = true
		}
	}
}

// Close releases the borrowed connection. Abandoning undrained partial pages
// poisons the connection: the next frame on it would belong to this request,
// so it cannot be reused.
func (r *ResultSet) Close() error {
	if r.more {
		r.more = false
		r.conn.broken = true
	}
	r.release()
	return nil
}

func (r *ResultSet) release() {
	if r.released {
		return
	}
	r.released = true
	r.pool.put(r.conn)
}
