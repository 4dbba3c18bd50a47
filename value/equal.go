package value

import (
	"bytes"
	"math"
)

// Equal reports whether two graphs are structurally equal, including
// their aliasing topology: a node shared in a must correspond to a node
// shared the same way in b, and cycles must close at the same places.
func Equal(a, b *Value) bool {
	e := &equaler{
		ab: make(map[*Value]*Value),
		ba: make(map[*Value]*Value),
	}
	return e.equal(a, b)
}

type equaler struct {
	ab map[*Value]*Value
	ba map[*Value]*Value
}

func (e *equaler) equal(a, b *Value) bool {
	if a == nil || b == nil {
		// Nil children read as null and carry no identity.
		return a.IsNull() && b.IsNull()
	}

	// Pair nodes on first sight; later sightings must agree.
	if pb, ok := e.ab[a]; ok {
		return pb == b
	}
	if pa, ok := e.ba[b]; ok {
		return pa == a
	}
	e.ab[a] = b
	e.ba[b] = a

	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindInt:
		return a.intVal == b.intVal
	case KindFloat:
		return floatEqual(a.floatVal, b.floatVal)
	case KindStr:
		return a.strVal == b.strVal
	case KindBytes:
		return bytes.Equal(a.bytesVal, b.bytesVal)
	case KindTime:
		return a.timeVal.Equal(b.timeVal)
	case KindList:
		if len(a.listVal) != len(b.listVal) {
			return false
		}
		for i := range a.listVal {
			if !e.equal(a.listVal[i], b.listVal[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return e.entriesEqual(a.mapVal, b.mapVal)
	case KindRecord:
		return a.record.TypeName == b.record.TypeName &&
			e.entriesEqual(a.record.Fields, b.record.Fields)
	}
	return false
}

func (e *equaler) entriesEqual(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || !e.equal(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

func floatEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Float64bits(a) == math.Float64bits(b)
}
