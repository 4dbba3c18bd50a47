package value

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"
)

// ErrUnsupported is returned by From for Go values that have no place in
// a value graph: channels, functions, unsafe pointers, uintptrs, complex
// numbers and maps with non-string keys.
var ErrUnsupported = errors.New("value: unsupported type")

var timeType = reflect.TypeOf(time.Time{})

// From converts a native Go value into a value graph.
//
// Pointers and maps keep their identity: the same pointer reached twice
// yields one shared node, and pointer cycles that pass through a struct,
// slice or map become graph cycles. A cycle of bare pointers, such as an
// interface holding a pointer to itself, is ErrUnsupported. A *Value
// inside x is used as is.
func From(x any) (*Value, error) {
	c := &converter{
		memo:   make(map[identity]*Value),
		active: make(map[identity]bool),
	}
	return c.convert(reflect.ValueOf(x))
}

// identity keys a pointer, map or slice header. Slices sharing a backing
// array are the same node only when their lengths match too.
type identity struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

type converter struct {
	memo   map[identity]*Value
	active map[identity]bool // pointers whose target is being converted
}

func (c *converter) convert(rv reflect.Value) (*Value, error) {
	if !rv.IsValid() {
		return Null(), nil
	}

	if rv.Type() == reflect.TypeOf((*Value)(nil)) {
		if rv.IsNil() {
			return Null(), nil
		}
		return rv.Interface().(*Value), nil
	}
	if rv.Type() == timeType {
		return Time(rv.Interface().(time.Time)), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupported, u)
		}
		return Int(int64(u)), nil

	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil

	case reflect.String:
		return Str(rv.String()), nil

	case reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return c.convert(rv.Elem())

	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		return c.pointer(rv)

	case reflect.Slice:
		if rv.IsNil() {
			return Null(), nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Bytes(append([]byte(nil), rv.Bytes()...)), nil
		}
		return c.list(rv)

	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return Bytes(b), nil
		}
		return c.list(rv)

	case reflect.Map:
		if rv.IsNil() {
			return Null(), nil
		}
		return c.mapping(rv)

	case reflect.Struct:
		out := NewRecord(rv.Type().Name())
		if err := c.fields(rv, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupported, rv.Type())
}

func (c *converter) pointer(rv reflect.Value) (*Value, error) {
	key := identity{typ: rv.Type(), ptr: rv.Pointer()}
	if v, ok := c.memo[key]; ok {
		return v, nil
	}

	elem := rv.Elem()
	if elem.Kind() == reflect.Struct && elem.Type() != timeType {
		// Register before descending so cycles close on this node.
		out := NewRecord(elem.Type().Name())
		c.memo[key] = out
		if err := c.fields(elem, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	// A cycle that reaches this pointer again before passing through a
	// list, map or record has no node to close on.
	if c.active[key] {
		return nil, fmt.Errorf("%w: pointer cycle through %s", ErrUnsupported, rv.Type())
	}
	c.active[key] = true
	v, err := c.convert(elem)
	delete(c.active, key)
	if err != nil {
		return nil, err
	}
	c.memo[key] = v
	return v, nil
}

func (c *converter) list(rv reflect.Value) (*Value, error) {
	out := List()
	if rv.Kind() == reflect.Slice && rv.Len() > 0 {
		key := identity{typ: rv.Type(), ptr: rv.Pointer(), n: rv.Len()}
		if v, ok := c.memo[key]; ok {
			return v, nil
		}
		c.memo[key] = out
	}
	out.listVal = make([]*Value, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem, err := c.convert(rv.Index(i))
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out.listVal = append(out.listVal, elem)
	}
	return out, nil
}

func (c *converter) mapping(rv reflect.Value) (*Value, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("%w: %s (map keys must be strings)", ErrUnsupported, rv.Type())
	}

	key := identity{typ: rv.Type(), ptr: rv.Pointer()}
	if v, ok := c.memo[key]; ok {
		return v, nil
	}
	out := Map()
	c.memo[key] = out

	keys := rv.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return strings.Compare(a.String(), b.String())
	})
	out.mapVal = make([]Entry, 0, len(keys))
	for _, k := range keys {
		elem, err := c.convert(rv.MapIndex(k))
		if err != nil {
			return nil, fmt.Errorf("[%q]: %w", k.String(), err)
		}
		out.mapVal = append(out.mapVal, Entry{Key: k.String(), Value: elem})
	}
	return out, nil
}

func (c *converter) fields(rv reflect.Value, out *Value) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		elem, err := c.convert(rv.Field(i))
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t.Name(), f.Name, err)
		}
		out.record.Fields = append(out.record.Fields, Entry{Key: f.Name, Value: elem})
	}
	return nil
}
