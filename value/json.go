package value

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"time"
)

// ============================================================
// JSON Bridge
// ============================================================
//
// JSON carries no identity, so shared nodes are duplicated on the way
// out and cycles cannot be written at all. Records become objects with
// a "$type" member; bytes become base64 strings; times become RFC 3339.

// TypeKey is the object member holding a record's type name in JSON.
const TypeKey = "$type"

// ErrCycle is returned by ToJSON for graphs that contain a cycle.
var ErrCycle = errors.New("value: cyclic graph has no JSON form")

// FromJSON converts JSON bytes to a value graph. Numbers that fit int64
// become ints, others floats. Objects carrying a string "$type" member
// become records. The input must hold exactly one JSON value.
func FromJSON(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("value: JSON parse error: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("value: JSON parse error: data after top-level value at offset %d", dec.InputOffset())
	}
	return fromJSONValue(v)
}

func fromJSONValue(v any) (*Value, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil

	case bool:
		return Bool(val), nil

	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("value: bad JSON number %q: %w", val, err)
		}
		return Float(f), nil

	case string:
		return Str(val), nil

	case []any:
		items := make([]*Value, 0, len(val))
		for i, elem := range val {
			gv, err := fromJSONValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			items = append(items, gv)
		}
		return List(items...), nil

	case map[string]any:
		keys := sortedKeys(val)
		if typeName, ok := val[TypeKey].(string); ok {
			rec := NewRecord(typeName)
			for _, k := range keys {
				if k == TypeKey {
					continue
				}
				gv, err := fromJSONValue(val[k])
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", typeName, k, err)
				}
				rec.record.Fields = append(rec.record.Fields, Entry{Key: k, Value: gv})
			}
			return rec, nil
		}

		entries := make([]Entry, 0, len(val))
		for _, k := range keys {
			gv, err := fromJSONValue(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			entries = append(entries, Entry{Key: k, Value: gv})
		}
		return Map(entries...), nil

	default:
		return nil, fmt.Errorf("value: unsupported JSON type: %T", v)
	}
}

// ToJSON converts a value graph to indented JSON.
func ToJSON(v *Value) ([]byte, error) {
	native, err := toJSONValue(v, make(map[*Value]bool))
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(native, "", "  ")
}

func toJSONValue(v *Value, path map[*Value]bool) (any, error) {
	if v.IsNull() {
		return nil, nil
	}

	switch v.kind {
	case KindBool:
		return v.boolVal, nil
	case KindInt:
		return v.intVal, nil
	case KindFloat:
		if math.IsNaN(v.floatVal) || math.IsInf(v.floatVal, 0) {
			return nil, fmt.Errorf("value: %v has no JSON form", v.floatVal)
		}
		return v.floatVal, nil
	case KindStr:
		return v.strVal, nil
	case KindBytes:
		return base64.StdEncoding.EncodeToString(v.bytesVal), nil
	case KindTime:
		return v.timeVal.Format(time.RFC3339Nano), nil
	}

	if path[v] {
		return nil, ErrCycle
	}
	path[v] = true
	defer delete(path, v)

	switch v.kind {
	case KindList:
		items := make([]any, len(v.listVal))
		for i, elem := range v.listVal {
			item, err := toJSONValue(elem, path)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return items, nil

	case KindMap:
		return entriesToJSON(v.mapVal, nil, path)

	case KindRecord:
		return entriesToJSON(v.record.Fields, &v.record.TypeName, path)
	}
	return nil, fmt.Errorf("value: unknown kind %s", v.kind)
}

func entriesToJSON(entries []Entry, typeName *string, path map[*Value]bool) (map[string]any, error) {
	obj := make(map[string]any, len(entries)+1)
	if typeName != nil {
		obj[TypeKey] = *typeName
	}
	for _, e := range entries {
		item, err := toJSONValue(e.Value, path)
		if err != nil {
			return nil, err
		}
		obj[e.Key] = item
	}
	return obj, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
