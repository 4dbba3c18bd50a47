package value

import (
	"fmt"
	"time"
)

// Kind identifies the shape of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindBytes
	KindTime
	KindList   // Sequence of values
	KindMap    // Ordered string-keyed mapping
	KindRecord // Named record: Type{field...}
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k <= KindRecord
}

// IsContainer reports whether values of this kind hold child values.
func (k Kind) IsContainer() bool {
	return k == KindList || k == KindMap || k == KindRecord
}

// Value is a node in a value graph. Nodes are shared by pointer: two
// parents holding the same *Value alias one node, and a container may
// (directly or indirectly) contain itself.
type Value struct {
	kind Kind

	// Scalar values (only one valid based on kind)
	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string
	bytesVal []byte
	timeVal  time.Time

	// Container values
	listVal []*Value
	mapVal  []Entry
	record  *Record
}

// Entry is a key-value pair in a map or a field of a record.
type Entry struct {
	Key   string
	Value *Value
}

// Record is a named record value.
type Record struct {
	TypeName string
	Fields   []Entry
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Bool creates a boolean value.
func Bool(v bool) *Value {
	return &Value{kind: KindBool, boolVal: v}
}

// Int creates an integer value.
func Int(v int64) *Value {
	return &Value{kind: KindInt, intVal: v}
}

// Float creates a floating point value.
func Float(v float64) *Value {
	return &Value{kind: KindFloat, floatVal: v}
}

// Str creates a string value.
func Str(v string) *Value {
	return &Value{kind: KindStr, strVal: v}
}

// Bytes creates a bytes value.
func Bytes(v []byte) *Value {
	return &Value{kind: KindBytes, bytesVal: v}
}

// Time creates a time value.
func Time(v time.Time) *Value {
	return &Value{kind: KindTime, timeVal: v}
}

// List creates a list value.
func List(values ...*Value) *Value {
	return &Value{kind: KindList, listVal: values}
}

// Map creates a map value from entries. Entry order is kept.
func Map(entries ...Entry) *Value {
	return &Value{kind: KindMap, mapVal: entries}
}

// NewRecord creates a named record value.
func NewRecord(typeName string, fields ...Entry) *Value {
	return &Value{
		kind: KindRecord,
		record: &Record{
			TypeName: typeName,
			Fields:   fields,
		},
	}
}

// Field creates an Entry for Map and NewRecord construction.
func Field(key string, v *Value) Entry {
	return Entry{Key: key, Value: v}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind. A nil value is null.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull returns true if this is a null value.
func (v *Value) IsNull() bool {
	return v == nil || v.kind == KindNull
}

func (v *Value) expect(k Kind) error {
	if v == nil {
		return fmt.Errorf("value: nil value")
	}
	if v.kind != k {
		return fmt.Errorf("value: expected %s, got %s", k, v.kind)
	}
	return nil
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if err := v.expect(KindBool); err != nil {
		return false, err
	}
	return v.boolVal, nil
}

// AsInt returns the integer value.
func (v *Value) AsInt() (int64, error) {
	if err := v.expect(KindInt); err != nil {
		return 0, err
	}
	return v.intVal, nil
}

// AsFloat returns the floating point value.
func (v *Value) AsFloat() (float64, error) {
	if err := v.expect(KindFloat); err != nil {
		return 0, err
	}
	return v.floatVal, nil
}

// AsStr returns the string value.
func (v *Value) AsStr() (string, error) {
	if err := v.expect(KindStr); err != nil {
		return "", err
	}
	return v.strVal, nil
}

// AsBytes returns the bytes value.
func (v *Value) AsBytes() ([]byte, error) {
	if err := v.expect(KindBytes); err != nil {
		return nil, err
	}
	return v.bytesVal, nil
}

// AsTime returns the time value.
func (v *Value) AsTime() (time.Time, error) {
	if err := v.expect(KindTime); err != nil {
		return time.Time{}, err
	}
	return v.timeVal, nil
}

// AsList returns the list elements.
func (v *Value) AsList() ([]*Value, error) {
	if err := v.expect(KindList); err != nil {
		return nil, err
	}
	return v.listVal, nil
}

// AsMap returns the map entries.
func (v *Value) AsMap() ([]Entry, error) {
	if err := v.expect(KindMap); err != nil {
		return nil, err
	}
	return v.mapVal, nil
}

// AsRecord returns the record.
func (v *Value) AsRecord() (*Record, error) {
	if err := v.expect(KindRecord); err != nil {
		return nil, err
	}
	return v.record, nil
}

// Len returns the length of a list, map, record, string or bytes value.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindList:
		return len(v.listVal)
	case KindMap:
		return len(v.mapVal)
	case KindRecord:
		return len(v.record.Fields)
	case KindStr:
		return len(v.strVal)
	case KindBytes:
		return len(v.bytesVal)
	default:
		return 0
	}
}

// Get returns a value by key from a map or record, or nil.
func (v *Value) Get(key string) *Value {
	var entries []Entry
	switch v.Kind() {
	case KindMap:
		entries = v.mapVal
	case KindRecord:
		entries = v.record.Fields
	}
	for _, e := range entries {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// Index returns the i-th element of a list.
func (v *Value) Index(i int) (*Value, error) {
	if v.Kind() != KindList {
		return nil, fmt.Errorf("value: not a list")
	}
	if i < 0 || i >= len(v.listVal) {
		return nil, fmt.Errorf("value: index %d out of bounds (len=%d)", i, len(v.listVal))
	}
	return v.listVal[i], nil
}

// children returns the child values of a container in order.
func (v *Value) children() []*Value {
	switch v.Kind() {
	case KindList:
		return v.listVal
	case KindMap:
		return entryValues(v.mapVal)
	case KindRecord:
		return entryValues(v.record.Fields)
	}
	return nil
}

func entryValues(entries []Entry) []*Value {
	out := make([]*Value, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

// ============================================================
// Mutators
// ============================================================

// Set sets a value on a map or record, replacing an existing key.
func (v *Value) Set(key string, val *Value) {
	var entries *[]Entry
	switch v.Kind() {
	case KindMap:
		entries = &v.mapVal
	case KindRecord:
		entries = &v.record.Fields
	default:
		panic("value: cannot set on non-map/record")
	}
	for i := range *entries {
		if (*entries)[i].Key == key {
			(*entries)[i].Value = val
			return
		}
	}
	*entries = append(*entries, Entry{Key: key, Value: val})
}

// Add appends an entry to a map or record without looking for an
// existing key. Decoders use it to rebuild entries exactly as written.
func (v *Value) Add(key string, val *Value) {
	switch v.Kind() {
	case KindMap:
		v.mapVal = append(v.mapVal, Entry{Key: key, Value: val})
	case KindRecord:
		v.record.Fields = append(v.record.Fields, Entry{Key: key, Value: val})
	default:
		panic("value: cannot add to non-map/record")
	}
}

// Append adds a value to a list.
func (v *Value) Append(val *Value) {
	if v.Kind() != KindList {
		panic("value: cannot append to non-list")
	}
	v.listVal = append(v.listVal, val)
}

// SetIndex replaces the i-th element of a list.
func (v *Value) SetIndex(i int, val *Value) error {
	if _, err := v.Index(i); err != nil {
		return err
	}
	v.listVal[i] = val
	return nil
}
