package value

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Accessors
// ============================================================

func TestAccessors(t *testing.T) {
	now := time.Date(2025, 12, 19, 20, 0, 0, 0, time.UTC)

	b, err := Bool(true).AsBool()
	require.NoError(t, err)
	assert.True(t, b)

	i, err := Int(-42).AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(-42), i)

	f, err := Float(2.5).AsFloat()
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	s, err := Str("hello").AsStr()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	raw, err := Bytes([]byte{1, 2}).AsBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, raw)

	tm, err := Time(now).AsTime()
	require.NoError(t, err)
	assert.True(t, now.Equal(tm))

	_, err = Str("x").AsInt()
	require.EqualError(t, err, "value: expected int, got str")

	var nilValue *Value
	assert.True(t, nilValue.IsNull())
	assert.Equal(t, KindNull, nilValue.Kind())
	_, err = nilValue.AsStr()
	require.Error(t, err)
}

func TestContainers(t *testing.T) {
	m := Map(Field("a", Int(1)))
	m.Set("b", Int(2))
	m.Set("a", Int(3))
	require.Equal(t, 2, m.Len())
	got, err := m.Get("a").AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
	assert.Nil(t, m.Get("missing"))

	rec := NewRecord("Point", Field("x", Int(1)))
	rec.Set("y", Int(2))
	r, err := rec.AsRecord()
	require.NoError(t, err)
	assert.Equal(t, "Point", r.TypeName)
	assert.Len(t, r.Fields, 2)

	l := List(Int(1))
	l.Append(Int(2))
	require.NoError(t, l.SetIndex(0, Str("first")))
	first, err := l.Index(0)
	require.NoError(t, err)
	assert.Equal(t, KindStr, first.Kind())
	_, err = l.Index(5)
	require.EqualError(t, err, "value: index 5 out of bounds (len=2)")

	assert.Panics(t, func() { Int(1).Append(Int(2)) })
	assert.Panics(t, func() { List().Set("k", Int(1)) })
}

func TestKind_String(t *testing.T) {
	for k := KindNull; k <= KindRecord; k++ {
		assert.True(t, k.Valid())
		assert.NotEqual(t, "unknown", k.String())
	}
	assert.False(t, Kind(200).Valid())
	assert.Equal(t, "unknown", Kind(200).String())
}

// ============================================================
// Walk
// ============================================================

type recorder struct {
	events []string
}

func (r *recorder) Scalar(v *Value, ref int) error {
	r.events = append(r.events, fmt.Sprintf("scalar:%s#%d", v.Kind(), ref))
	return nil
}

func (r *recorder) BeginList(v *Value, ref int) error {
	r.events = append(r.events, fmt.Sprintf("list#%d", ref))
	return nil
}

func (r *recorder) BeginMap(v *Value, ref int) error {
	r.events = append(r.events, fmt.Sprintf("map#%d", ref))
	return nil
}

func (r *recorder) BeginRecord(v *Value, ref int) error {
	rec, _ := v.AsRecord()
	r.events = append(r.events, fmt.Sprintf("record:%s#%d", rec.TypeName, ref))
	return nil
}

func (r *recorder) Key(name string) error {
	r.events = append(r.events, "key:"+name)
	return nil
}

func (r *recorder) End(v *Value) error {
	r.events = append(r.events, "end")
	return nil
}

func (r *recorder) Ref(v *Value, ref int) error {
	r.events = append(r.events, fmt.Sprintf("ref:%d", ref))
	return nil
}

func TestWalk(t *testing.T) {
	shared := Str("shared")
	cyclic := List(Int(1))
	cyclic.Append(cyclic)

	tests := []struct {
		name string
		root *Value
		want []string
	}{
		{
			name: "scalar",
			root: Str("TEST-STRING"),
			want: []string{"scalar:str#0"},
		},
		{
			name: "nil_child",
			root: List(nil),
			want: []string{"list#0", "scalar:null#0", "end"},
		},
		{
			name: "record",
			root: NewRecord("Point", Field("x", Int(1)), Field("y", Int(2))),
			want: []string{"record:Point#0", "key:x", "scalar:int#0", "key:y", "scalar:int#0", "end"},
		},
		{
			name: "shared_scalar",
			root: Map(Field("a", shared), Field("b", shared)),
			want: []string{"map#0", "key:a", "scalar:str#1", "key:b", "ref:1", "end"},
		},
		{
			name: "cycle",
			root: cyclic,
			want: []string{"list#1", "scalar:int#0", "ref:1", "end"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			require.NoError(t, Walk(tt.root, r))
			if diff := cmp.Diff(tt.want, r.events); diff != "" {
				t.Errorf("Walk events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type failingVisitor struct {
	recorder
}

func (f *failingVisitor) Key(name string) error {
	return errors.New("stop at " + name)
}

func TestWalk_StopsOnError(t *testing.T) {
	err := Walk(Map(Field("a", Int(1))), &failingVisitor{})
	require.EqualError(t, err, "stop at a")
}

func TestSharedNodes(t *testing.T) {
	leaf := Int(7)
	root := List(leaf, List(leaf), Int(7))
	shared := SharedNodes(root)
	assert.Len(t, shared, 1)
	assert.True(t, shared[leaf])
}

// ============================================================
// Equal
// ============================================================

func TestEqual(t *testing.T) {
	a := Str("a")
	aliased := List(a, a)
	b := Str("a")
	aliasedToo := List(b, b)
	distinct := List(Str("a"), Str("a"))

	selfA := List()
	selfA.Append(selfA)
	selfB := List()
	selfB.Append(selfB)
	notSelf := List(List())

	tests := []struct {
		name string
		a, b *Value
		want bool
	}{
		{"scalars", Int(1), Int(1), true},
		{"scalar_mismatch", Int(1), Int(2), false},
		{"kind_mismatch", Int(1), Float(1), false},
		{"nan", Float(math.NaN()), Float(math.NaN()), true},
		{"signed_zero", Float(0), Float(math.Copysign(0, -1)), false},
		{"nil_vs_null", List(nil), List(Null()), true},
		{"aliasing_differs", aliased, distinct, false},
		{"aliasing_same", aliased, aliasedToo, true},
		{"cycles", selfA, selfB, true},
		{"cycle_vs_tree", selfA, notSelf, false},
		{"record_type", NewRecord("A"), NewRecord("B"), false},
		{"map_order", Map(Field("a", Int(1)), Field("b", Int(2))), Map(Field("b", Int(2)), Field("a", Int(1))), false},
		{"times", Time(time.Unix(0, 0).UTC()), Time(time.Unix(0, 0).In(time.FixedZone("X", 3600))), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

// ============================================================
// Native bridge
// ============================================================

type node struct {
	Name  string
	Next  *node
	Tags  []string
	Attrs map[string]int
	note  string
}

func TestFrom_Scalars(t *testing.T) {
	tests := []struct {
		in   any
		want *Value
	}{
		{nil, Null()},
		{true, Bool(true)},
		{int8(-3), Int(-3)},
		{uint16(9), Int(9)},
		{float32(0.5), Float(0.5)},
		{"TEST-STRING", Str("TEST-STRING")},
		{[]byte("raw"), Bytes([]byte("raw"))},
		{[2]byte{1, 2}, Bytes([]byte{1, 2})},
		{[]any{1, "a", nil}, List(Int(1), Str("a"), Null())},
		{map[string]bool{"b": false, "a": true}, Map(Field("a", Bool(true)), Field("b", Bool(false)))},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%T", tt.in), func(t *testing.T) {
			got, err := From(tt.in)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "From(%v)", tt.in)
		})
	}
}

func TestFrom_Records(t *testing.T) {
	got, err := From(node{Name: "a", Tags: []string{"x"}, note: "hidden"})
	require.NoError(t, err)

	rec, err := got.AsRecord()
	require.NoError(t, err)
	assert.Equal(t, "node", rec.TypeName)
	names := make([]string, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		names = append(names, f.Key)
	}
	assert.Equal(t, []string{"Name", "Next", "Tags", "Attrs"}, names)
	assert.True(t, got.Get("Next").IsNull())
}

func TestFrom_PreservesIdentity(t *testing.T) {
	shared := &node{Name: "shared"}
	root := []*node{shared, shared}

	got, err := From(root)
	require.NoError(t, err)
	first, _ := got.Index(0)
	second, _ := got.Index(1)
	assert.Same(t, first, second)

	ring := &node{Name: "ring"}
	ring.Next = ring
	cyclic, err := From(ring)
	require.NoError(t, err)
	assert.Same(t, cyclic, cyclic.Get("Next"))

	self := []any{nil}
	self[0] = self
	list, err := From(self)
	require.NoError(t, err)
	inner, _ := list.Index(0)
	assert.Same(t, list, inner)
}

type selfPointer *selfPointer

func TestFrom_PointerCycles(t *testing.T) {
	var iface any
	iface = &iface
	_, err := From(iface)
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, err.Error(), "pointer cycle")

	var p selfPointer
	p = &p
	_, err = From(p)
	require.ErrorIs(t, err, ErrUnsupported)

	// Through a slice the cycle closes on the list node.
	list := []any{nil}
	list[0] = &list
	got, err := From(list)
	require.NoError(t, err)
	inner, _ := got.Index(0)
	assert.Same(t, got, inner)

	// Two pointers to one non-container target stay one node.
	n := 5
	shared, err := From([]*int{&n, &n})
	require.NoError(t, err)
	first, _ := shared.Index(0)
	second, _ := shared.Index(1)
	assert.Same(t, first, second)
}

func TestFrom_Unsupported(t *testing.T) {
	tests := []any{
		make(chan int),
		func() {},
		complex(1, 2),
		map[int]string{1: "a"},
		uint64(math.MaxUint64),
		[]any{"ok", make(chan struct{})},
	}

	for _, in := range tests {
		t.Run(fmt.Sprintf("%T", in), func(t *testing.T) {
			_, err := From(in)
			require.ErrorIs(t, err, ErrUnsupported)
		})
	}
}

// ============================================================
// JSON bridge
// ============================================================

func TestJSON_RoundTrip(t *testing.T) {
	input := `{"$type":"Point","x":1,"y":2.5,"tags":["a",null,true],"meta":{"k":"v"}}`
	v, err := FromJSON([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, KindRecord, v.Kind())
	assert.Equal(t, KindFloat, v.Get("y").Kind())
	assert.Equal(t, KindMap, v.Get("meta").Kind())

	out, err := ToJSON(v)
	require.NoError(t, err)
	back, err := FromJSON(out)
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
}

func TestJSON_Errors(t *testing.T) {
	for _, in := range []string{`{"a":`, "1 garbage", "1 2", `{"a":1}}`, ""} {
		_, err := FromJSON([]byte(in))
		require.Error(t, err, "input %q", in)
		assert.True(t, strings.HasPrefix(err.Error(), "value: JSON parse error"), "input %q: %v", in, err)
	}

	v, err := FromJSON([]byte(" 1 \n"))
	require.NoError(t, err)
	assert.True(t, Equal(Int(1), v))

	cyclic := List()
	cyclic.Append(cyclic)
	_, err = ToJSON(cyclic)
	require.ErrorIs(t, err, ErrCycle)

	_, err = ToJSON(Float(math.Inf(1)))
	require.Error(t, err)

	// Shared but acyclic graphs are duplicated, not rejected.
	leaf := Str("x")
	out, err := ToJSON(List(leaf, leaf))
	require.NoError(t, err)
	assert.JSONEq(t, `["x","x"]`, string(out))
}
