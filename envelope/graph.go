package envelope

import (
	"errors"
	"fmt"
	"time"

	"github.com/Neumenon/xmlserial/value"
)

// graphVersion is written into every envelope; bump it when the node
// layout changes.
const graphVersion = 2

// wireGraph is the flattened form of a value graph. Every node is
// written once; containers refer to their children by index, which is
// how shared nodes and cycles survive the trip.
type wireGraph struct {
	_       struct{} `cbor:",toarray"`
	Version uint8
	Root    uint32
	Nodes   []wireNode
}

type wireNode struct {
	_      struct{} `cbor:",toarray"`
	Kind   uint8
	Bool   bool
	Int    int64 // int value, time in unix seconds
	Float  float64
	Str    string // str value, record type name
	Bytes  []byte
	Keys   []string // map keys or record field names, parallel to Items
	Items  []uint32
	Nsec   uint32 // time nanoseconds within the second
	Offset int32  // time zone offset east of UTC, in seconds
}

// ============================================================
// Flatten: graph -> node table
// ============================================================

type flattener struct {
	nodes []wireNode
	open  []uint32       // indices of open containers
	refs  map[int]uint32 // walk ref id -> node index
	key   string
}

func flatten(root *value.Value) (*wireGraph, error) {
	f := &flattener{refs: make(map[int]uint32)}
	if err := value.Walk(root, f); err != nil {
		return nil, err
	}
	return &wireGraph{Version: graphVersion, Root: 0, Nodes: f.nodes}, nil
}

func (f *flattener) add(n wireNode, ref int) uint32 {
	idx := uint32(len(f.nodes))
	f.nodes = append(f.nodes, n)
	if ref > 0 {
		f.refs[ref] = idx
	}
	f.attach(idx)
	return idx
}

func (f *flattener) attach(idx uint32) {
	if len(f.open) == 0 {
		return
	}
	parent := &f.nodes[f.open[len(f.open)-1]]
	parent.Items = append(parent.Items, idx)
	if value.Kind(parent.Kind) != value.KindList {
		parent.Keys = append(parent.Keys, f.key)
	}
}

func (f *flattener) Scalar(v *value.Value, ref int) error {
	n := wireNode{Kind: uint8(v.Kind())}
	switch v.Kind() {
	case value.KindNull:
	case value.KindBool:
		n.Bool, _ = v.AsBool()
	case value.KindInt:
		n.Int, _ = v.AsInt()
	case value.KindFloat:
		n.Float, _ = v.AsFloat()
	case value.KindStr:
		n.Str, _ = v.AsStr()
	case value.KindBytes:
		// Empty and nil byte strings share one encoding.
		if b, _ := v.AsBytes(); len(b) > 0 {
			n.Bytes = b
		}
	case value.KindTime:
		t, _ := v.AsTime()
		_, offset := t.Zone()
		n.Int, n.Nsec, n.Offset = t.Unix(), uint32(t.Nanosecond()), int32(offset)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, v.Kind())
	}
	f.add(n, ref)
	return nil
}

func (f *flattener) begin(k value.Kind, typeName string, ref int) error {
	idx := f.add(wireNode{Kind: uint8(k), Str: typeName}, ref)
	f.open = append(f.open, idx)
	return nil
}

func (f *flattener) BeginList(v *value.Value, ref int) error {
	return f.begin(value.KindList, "", ref)
}

func (f *flattener) BeginMap(v *value.Value, ref int) error {
	return f.begin(value.KindMap, "", ref)
}

func (f *flattener) BeginRecord(v *value.Value, ref int) error {
	rec, err := v.AsRecord()
	if err != nil {
		return err
	}
	return f.begin(value.KindRecord, rec.TypeName, ref)
}

func (f *flattener) Key(name string) error {
	f.key = name
	return nil
}

func (f *flattener) End(v *value.Value) error {
	f.open = f.open[:len(f.open)-1]
	return nil
}

func (f *flattener) Ref(v *value.Value, ref int) error {
	idx, ok := f.refs[ref]
	if !ok {
		return fmt.Errorf("%w: ref %d", ErrDanglingRef, ref)
	}
	f.attach(idx)
	return nil
}

// ============================================================
// Inflate: node table -> graph
// ============================================================

func inflate(g *wireGraph) (*value.Value, error) {
	if g.Version != graphVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, g.Version)
	}
	if len(g.Nodes) == 0 {
		return nil, errors.New("empty node table")
	}
	if int(g.Root) >= len(g.Nodes) {
		return nil, fmt.Errorf("%w: root %d of %d nodes", ErrDanglingRef, g.Root, len(g.Nodes))
	}

	// Allocate every node first so children can point anywhere,
	// including back at their ancestors.
	nodes := make([]*value.Value, len(g.Nodes))
	for i := range g.Nodes {
		v, err := newNode(&g.Nodes[i])
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		nodes[i] = v
	}

	for i := range g.Nodes {
		if err := link(nodes, i, &g.Nodes[i]); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
	}
	return nodes[g.Root], nil
}

func newNode(n *wireNode) (*value.Value, error) {
	k := value.Kind(n.Kind)
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, n.Kind)
	}
	if !k.IsContainer() && len(n.Items) > 0 {
		return nil, fmt.Errorf("%s node has children", k)
	}

	switch k {
	case value.KindNull:
		return value.Null(), nil
	case value.KindBool:
		return value.Bool(n.Bool), nil
	case value.KindInt:
		return value.Int(n.Int), nil
	case value.KindFloat:
		return value.Float(n.Float), nil
	case value.KindStr:
		return value.Str(n.Str), nil
	case value.KindBytes:
		return value.Bytes(n.Bytes), nil
	case value.KindTime:
		if n.Nsec >= uint32(time.Second) {
			return nil, fmt.Errorf("time nanoseconds %d out of range", n.Nsec)
		}
		return value.Time(unixTime(n.Int, int64(n.Nsec), int(n.Offset))), nil
	case value.KindList:
		return value.List(), nil
	case value.KindMap:
		return value.Map(), nil
	default:
		return value.NewRecord(n.Str), nil
	}
}

func link(nodes []*value.Value, i int, n *wireNode) error {
	k := value.Kind(n.Kind)
	if !k.IsContainer() {
		return nil
	}
	if k == value.KindList && len(n.Keys) > 0 {
		return errors.New("list node has keys")
	}
	if k != value.KindList && len(n.Keys) != len(n.Items) {
		return fmt.Errorf("%s node has %d keys for %d children", k, len(n.Keys), len(n.Items))
	}

	for j, idx := range n.Items {
		if int(idx) >= len(nodes) {
			return fmt.Errorf("%w: child %d of %d nodes", ErrDanglingRef, idx, len(nodes))
		}
		if k == value.KindList {
			nodes[i].Append(nodes[idx])
		} else {
			nodes[i].Add(n.Keys[j], nodes[idx])
		}
	}
	return nil
}

// unixTime rebuilds a time in a fixed zone of the given offset. Zone
// names are not kept.
func unixTime(sec, nsec int64, offset int) time.Time {
	t := time.Unix(sec, nsec)
	if offset == 0 {
		return t.UTC()
	}
	return t.In(time.FixedZone("", offset))
}
