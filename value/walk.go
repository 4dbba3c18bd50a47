package value

// Visitor receives the nodes of a value graph in document order.
//
// ref is zero for nodes reached exactly once. A node reached more than
// once gets a positive id at its first visit; every later arrival is
// reported through Ref with that id and is not descended into again.
type Visitor interface {
	Scalar(v *Value, ref int) error
	BeginList(v *Value, ref int) error
	BeginMap(v *Value, ref int) error
	BeginRecord(v *Value, ref int) error
	// Key precedes each map entry value and record field value.
	Key(name string) error
	// End closes the innermost list, map or record.
	End(v *Value) error
	Ref(v *Value, ref int) error
}

// Walk traverses the graph rooted at root. Nil children are visited as
// fresh null scalars.
func Walk(root *Value, vis Visitor) error {
	w := &walker{
		vis:    vis,
		shared: SharedNodes(root),
		ids:    make(map[*Value]int),
	}
	return w.walk(root)
}

type walker struct {
	vis    Visitor
	shared map[*Value]bool
	ids    map[*Value]int
	next   int
}

func (w *walker) walk(v *Value) error {
	if v == nil {
		return w.vis.Scalar(Null(), 0)
	}

	ref := 0
	if w.shared[v] {
		if id, seen := w.ids[v]; seen {
			return w.vis.Ref(v, id)
		}
		w.next++
		ref = w.next
		w.ids[v] = ref
	}

	switch v.kind {
	case KindList:
		if err := w.vis.BeginList(v, ref); err != nil {
			return err
		}
		for _, elem := range v.listVal {
			if err := w.walk(elem); err != nil {
				return err
			}
		}
	case KindMap:
		if err := w.vis.BeginMap(v, ref); err != nil {
			return err
		}
		if err := w.entries(v.mapVal); err != nil {
			return err
		}
	case KindRecord:
		if err := w.vis.BeginRecord(v, ref); err != nil {
			return err
		}
		if err := w.entries(v.record.Fields); err != nil {
			return err
		}
	default:
		return w.vis.Scalar(v, ref)
	}
	return w.vis.End(v)
}

func (w *walker) entries(entries []Entry) error {
	for _, e := range entries {
		if err := w.vis.Key(e.Key); err != nil {
			return err
		}
		if err := w.walk(e.Value); err != nil {
			return err
		}
	}
	return nil
}

// SharedNodes returns the set of nodes reachable from root along more
// than one edge. A node that lies on a cycle is always shared.
func SharedNodes(root *Value) map[*Value]bool {
	seen := make(map[*Value]bool)
	shared := make(map[*Value]bool)
	if root == nil {
		return shared
	}

	stack := []*Value{root}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[v] {
			shared[v] = true
			continue
		}
		seen[v] = true
		for _, child := range v.children() {
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
	return shared
}
