// Package value implements the value graph transcoded by xmlserial.
//
// # Data Model
//
// Scalars: null, bool, int, float, str, bytes, time
// Containers: list, map (ordered, string keys), record (named, ordered fields)
//
// Nodes are *Value pointers. A node held by two parents is shared, and a
// container may reach itself, so a graph can carry aliasing and cycles.
//
// # Traversal
//
// Walk drives a Visitor over the variant set. Shared nodes are found up
// front with an explicit identity map; the first visit of a shared node
// carries its reference id and every later arrival becomes a Ref event:
//
//	list := value.List(value.Str("a"))
//	list.Append(list)          // cycle
//	value.Walk(list, visitor)  // BeginList(ref=1) Scalar("a") Ref(1) End
//
// Encoders in the envelope and markup packages are Visitors.
package value
