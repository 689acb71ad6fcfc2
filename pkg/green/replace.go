package green

// ReplaceChild produces a new node identical to r but with its i-th child
// replaced by newChild, re-interning the result through b (§4.D's "+1"
// operation). It panics if r does not refer to a node. The untouched
// children are shared by reference with r, not copied; whenever newChild
// is a different element from r's current i-th child, the returned node is
// a different record from r (scenario 5).
//
// ReplaceChild takes ownership of newChild. It does not release r; the
// caller keeps whatever reference to r it already held.
func (r ElementRef) ReplaceChild(b *Builder, i int, newChild ElementRef) (ElementRef, error) {
	n, ok := r.AsNode()
	if !ok {
		panic("green: ReplaceChild called on a reference that is not a node")
	}
	children := make([]ElementRef, n.ChildCount())
	for idx, slot := range n.children {
		if idx == i {
			children[idx] = newChild
		} else {
			children[idx] = slot.ref.Clone()
		}
	}
	return b.Node(n.kind, children)
}
