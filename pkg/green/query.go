package green

import (
	"iter"
	"sort"
)

// ChildAtOffset locates the unique child whose [offset, offset+width)
// interval contains p. It is a binary search over the node's stored
// cumulative offsets, so lookup is O(log w) in the node's fan-out; when p
// lands exactly on a child boundary, the child starting at p is chosen,
// never the one ending there. Zero-width children never match, which falls
// out of the half-open interval test without any special case.
func (n *Node) ChildAtOffset(p uint32) (ElementRef, error) {
	if p >= n.Width() {
		return ElementRef{}, &Error{Kind: PositionOutOfRange, Context: "child_at_offset"}
	}

	children := n.children
	// Rightmost child whose offset is <= p.
	i := sort.Search(len(children), func(i int) bool { return children[i].offset > p }) - 1
	return children[i].ref, nil
}

// PreOrder yields every element reachable from r, each paired with its
// absolute offset from r's start, in pre-order (a node before its
// children). Traversal is iterative (an explicit work stack), never
// recursive on children, matching the non-recursive discipline §4.A
// requires of drop.
func (r ElementRef) PreOrder() iter.Seq2[uint32, ElementRef] {
	return func(yield func(uint32, ElementRef) bool) {
		type frame struct {
			ref  ElementRef
			base uint32
		}
		stack := []frame{{r, 0}}
		for len(stack) > 0 {
			top := len(stack) - 1
			f := stack[top]
			stack = stack[:top]

			if !yield(f.base, f.ref) {
				return
			}
			if f.ref.tag == tagNode {
				children := f.ref.asNode().children
				for i := len(children) - 1; i >= 0; i-- {
					c := children[i]
					stack = append(stack, frame{c.ref, f.base + c.offset})
				}
			}
		}
	}
}

// PostOrder yields every element reachable from r, each paired with its
// absolute offset from r's start, in post-order (a node's children before
// the node itself). Like PreOrder, it is iterative.
func (r ElementRef) PostOrder() iter.Seq2[uint32, ElementRef] {
	return func(yield func(uint32, ElementRef) bool) {
		type frame struct {
			ref      ElementRef
			base     uint32
			nextChild int
		}
		stack := []frame{{r, 0, 0}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.ref.tag == tagNode {
				children := top.ref.asNode().children
				if top.nextChild < len(children) {
					c := children[top.nextChild]
					base := top.base
					top.nextChild++
					stack = append(stack, frame{c.ref, base + c.offset, 0})
					continue
				}
			}
			if !yield(top.base, top.ref) {
				return
			}
			stack = stack[:len(stack)-1]
		}
	}
}

// Text reconstructs r's covered source text by concatenating the text of
// every descendant token, visited left to right.
func (r ElementRef) Text() string {
	return string(r.AppendText(nil))
}

// AppendText is the allocation-avoiding counterpart of Text.
func (r ElementRef) AppendText(dst []byte) []byte {
	for _, ref := range r.PreOrder() {
		if ref.Variant() == VariantToken {
			dst = ref.asToken().AppendText(dst)
		}
	}
	return dst
}
