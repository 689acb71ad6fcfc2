package green

import (
	"fmt"
	"sync/atomic"
)

// extent packs a node's child count and total width into one word, the way
// a compact on-disk record packs two 32-bit counts into a single uint64:
// one load instead of two, and no padding between the fields.
type extent uint64

func newExtent(childCount, width uint32) extent {
	return extent(childCount) | extent(width)<<32
}

func (e extent) childCount() uint32 { return uint32(e) }
func (e extent) width() uint32      { return uint32(e >> 32) }

// Token is an immutable leaf element: a kind plus a run of text. Two tokens
// are structurally equal iff their kinds and text are equal.
//
// Tokens are created exclusively by a Builder (see Builder.Token); there is
// no exported constructor, matching the core's contract that no element
// exists outside the knowledge of the interner that produced it.
type Token struct {
	refcount atomic.Int32
	kind     Kind
	text     string
}

// Kind returns the token's kind.
func (t *Token) Kind() Kind { return t.kind }

// Text returns the token's text.
func (t *Token) Text() string { return t.text }

// Width returns the byte length of the token's text.
func (t *Token) Width() uint32 { return uint32(len(t.text)) }

// AppendText appends the token's text to dst and returns the extended
// slice, in the style of strconv.AppendInt and similar allocation-avoiding
// helpers.
func (t *Token) AppendText(dst []byte) []byte { return append(dst, t.text...) }

func (t *Token) String() string {
	return fmt.Sprintf("Token{kind: %d, width: %d}", t.kind, t.Width())
}

// GoString renders t for %#v. Like String, it is kept to a single line and
// never recurses into anything else, so formatting a token is never an
// accidental unbounded dump.
func (t *Token) GoString() string {
	return fmt.Sprintf("green.Token{kind: %d, text: %q}", t.kind, t.text)
}

// childSlot is one entry of a Node's child array: the child's cumulative
// starting offset from the node's beginning, and the child reference
// itself.
type childSlot struct {
	offset uint32
	ref    ElementRef
}

// Node is an immutable interior element: a kind plus an ordered sequence of
// children. A node's width is the sum of its children's widths.
//
// Like Token, Node values are created exclusively by a Builder.
type Node struct {
	refcount atomic.Int32
	kind     Kind
	extent   extent
	children []childSlot
}

// Kind returns the node's kind.
func (n *Node) Kind() Kind { return n.kind }

// Width returns the total width covered by the node's children.
func (n *Node) Width() uint32 { return n.extent.width() }

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int { return int(n.extent.childCount()) }

// ChildAt returns the i-th child's cumulative offset and reference. It
// panics if i is out of range, the same way slice indexing does.
func (n *Node) ChildAt(i int) (offset uint32, ref ElementRef) {
	s := n.children[i]
	return s.offset, s.ref
}

// Text reconstructs the node's full covered source text by concatenating
// the text of every descendant token in left-to-right order.
func (n *Node) Text() string { return refToNode(n).Text() }

// AppendText is the allocation-avoiding counterpart of Text.
func (n *Node) AppendText(dst []byte) []byte { return refToNode(n).AppendText(dst) }

func (n *Node) String() string {
	return fmt.Sprintf("Node{kind: %d, width: %d, children: %d}", n.kind, n.Width(), n.ChildCount())
}

// GoString renders n for %#v. It reports the node's own kind, width, and
// child count but does not recurse into children, so printing a node near
// the tree's root never triggers a depth-unbounded dump.
func (n *Node) GoString() string {
	return fmt.Sprintf("green.Node{kind: %d, width: %d, children: %d}", n.kind, n.Width(), n.ChildCount())
}
