package green

import (
	"bytes"
	"encoding/binary"
	"math"
	"weak"

	"github.com/CAD97/sorbus/internal/debug"
	"github.com/CAD97/sorbus/internal/intern"
)

// tokenKey is the structural key a Token is interned under: kind plus its
// exact text.
type tokenKey struct {
	kind Kind
	text string
}

// BuilderOption configures a Builder at construction time, the same
// functional-options shape the teacher package uses for allocator
// construction.
type BuilderOption func(*builderConfig)

type builderConfig struct {
	tokenHint int
	nodeHint  int
	cutoff    uint32
}

// WithTokenMapHint sizes the token interning table's initial capacity for
// roughly n distinct tokens, avoiding growth churn for callers who know
// their scale up front.
func WithTokenMapHint(n int) BuilderOption {
	return func(c *builderConfig) { c.tokenHint = n }
}

// WithNodeMapHint is WithTokenMapHint for the node interning table.
func WithNodeMapHint(n int) BuilderOption {
	return func(c *builderConfig) { c.nodeHint = n }
}

// WithInterningCutoff resolves the §9 open question on whether very large
// subtrees should bypass interning. Nodes whose computed width is at or
// above cutoff bytes are allocated directly without consulting or
// populating the node map, trading dedup opportunity for bounded interner
// memory. A cutoff of 0 (the default) disables this and interns every
// node regardless of size.
func WithInterningCutoff(cutoff uint32) BuilderOption {
	return func(c *builderConfig) { c.cutoff = cutoff }
}

// Builder is the sole creator of Token and Node elements. It owns two
// hash-consing tables — one for tokens, one for nodes — holding
// non-owning (weak) references so that cache presence never extends an
// element's lifetime (I4).
//
// A Builder is not safe for concurrent use; elements it produces are.
type Builder struct {
	tokens *intern.Map[tokenKey, weak.Pointer[Token]]
	nodes  *intern.Map[string, weak.Pointer[Node]]
	cutoff uint32
}

// NewBuilder creates a Builder, ready to intern.
func NewBuilder(opts ...BuilderOption) *Builder {
	cfg := builderConfig{tokenHint: 64, nodeHint: 64}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder{
		tokens: intern.New[tokenKey, weak.Pointer[Token]](cfg.tokenHint),
		nodes:  intern.New[string, weak.Pointer[Node]](cfg.nodeHint),
		cutoff: cfg.cutoff,
	}
}

// Token interns (kind, text), returning a shared, owning reference. A
// second call with the same arguments returns the same physical record
// (P3), as long as a live reference to the first one still exists.
func (b *Builder) Token(kind Kind, text []byte) (ElementRef, error) {
	if uint64(len(text)) > math.MaxUint32 {
		return ElementRef{}, &Error{Kind: WidthOverflow, Context: "token text too long"}
	}

	key := tokenKey{kind: kind, text: string(text)}
	if wp, ok := b.tokens.Get(key); ok {
		if t := wp.Value(); t != nil && t.refcount.Load() > 0 {
			t.refcount.Add(1)
			debug.Log(nil, "token", "interned hit kind=%d len=%d", kind, len(text))
			return refToToken(t), nil
		}
	}

	t := &Token{kind: kind, text: key.text}
	t.refcount.Add(1)
	b.tokens.Set(key, weak.Make(t))
	debug.Log(nil, "token", "interned miss kind=%d len=%d", kind, len(text))
	return refToToken(t), nil
}

// Node interns (kind, children), taking ownership of the passed children
// references. On a cache hit the caller's children are released (their
// counted presence in the already-interned node stands in for them) and a
// cloned reference to the cached node is returned; on a miss the children
// are moved into a freshly allocated node.
func (b *Builder) Node(kind Kind, children []ElementRef) (ElementRef, error) {
	if uint64(len(children)) > math.MaxUint32 {
		for _, c := range children {
			c.Drop()
		}
		return ElementRef{}, &Error{Kind: ChildCountOverflow, Context: "node child count too large"}
	}

	slots := make([]childSlot, len(children))
	var offset uint64
	for i, c := range children {
		if offset > math.MaxUint32 {
			for _, d := range children {
				d.Drop()
			}
			return ElementRef{}, &Error{Kind: WidthOverflow, Context: "node width too large"}
		}
		slots[i] = childSlot{offset: uint32(offset), ref: c}
		offset += uint64(c.Width())
	}
	if offset > math.MaxUint32 {
		for _, c := range children {
			c.Drop()
		}
		return ElementRef{}, &Error{Kind: WidthOverflow, Context: "node width too large"}
	}
	width := uint32(offset)

	if b.cutoff > 0 && width >= b.cutoff {
		n := &Node{kind: kind, extent: newExtent(uint32(len(children)), width), children: slots}
		n.refcount.Add(1)
		debug.Log(nil, "node", "bypassed interning kind=%d width=%d (>= cutoff)", kind, width)
		return refToNode(n), nil
	}

	key := nodeKey(kind, children)
	if wp, ok := b.nodes.Get(key); ok {
		if n := wp.Value(); n != nil && n.refcount.Load() > 0 {
			n.refcount.Add(1)
			for _, c := range children {
				c.Drop()
			}
			debug.Log(nil, "node", "interned hit kind=%d width=%d", kind, width)
			return refToNode(n), nil
		}
	}

	n := &Node{kind: kind, extent: newExtent(uint32(len(children)), width), children: slots}
	n.refcount.Add(1)
	b.nodes.Set(key, weak.Make(n))
	debug.Log(nil, "node", "interned miss kind=%d width=%d", kind, width)
	return refToNode(n), nil
}

// GC sweeps both interning tables, removing entries whose weak reference
// has become unreachable (refcount dropped to zero and the element was
// collected), and returns the number of entries removed. It never
// reclaims a live record and never disturbs outstanding owning
// references.
func (b *Builder) GC() int {
	n := b.tokens.RemoveIf(func(_ tokenKey, wp weak.Pointer[Token]) bool { return wp.Value() == nil })
	n += b.nodes.RemoveIf(func(_ string, wp weak.Pointer[Node]) bool { return wp.Value() == nil })
	debug.Log(nil, "gc", "swept %d entries", n)
	return n
}

// nodeKey builds the structural key a node is interned under: its kind
// followed by the identity (tag + pointer) of each child. Children
// themselves came from the interner, so identity comparison is sufficient
// — by induction, structural equality of children collapses to identity
// equality (§4.C).
func nodeKey(kind Kind, children []ElementRef) string {
	var buf bytes.Buffer
	buf.Grow(2 + len(children)*9)

	var kindBuf [2]byte
	binary.LittleEndian.PutUint16(kindBuf[:], uint16(kind))
	buf.Write(kindBuf[:])

	for _, c := range children {
		buf.WriteByte(byte(c.tag))
		var ptrBuf [8]byte
		binary.LittleEndian.PutUint64(ptrBuf[:], uint64(uintptr(c.ptr)))
		buf.Write(ptrBuf[:])
	}
	return buf.String()
}
