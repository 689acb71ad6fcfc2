package green_test

import (
	"runtime"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CAD97/sorbus/pkg/green"
)

func TestEmptyNode(t *testing.T) {
	b := green.NewBuilder()

	n1, err := b.Node(7, nil)
	require.NoError(t, err)
	node1, ok := n1.AsNode()
	require.True(t, ok)
	assert.Equal(t, green.Kind(7), node1.Kind())
	assert.Equal(t, uint32(0), node1.Width())
	assert.Equal(t, 0, node1.ChildCount())

	n2, err := b.Node(7, nil)
	require.NoError(t, err)
	node2, _ := n2.AsNode()
	assert.Same(t, node1, node2)

	n1.Drop()
	n2.Drop()
}

func TestSimpleToken(t *testing.T) {
	b := green.NewBuilder()

	r1, err := b.Token(1, []byte("hello"))
	require.NoError(t, err)
	t1, ok := r1.AsToken()
	require.True(t, ok)
	assert.Equal(t, uint32(5), t1.Width())
	assert.Equal(t, "hello", t1.Text())

	r2, err := b.Token(1, []byte("hello"))
	require.NoError(t, err)
	t2, _ := r2.AsToken()
	assert.Same(t, t1, t2)

	r1.Drop()
	r2.Drop()
}

func TestDedupAcrossConstructions(t *testing.T) {
	Convey("Given a builder", t, func() {
		b := green.NewBuilder()

		Convey("building the same node shape twice yields the same reference", func() {
			mkChild := func() green.ElementRef {
				r, err := b.Token(1, []byte("x"))
				So(err, ShouldBeNil)
				return r
			}

			n1, err := b.Node(9, []green.ElementRef{mkChild()})
			So(err, ShouldBeNil)
			n2, err := b.Node(9, []green.ElementRef{mkChild()})
			So(err, ShouldBeNil)

			node1, _ := n1.AsNode()
			node2, _ := n2.AsNode()
			So(node1 == node2, ShouldBeTrue)

			n1.Drop()
			n2.Drop()
		})
	})
}

func TestBuilderOptions(t *testing.T) {
	b := green.NewBuilder(
		green.WithTokenMapHint(128),
		green.WithNodeMapHint(128),
		green.WithInterningCutoff(4),
	)

	// A node whose width reaches the cutoff bypasses the node map: two
	// otherwise-identical constructions yield distinct physical nodes.
	mk := func() green.ElementRef {
		tok, err := b.Token(1, []byte("abcd"))
		require.NoError(t, err)
		n, err := b.Node(2, []green.ElementRef{tok})
		require.NoError(t, err)
		return n
	}

	a := mk()
	c := mk()
	na, _ := a.AsNode()
	nc, _ := c.AsNode()
	assert.NotSame(t, na, nc)

	a.Drop()
	c.Drop()
}

func TestGCSweep(t *testing.T) {
	b := green.NewBuilder()

	var roots []green.ElementRef
	for i := 0; i < 1000; i++ {
		tok, err := b.Token(1, []byte{byte(i), byte(i >> 8)})
		require.NoError(t, err)
		n, err := b.Node(green.Kind(i), []green.ElementRef{tok})
		require.NoError(t, err)
		roots = append(roots, n)
	}

	for _, r := range roots {
		r.Drop()
	}
	roots = nil

	// weak.Pointer only reports nil once the runtime has actually
	// collected the referent; force a cycle so the sweep below is
	// deterministic instead of depending on GC timing.
	runtime.GC()
	runtime.GC()

	removed := b.GC()
	assert.Equal(t, 2000, removed) // 1000 tokens + 1000 nodes

	// Reconstruction repopulates the maps from scratch.
	tok, err := b.Token(1, []byte{0, 0})
	require.NoError(t, err)
	n, err := b.Node(0, []green.ElementRef{tok})
	require.NoError(t, err)
	n.Drop()
}
