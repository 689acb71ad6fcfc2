package green_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CAD97/sorbus/pkg/green"
	"github.com/CAD97/sorbus/pkg/xerrors"
)

func TestCompositionAndLookup(t *testing.T) {
	b := green.NewBuilder()

	a, err := b.Token(1, []byte("foo"))
	require.NoError(t, err)
	bb, err := b.Token(2, []byte("bar"))
	require.NoError(t, err)
	nref, err := b.Node(9, []green.ElementRef{a, bb})
	require.NoError(t, err)
	n, _ := nref.AsNode()

	assert.Equal(t, uint32(6), n.Width())
	off0, c0 := n.ChildAt(0)
	off1, c1 := n.ChildAt(1)
	assert.Equal(t, uint32(0), off0)
	assert.Equal(t, uint32(3), off1)
	assert.True(t, c0.Equal(a))
	assert.True(t, c1.Equal(bb))

	for _, p := range []uint32{0, 2} {
		got, err := n.ChildAtOffset(p)
		require.NoError(t, err)
		assert.True(t, got.Equal(a))
	}
	for _, p := range []uint32{3, 5} {
		got, err := n.ChildAtOffset(p)
		require.NoError(t, err)
		assert.True(t, got.Equal(bb))
	}

	_, err = n.ChildAtOffset(6)
	require.Error(t, err)
	gerr, ok := xerrors.AsA[*green.Error](err)
	require.True(t, ok)
	assert.Equal(t, green.PositionOutOfRange, gerr.Kind)

	nref.Drop()
}

func TestPositionalLookupTieBreak(t *testing.T) {
	b := green.NewBuilder()

	zero, err := b.Token(1, nil)
	require.NoError(t, err)
	one, err := b.Token(1, []byte("x"))
	require.NoError(t, err)
	nref, err := b.Node(9, []green.ElementRef{zero, one})
	require.NoError(t, err)
	n, _ := nref.AsNode()

	// Both children start at offset 0; the zero-width child must never be
	// the one positional lookup returns.
	got, err := n.ChildAtOffset(0)
	require.NoError(t, err)
	assert.True(t, got.Equal(one))

	nref.Drop()
}

func TestTraversalOrdersAndText(t *testing.T) {
	b := green.NewBuilder()

	a, _ := b.Token(1, []byte("foo"))
	c, _ := b.Token(2, []byte("bar"))
	nref, err := b.Node(9, []green.ElementRef{a, c})
	require.NoError(t, err)

	var pre []uint32
	for off, ref := range nref.PreOrder() {
		pre = append(pre, off)
		_ = ref
	}
	assert.Equal(t, []uint32{0, 0, 3}, pre)

	var post []uint32
	for off, ref := range nref.PostOrder() {
		post = append(post, off)
		_ = ref
	}
	assert.Equal(t, []uint32{0, 3, 0}, post)

	assert.Equal(t, "foobar", nref.Text())
	n, _ := nref.AsNode()
	assert.Equal(t, "foobar", n.Text())

	nref.Drop()
}
