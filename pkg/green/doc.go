// Package green implements a hash-consed, lossless, persistent syntax tree.
//
// A tree is built from two kinds of elements: Token, an immutable leaf
// carrying a kind and a run of text, and Node, an immutable interior
// element carrying a kind and an ordered sequence of children. Every
// element is created through a Builder, which interns elements by
// structural value so that two constructions with the same shape collapse
// to the same physical record (hash-consing). Elements are reference
// counted; a tree's concatenated token text reproduces its source exactly,
// including whitespace and malformed input, which is what makes the tree
// "lossless".
//
// This package implements only the core: compact element storage, the
// interning Builder, and the query surface (child iteration, positional
// lookup, structural equality, traversal). It deliberately does not track
// parents, does not attribute meaning to kinds, and does not parse; those
// concerns belong to callers layered on top.
package green
