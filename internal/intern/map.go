// Package intern provides the open-addressing hash table that backs the
// green tree Builder's structural-deduplication caches.
//
// It plays the same role as a production arena-backed swiss table, but
// simplified to linear probing over a plain Go slice: the Builder's values
// are [weak.Pointer], not arena allocations, so there is no block-group
// SIMD layout to exploit, and a plain slice lets the table (and the dead
// tombstones inside it) be collected normally by the GC.
package intern

import "github.com/dolthub/maphash"

type state uint8

const (
	stateEmpty state = iota
	stateUsed
	stateTombstone
)

type slot[K comparable, V any] struct {
	key   K
	value V
	state state
}

// Map is a hash-consing table keyed by a maphash-hashed comparable key.
//
// A Map is not safe for concurrent use; callers share the same serialization
// discipline the Builder itself requires (§4.C: "the interner's bookkeeping
// is not" thread-safe).
type Map[K comparable, V any] struct {
	hasher maphash.Hasher[K]
	slots  []slot[K, V]
	used   int // occupied, including tombstones
	live   int // occupied, excluding tombstones
}

// New creates a Map with room for at least sizeHint live entries before its
// first growth.
func New[K comparable, V any](sizeHint int) *Map[K, V] {
	n := 8
	for n < sizeHint*2 {
		n *= 2
	}
	return &Map[K, V]{
		hasher: maphash.NewHasher[K](),
		slots:  make([]slot[K, V], n),
	}
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() int { return m.live }

// Get returns the value stored for key, if any.
func (m *Map[K, V]) Get(key K) (V, bool) {
	i, found := m.find(key)
	if !found {
		var zero V
		return zero, false
	}
	return m.slots[i].value, true
}

// Set installs or overwrites the entry for key.
func (m *Map[K, V]) Set(key K, value V) {
	if (m.used+1)*2 > len(m.slots) {
		m.grow()
	}
	if i, found := m.find(key); found {
		m.slots[i].value = value
		return
	}
	i := m.insertionPoint(key)
	if m.slots[i].state == stateEmpty {
		m.used++
	}
	m.live++
	m.slots[i] = slot[K, V]{key: key, value: value, state: stateUsed}
}

// RemoveIf deletes every entry for which pred returns true and reports how
// many were removed. It is the primitive behind the Builder's gc operation.
func (m *Map[K, V]) RemoveIf(pred func(K, V) bool) int {
	n := 0
	for i := range m.slots {
		if m.slots[i].state != stateUsed {
			continue
		}
		if !pred(m.slots[i].key, m.slots[i].value) {
			continue
		}
		var zk K
		var zv V
		m.slots[i].key, m.slots[i].value = zk, zv
		m.slots[i].state = stateTombstone
		m.live--
		n++
	}
	return n
}

func (m *Map[K, V]) find(key K) (int, bool) {
	if len(m.slots) == 0 {
		return 0, false
	}
	mask := uint64(len(m.slots) - 1)
	for i := m.hasher.Hash(key) & mask; ; i = (i + 1) & mask {
		switch m.slots[i].state {
		case stateEmpty:
			return 0, false
		case stateUsed:
			if m.slots[i].key == key {
				return int(i), true
			}
		}
	}
}

// insertionPoint finds the first empty or tombstoned slot along key's probe
// sequence. Caller must already know key is absent.
func (m *Map[K, V]) insertionPoint(key K) int {
	mask := uint64(len(m.slots) - 1)
	for i := m.hasher.Hash(key) & mask; ; i = (i + 1) & mask {
		if m.slots[i].state != stateUsed {
			return int(i)
		}
	}
}

func (m *Map[K, V]) grow() {
	old := m.slots
	m.slots = make([]slot[K, V], len(old)*2)
	m.used, m.live = 0, 0
	for _, s := range old {
		if s.state == stateUsed {
			m.Set(s.key, s.value)
		}
	}
}
