// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package oracle is a differential-testing helper: a second, independent
// in-memory trie used only by hamt's tests to cross-check the logical
// key-set a sequence of Set/Remove operations should produce, without
// sharing any code with the bit-exact CAS-backed engine under test. It is
// grounded on the teacher's xxhash-based go/internal/hamt/hamt.go trie,
// reduced to a node that holds one key or one child per slot — the tree
// shape itself is irrelevant here, only the set of live keys is.
package oracle

import (
	"bytes"
	"math/bits"
	"slices"

	"github.com/cespare/xxhash/v2"
)

const (
	bitsPerStep = 5
	maxDepth    = (64 + bitsPerStep - 1) / bitsPerStep
)

type hashState struct {
	originalKey []byte
	hash        uint64
	consumed    uint8
	seed        uint64
}

func newHashState(key []byte) *hashState {
	return &hashState{originalKey: key, hash: hashKeyWithSeed(key, 0)}
}

func (hs *hashState) next() uint32 {
	if hs.consumed+bitsPerStep > maxDepth*bitsPerStep {
		hs.seed++
		hs.hash = hashKeyWithSeed(hs.originalKey, hs.seed)
		hs.consumed = 0
	}
	shift := hs.consumed
	mask := uint64((1 << bitsPerStep) - 1)
	chunk := (hs.hash >> shift) & mask
	hs.consumed += bitsPerStep
	return uint32(chunk)
}

func hashKeyWithSeed(key []byte, seed uint64) uint64 {
	h := xxhash.NewWithSeed(seed)
	h.Write(key)
	return h.Sum64()
}

// Model is an independent key-value trie used only as a differential-
// testing oracle against hamt.HAMT: after a sequence of Set/Remove calls on
// both, Model.Keys() should match what hamt.HAMT.Visit() produces.
type Model struct {
	root *node
	size int
}

type node struct {
	bitmap  uint32
	entries []entry
}

type entry struct {
	key   []byte
	value []byte
	child *node
}

// New returns an empty Model.
func New() *Model {
	return &Model{root: &node{}}
}

// Set inserts or updates key.
func (m *Model) Set(key, value []byte) {
	inserted := m.root.insert(key, value, newHashState(key))
	if inserted {
		m.size++
	}
}

func (n *node) insert(key, value []byte, hs *hashState) bool {
	if hs.consumed >= maxDepth*bitsPerStep {
		return n.insertFallback(key, value)
	}

	idx := hs.next()
	pos := bits.OnesCount32(n.bitmap & ((1 << idx) - 1))

	if n.bitmap&(1<<idx) == 0 {
		n.bitmap |= 1 << idx
		n.entries = slices.Insert(n.entries, pos, entry{key: key, value: value})
		return true
	}

	e := &n.entries[pos]
	if e.child == nil {
		if bytes.Equal(e.key, key) {
			e.value = value
			return false
		}
		branch := &node{}
		branch.insert(e.key, e.value, &hashState{originalKey: e.key, hash: hashKeyWithSeed(e.key, hs.seed), consumed: hs.consumed, seed: hs.seed})
		branch.insert(key, value, &hashState{originalKey: key, hash: hashKeyWithSeed(key, hs.seed), consumed: hs.consumed, seed: hs.seed})
		e.child = branch
		e.key, e.value = nil, nil
		return true
	}
	return e.child.insert(key, value, hs)
}

func (n *node) insertFallback(key, value []byte) bool {
	for i, e := range n.entries {
		if bytes.Equal(e.key, key) {
			n.entries[i].value = value
			return false
		}
	}
	n.entries = append(n.entries, entry{key: key, value: value})
	return true
}

// Get returns the value stored under key, if present.
func (m *Model) Get(key []byte) ([]byte, bool) {
	hs := newHashState(key)
	n := m.root
	for {
		if hs.consumed >= maxDepth*bitsPerStep {
			return n.findFallback(key)
		}
		idx := hs.next()
		if n.bitmap&(1<<idx) == 0 {
			return nil, false
		}
		pos := bits.OnesCount32(n.bitmap & ((1 << idx) - 1))
		e := &n.entries[pos]
		if e.child == nil {
			if bytes.Equal(e.key, key) {
				return e.value, true
			}
			return nil, false
		}
		n = e.child
	}
}

func (n *node) findFallback(key []byte) ([]byte, bool) {
	for _, e := range n.entries {
		if e.child == nil {
			if bytes.Equal(e.key, key) {
				return e.value, true
			}
			continue
		}
		if v, ok := e.child.findFallback(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Remove deletes key, if present.
func (m *Model) Remove(key []byte) bool {
	deleted := m.root.delete(key, newHashState(key))
	if deleted {
		m.size--
	}
	return deleted
}

func (n *node) delete(key []byte, hs *hashState) bool {
	if hs.consumed >= maxDepth*bitsPerStep {
		return n.deleteFallback(key)
	}
	idx := hs.next()
	if n.bitmap&(1<<idx) == 0 {
		return false
	}
	pos := bits.OnesCount32(n.bitmap & ((1 << idx) - 1))
	e := &n.entries[pos]

	if e.child == nil {
		if !bytes.Equal(e.key, key) {
			return false
		}
		n.bitmap &^= 1 << idx
		n.entries = slices.Delete(n.entries, pos, pos+1)
		return true
	}

	if !e.child.delete(key, hs) {
		return false
	}
	if len(e.child.entries) == 0 {
		n.bitmap &^= 1 << idx
		n.entries = slices.Delete(n.entries, pos, pos+1)
	} else if len(e.child.entries) == 1 && e.child.entries[0].child == nil {
		collapsed := e.child.entries[0]
		e.key, e.value, e.child = collapsed.key, collapsed.value, nil
	}
	return true
}

func (n *node) deleteFallback(key []byte) bool {
	for i, e := range n.entries {
		if e.child == nil && bytes.Equal(e.key, key) {
			n.entries = slices.Delete(n.entries, i, i+1)
			return true
		}
	}
	return false
}

// Size returns the number of live keys.
func (m *Model) Size() int {
	return m.size
}

// Keys returns every live key, in the model's own traversal order (not
// comparable to hamt.HAMT's node-layout order; use a set comparison).
func (m *Model) Keys() [][]byte {
	var out [][]byte
	m.root.collect(&out)
	return out
}

func (n *node) collect(out *[][]byte) {
	for _, e := range n.entries {
		if e.child == nil {
			*out = append(*out, e.key)
			continue
		}
		e.child.collect(out)
	}
}
