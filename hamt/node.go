// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamt

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"
	"slices"

	"github.com/ipfs/go-cid"
)

// kLeafMax is the maximum number of entries a Leaf may hold before it is
// split into a shard, fixed at compile time for wire compatibility.
const kLeafMax = 3

// Entry is a single (Key, Value) pair held by a Leaf. Value is already in
// its canonical on-wire form; the engine never re-encodes it.
type Entry struct {
	Key   []byte
	Value []byte
}

// Node is a trie node: a bitmap of occupied slots and the packed sequence
// of Pointers, one per set bit, ordered by ascending slot index.
type Node struct {
	Bitmap   *big.Int
	Pointers []Pointer
}

func newNode() *Node {
	return &Node{Bitmap: new(big.Int)}
}

type pointerKind uint8

const (
	pointerLeaf pointerKind = iota
	pointerLink
)

// Pointer is the sum type described by the data model: either a Leaf bucket
// or a Link to a child subtree. A Link is Resolved when resolved != nil (an
// owned in-memory Node) and Unresolved otherwise (only a CID is known).
type Pointer struct {
	kind pointerKind

	Entries []Entry

	resolved *Node
	cid      cid.Cid
	hasCID   bool
}

func leafPointer(entries ...Entry) Pointer {
	return Pointer{kind: pointerLeaf, Entries: entries}
}

func resolvedLinkPointer(n *Node) Pointer {
	return Pointer{kind: pointerLink, resolved: n}
}

func unresolvedLinkPointer(c cid.Cid) Pointer {
	return Pointer{kind: pointerLink, cid: c, hasCID: true}
}

// IsLeaf reports whether p is a Leaf bucket.
func (p *Pointer) IsLeaf() bool { return p.kind == pointerLeaf }

// IsLink reports whether p is a Link (Resolved or Unresolved).
func (p *Pointer) IsLink() bool { return p.kind == pointerLink }

// IsResolved reports whether p is a Link currently holding an in-memory
// child Node.
func (p *Pointer) IsResolved() bool { return p.kind == pointerLink && p.resolved != nil }

// slotSet tests bit i of the node's bitmap.
func slotSet(n *Node, i int) bool {
	return n.Bitmap.Bit(i) == 1
}

// posOf returns the number of set bits below slot i — the index into
// n.Pointers that slot i occupies, whether or not it is currently set.
func posOf(n *Node, i int) int {
	pos := 0
	for b := 0; b < i; b++ {
		pos += int(n.Bitmap.Bit(b))
	}
	return pos
}

// insertPointer sets bit i and inserts p at posOf(i). It fails if the bit
// is already set.
func insertPointer(n *Node, i int, p Pointer) error {
	if slotSet(n, i) {
		return fmt.Errorf("hamt: slot %d already occupied", i)
	}
	pos := posOf(n, i)
	n.Bitmap.SetBit(n.Bitmap, i, 1)
	n.Pointers = slices.Insert(n.Pointers, pos, p)
	return nil
}

// removePointer clears bit i and removes its pointer. It fails if the bit
// is not set.
func removePointer(n *Node, i int) error {
	if !slotSet(n, i) {
		return fmt.Errorf("hamt: slot %d not occupied", i)
	}
	pos := posOf(n, i)
	n.Bitmap.SetBit(n.Bitmap, i, 0)
	n.Pointers = slices.Delete(n.Pointers, pos, pos+1)
	return nil
}

// replacePointer replaces the pointer occupying slot i in place. It fails
// if the bit is not set.
func replacePointer(n *Node, i int, p Pointer) error {
	if !slotSet(n, i) {
		return fmt.Errorf("hamt: slot %d not occupied", i)
	}
	n.Pointers[posOf(n, i)] = p
	return nil
}

// sortEntries sorts entries ascending by key bytes, the order required on
// the wire and by visit().
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key, entries[j].Key) < 0
	})
}

// collectAllLeafEntries returns every entry reachable from n if n contains
// only Leaves (no nested Links), in Pointer order. ok is false if n has any
// Link pointer.
func collectAllLeafEntries(n *Node) (entries []Entry, ok bool) {
	for i := range n.Pointers {
		p := &n.Pointers[i]
		if !p.IsLeaf() {
			return nil, false
		}
		entries = append(entries, p.Entries...)
	}
	return entries, true
}

// tryCollapse evaluates the single-level collapse rule for a child Link
// target: if it contains only Leaves and at most kLeafMax entries in total,
// it returns the single merged, sorted Leaf that should replace the Link.
// A Link whose child has zero total entries is reported as uncollapsible
// here; the caller removes the pointer entirely in that case instead of
// replacing it with an empty Leaf (which would violate the Leaf invariant).
func tryCollapse(child *Node) (Pointer, bool) {
	entries, ok := collectAllLeafEntries(child)
	if !ok || len(entries) == 0 || len(entries) > kLeafMax {
		return Pointer{}, false
	}
	sortEntries(entries)
	return leafPointer(entries...), true
}
