// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package hamt implements a content-addressed Hash-Array-Mapped Trie: an
// associative array whose nodes are lazily materialised from, and flushed
// to, an external content-addressed block store keyed by CID. The wire
// encoding is bit-exact with the Filecoin HAMT reference implementation.
package hamt

import (
	"bytes"
	"context"
	"errors"

	"github.com/ipfs/go-cid"
)

// BlockStore is the CAS collaborator the engine consumes: a map from CID to
// the bytes of a previously flushed Node. Implementations live in the
// blockstore package; Put must be idempotent for an existing CID.
type BlockStore interface {
	Get(ctx context.Context, c cid.Cid) ([]byte, error)
	Put(ctx context.Context, c cid.Cid, data []byte) error
	Has(ctx context.Context, c cid.Cid) (bool, error)
}

// VisitFunc is called once per (key, value) pair during Visit, in
// node-layout order. Returning an error aborts the traversal; that error is
// returned from Visit unchanged.
type VisitFunc func(key, value []byte) error

// HAMT is a single HAMT instance: an in-memory root (possibly still
// Unresolved) bound to a block store and a fixed bit width. A HAMT is not
// safe for concurrent use; see SPEC_FULL.md §5.
type HAMT struct {
	store    BlockStore
	bitWidth int

	root *Node // nil until resolved (see resolveRoot)

	rootCID    cid.Cid
	hasRootCID bool
}

// New creates a fresh HAMT with an empty root.
func New(store BlockStore, bitWidth int) (*HAMT, error) {
	cfg := Config{BitWidth: bitWidth}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &HAMT{store: store, bitWidth: bitWidth, root: newNode()}, nil
}

// Load creates a HAMT whose root is an Unresolved Link to root; the first
// operation that touches the tree materialises it from store.
func Load(store BlockStore, root cid.Cid, bitWidth int) (*HAMT, error) {
	cfg := Config{BitWidth: bitWidth}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &HAMT{store: store, bitWidth: bitWidth, rootCID: root, hasRootCID: true}, nil
}

func (h *HAMT) resolveRoot(ctx context.Context) (*Node, error) {
	if h.root != nil {
		return h.root, nil
	}
	n, err := h.fetchNode(ctx, h.rootCID)
	if err != nil {
		return nil, err
	}
	h.root = n
	return n, nil
}

func (h *HAMT) fetchNode(ctx context.Context, c cid.Cid) (*Node, error) {
	data, err := h.store.Get(ctx, c)
	if err != nil {
		return nil, err
	}
	n := newNode()
	if err := n.UnmarshalCBOR(data); err != nil {
		return nil, err
	}
	return n, nil
}

// resolve is the single point of I/O: it returns p's already-owned child if
// Resolved, or reads, decodes and installs it if Unresolved.
func (h *HAMT) resolve(ctx context.Context, p *Pointer) (*Node, error) {
	if p.resolved != nil {
		return p.resolved, nil
	}
	n, err := h.fetchNode(ctx, p.cid)
	if err != nil {
		return nil, err
	}
	p.resolved = n
	return n, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (h *HAMT) Get(ctx context.Context, key []byte) ([]byte, error) {
	node, err := h.resolveRoot(ctx)
	if err != nil {
		return nil, err
	}
	hs := newHashState(key, h.bitWidth)
	for {
		idx, err := hs.next()
		if err != nil {
			return nil, err
		}
		if !slotSet(node, idx) {
			return nil, ErrNotFound
		}
		p := &node.Pointers[posOf(node, idx)]
		if p.IsLeaf() {
			for _, e := range p.Entries {
				if bytes.Equal(e.Key, key) {
					return e.Value, nil
				}
			}
			return nil, ErrNotFound
		}
		child, err := h.resolve(ctx, p)
		if err != nil {
			return nil, err
		}
		node = child
	}
}

// Contains reports whether key is present.
func (h *HAMT) Contains(ctx context.Context, key []byte) (bool, error) {
	_, err := h.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

// Set inserts or updates the value stored under key.
func (h *HAMT) Set(ctx context.Context, key, value []byte) error {
	root, err := h.resolveRoot(ctx)
	if err != nil {
		return err
	}
	return h.setAt(ctx, root, newHashState(key, h.bitWidth), key, value)
}

func (h *HAMT) setAt(ctx context.Context, node *Node, hs *hashState, key, value []byte) error {
	idx, err := hs.next()
	if err != nil {
		return err
	}

	if !slotSet(node, idx) {
		return insertPointer(node, idx, leafPointer(Entry{Key: key, Value: value}))
	}

	pos := posOf(node, idx)
	p := &node.Pointers[pos]

	if p.IsLink() {
		child, err := h.resolve(ctx, p)
		if err != nil {
			return err
		}
		return h.setAt(ctx, child, hs, key, value)
	}

	for i, e := range p.Entries {
		if bytes.Equal(e.Key, key) {
			p.Entries[i].Value = value
			return nil
		}
	}

	if len(p.Entries) < kLeafMax || hs.exhausted() {
		entries := append(append([]Entry{}, p.Entries...), Entry{Key: key, Value: value})
		sortEntries(entries)
		p.Entries = entries
		return nil
	}

	// Overflow with digest remaining: split into a shard and redistribute.
	child := newNode()
	all := append(append([]Entry{}, p.Entries...), Entry{Key: key, Value: value})
	for _, e := range all {
		childHS := newHashStateAt(e.Key, h.bitWidth, hs.depth)
		if err := h.setAt(ctx, child, childHS, e.Key, e.Value); err != nil {
			return err
		}
	}
	*p = resolvedLinkPointer(child)
	return nil
}

// Remove deletes key. It returns ErrNotFound if key is absent.
func (h *HAMT) Remove(ctx context.Context, key []byte) error {
	root, err := h.resolveRoot(ctx)
	if err != nil {
		return err
	}
	_, err = h.removeAt(ctx, root, newHashState(key, h.bitWidth), key)
	return err
}

func (h *HAMT) removeAt(ctx context.Context, node *Node, hs *hashState, key []byte) (bool, error) {
	idx, err := hs.next()
	if err != nil {
		return false, err
	}
	if !slotSet(node, idx) {
		return false, ErrNotFound
	}

	pos := posOf(node, idx)
	p := &node.Pointers[pos]

	if p.IsLeaf() {
		found := -1
		for i, e := range p.Entries {
			if bytes.Equal(e.Key, key) {
				found = i
				break
			}
		}
		if found < 0 {
			return false, ErrNotFound
		}
		if len(p.Entries) == 1 {
			return true, removePointer(node, idx)
		}
		remaining := make([]Entry, 0, len(p.Entries)-1)
		remaining = append(remaining, p.Entries[:found]...)
		remaining = append(remaining, p.Entries[found+1:]...)
		p.Entries = remaining
		return true, nil
	}

	child, err := h.resolve(ctx, p)
	if err != nil {
		return false, err
	}
	removed, err := h.removeAt(ctx, child, hs, key)
	if err != nil || !removed {
		return removed, err
	}

	if merged, ok := tryCollapse(child); ok {
		*p = merged
	} else if len(child.Pointers) == 0 {
		if err := removePointer(node, idx); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Flush recursively serialises every Resolved subtree, writes each encoded
// Node to the store under its computed CID, and replaces Resolved links
// with Unresolved ones. It returns the root's CID. Flushing an unmodified
// tree recomputes the same CID without rewriting blocks already present.
func (h *HAMT) Flush(ctx context.Context) (cid.Cid, error) {
	root, err := h.resolveRoot(ctx)
	if err != nil {
		return cid.Undef, err
	}
	c, err := h.flushNode(ctx, root)
	if err != nil {
		return cid.Undef, err
	}
	h.rootCID = c
	h.hasRootCID = true
	return c, nil
}

func (h *HAMT) flushNode(ctx context.Context, n *Node) (cid.Cid, error) {
	for i := range n.Pointers {
		p := &n.Pointers[i]
		if p.IsLink() && p.resolved != nil {
			childCID, err := h.flushNode(ctx, p.resolved)
			if err != nil {
				return cid.Undef, err
			}
			*p = unresolvedLinkPointer(childCID)
		}
	}

	data, err := n.MarshalCBOR()
	if err != nil {
		return cid.Undef, err
	}
	c, err := cidForBytes(data)
	if err != nil {
		return cid.Undef, err
	}

	has, err := h.store.Has(ctx, c)
	if err != nil {
		return cid.Undef, err
	}
	if !has {
		if err := h.store.Put(ctx, c, data); err != nil {
			return cid.Undef, err
		}
	}
	return c, nil
}

// Visit walks every (key, value) pair in node-layout order: ascending
// bitmap bit, and within a Leaf, ascending key. The first error returned by
// fn aborts the traversal and is returned unchanged.
func (h *HAMT) Visit(ctx context.Context, fn VisitFunc) error {
	root, err := h.resolveRoot(ctx)
	if err != nil {
		return err
	}
	return h.visitNode(ctx, root, fn)
}

func (h *HAMT) visitNode(ctx context.Context, n *Node, fn VisitFunc) error {
	for i := range n.Pointers {
		p := &n.Pointers[i]
		if p.IsLeaf() {
			for _, e := range p.Entries {
				if err := fn(e.Key, e.Value); err != nil {
					return err
				}
			}
			continue
		}
		child, err := h.resolve(ctx, p)
		if err != nil {
			return err
		}
		if err := h.visitNode(ctx, child, fn); err != nil {
			return err
		}
	}
	return nil
}

// RootCID returns the CID of the most recent Flush or, for a HAMT created by
// Load and not flushed since, the CID it was loaded from. ok is false only
// for a HAMT created by New that has never been flushed.
func (h *HAMT) RootCID() (cid.Cid, bool) {
	return h.rootCID, h.hasRootCID
}
