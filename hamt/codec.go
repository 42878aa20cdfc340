// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamt

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
)

// nodeEncMode and nodeDecMode implement the exact wire shape required for
// CID compatibility with the reference implementation:
//
//	Node    ::= [ Bitmap, Pointers ]
//	Pointer ::= {"0": Link} | {"1": [Entry, ...]}
//	Entry   ::= [ Key, Value ]
//
// Bitmap is the trimmed big-endian encoding of its integer value (not a
// fixed ceil(2^w/8)-byte buffer — see SPEC_FULL.md §3). Value is spliced
// into the Entry tuple as already-encoded CBOR, never re-wrapped in a byte
// string. Link is a CBOR tag 42 wrapping a byte string whose first byte is
// the 0x00 "identity" multibase prefix followed by the raw CID bytes, the
// standard IPLD CBOR Link convention.
var (
	nodeEncMode = mustEncMode()
	nodeDecMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}

func mustDecMode() cbor.DecMode {
	mode, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	return mode
}

type wireNode struct {
	_        struct{} `cbor:",toarray"`
	Bitmap   []byte
	Pointers []cbor.RawMessage
}

type wireEntry struct {
	_     struct{} `cbor:",toarray"`
	Key   []byte
	Value cbor.RawMessage
}

// MarshalCBOR encodes n canonically. It fails with ErrExpectedCID if n
// contains any Resolved Link; flush must replace those with Unresolved CID
// links first.
func (n *Node) MarshalCBOR() ([]byte, error) {
	bitmap := n.Bitmap
	if bitmap == nil {
		bitmap = new(big.Int)
	}

	pointers := make([]cbor.RawMessage, len(n.Pointers))
	for i, p := range n.Pointers {
		raw, err := marshalPointer(p)
		if err != nil {
			return nil, err
		}
		pointers[i] = raw
	}

	return nodeEncMode.Marshal(wireNode{
		Bitmap:   bitmap.Bytes(),
		Pointers: pointers,
	})
}

func marshalPointer(p Pointer) (cbor.RawMessage, error) {
	switch {
	case p.IsLeaf():
		if len(p.Entries) == 0 {
			return nil, fmt.Errorf("%w: leaf pointer has no entries", ErrMalformedNode)
		}
		entries := make([]wireEntry, len(p.Entries))
		for i, e := range p.Entries {
			entries[i] = wireEntry{Key: e.Key, Value: cbor.RawMessage(e.Value)}
		}
		body, err := nodeEncMode.Marshal(entries)
		if err != nil {
			return nil, err
		}
		return nodeEncMode.Marshal(map[string]cbor.RawMessage{"1": body})

	case p.IsLink():
		if p.resolved != nil {
			return nil, ErrExpectedCID
		}
		if !p.hasCID {
			return nil, fmt.Errorf("%w: link pointer missing a cid", ErrMalformedNode)
		}
		linkBody, err := cidToRawMessage(p.cid)
		if err != nil {
			return nil, err
		}
		return nodeEncMode.Marshal(map[string]cbor.RawMessage{"0": linkBody})

	default:
		return nil, fmt.Errorf("%w: pointer has no kind", ErrMalformedNode)
	}
}

func cidToRawMessage(c cid.Cid) (cbor.RawMessage, error) {
	raw := append([]byte{0x00}, c.Bytes()...)
	return nodeEncMode.Marshal(cbor.Tag{Number: 42, Content: raw})
}

// UnmarshalCBOR decodes data into n, validating the bitmap/pointer-count
// invariant and rejecting malformed shapes with ErrDecodeError or
// ErrMalformedNode.
func (n *Node) UnmarshalCBOR(data []byte) error {
	var wn wireNode
	if err := nodeDecMode.Unmarshal(data, &wn); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeError, err)
	}

	pointers := make([]Pointer, len(wn.Pointers))
	for i, raw := range wn.Pointers {
		p, err := unmarshalPointer(raw)
		if err != nil {
			return err
		}
		pointers[i] = p
	}

	bitmap := new(big.Int).SetBytes(wn.Bitmap)
	if popcount(bitmap) != len(pointers) {
		return fmt.Errorf("%w: popcount(bitmap)=%d but %d pointers", ErrMalformedNode, popcount(bitmap), len(pointers))
	}

	n.Bitmap = bitmap
	n.Pointers = pointers
	return nil
}

func popcount(bitmap *big.Int) int {
	count := 0
	for _, w := range bitmap.Bits() {
		count += bits.OnesCount(uint(w))
	}
	return count
}

func unmarshalPointer(raw cbor.RawMessage) (Pointer, error) {
	var m map[string]cbor.RawMessage
	if err := nodeDecMode.Unmarshal(raw, &m); err != nil {
		return Pointer{}, fmt.Errorf("%w: %v", ErrDecodeError, err)
	}
	if len(m) != 1 {
		return Pointer{}, fmt.Errorf("%w: pointer map has %d keys, want 1", ErrMalformedNode, len(m))
	}

	if leafRaw, ok := m["1"]; ok {
		var entries []wireEntry
		if err := nodeDecMode.Unmarshal(leafRaw, &entries); err != nil {
			return Pointer{}, fmt.Errorf("%w: %v", ErrDecodeError, err)
		}
		if len(entries) == 0 {
			return Pointer{}, fmt.Errorf("%w: leaf pointer has no entries", ErrMalformedNode)
		}
		out := make([]Entry, len(entries))
		for i, we := range entries {
			out[i] = Entry{Key: we.Key, Value: []byte(we.Value)}
		}
		return leafPointer(out...), nil
	}

	if linkRaw, ok := m["0"]; ok {
		var tag cbor.Tag
		if err := nodeDecMode.Unmarshal(linkRaw, &tag); err != nil {
			return Pointer{}, fmt.Errorf("%w: %v", ErrDecodeError, err)
		}
		if tag.Number != 42 {
			return Pointer{}, fmt.Errorf("%w: link tag %d, want 42", ErrMalformedNode, tag.Number)
		}
		content, ok := tag.Content.([]byte)
		if !ok || len(content) == 0 || content[0] != 0x00 {
			return Pointer{}, fmt.Errorf("%w: malformed link content", ErrMalformedNode)
		}
		c, err := cid.Cast(content[1:])
		if err != nil {
			return Pointer{}, fmt.Errorf("%w: %v", ErrDecodeError, err)
		}
		return unresolvedLinkPointer(c), nil
	}

	return Pointer{}, fmt.Errorf("%w: pointer map has neither \"0\" nor \"1\" key", ErrMalformedNode)
}
