// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamt

import "crypto/sha256"

// digestBits is the width, in bits, of the hash used for slot derivation.
const digestBits = sha256.Size * 8

// hashKey is the digest function used for slot derivation. It is a package
// variable rather than a direct call so tests can substitute a digest that
// collides on purpose, to exercise the collision-overflow leaf path without
// needing a real sha256 preimage search.
var hashKey = sha256.Sum256

// hashState extracts successive bitWidth-sized slot indices from a key's
// digest, most-significant-bit first, one trie level at a time. It mirrors
// the bit-extraction technique of the teacher's xxhash-based hashState, but
// walks a fixed 256-bit digest instead of reseeding a 64-bit one, since the
// digest must exhaust at a well-defined depth for the collision-overflow
// leaf rule to apply.
type hashState struct {
	digest   [sha256.Size]byte
	bitWidth uint
	depth    uint
}

func newHashState(key []byte, bitWidth int) *hashState {
	return &hashState{
		digest:   hashKey(key),
		bitWidth: uint(bitWidth),
	}
}

// newHashStateAt builds a hashState for key already advanced to depth d,
// used when redistributing a leaf's entries into a freshly created shard.
func newHashStateAt(key []byte, bitWidth int, depth uint) *hashState {
	hs := newHashState(key, bitWidth)
	hs.depth = depth
	return hs
}

// exhausted reports whether the digest has no more bits to extract at the
// current depth.
func (hs *hashState) exhausted() bool {
	return (hs.depth+1)*hs.bitWidth > digestBits
}

// next returns the next bitWidth-bit slot index and advances the depth, or
// ErrMaxDepth if the digest is exhausted.
func (hs *hashState) next() (int, error) {
	if hs.exhausted() {
		return 0, ErrMaxDepth
	}
	idx := extractBits(hs.digest[:], hs.depth*hs.bitWidth, hs.bitWidth)
	hs.depth++
	return idx, nil
}

// extractBits reads width bits from data starting at bitOffset, most
// significant bit first, and returns them as an integer.
func extractBits(data []byte, bitOffset, width uint) int {
	var v int
	for i := uint(0); i < width; i++ {
		bitPos := bitOffset + i
		byteIdx := bitPos / 8
		bitInByte := 7 - (bitPos % 8)
		bit := (data[byteIdx] >> bitInByte) & 1
		v = (v << 1) | int(bit)
	}
	return v
}
