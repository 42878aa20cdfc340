// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractBitsMSBFirst(t *testing.T) {
	data := []byte{0b10110100, 0b00000001}

	require.Equal(t, 0b1011, extractBits(data, 0, 4))
	require.Equal(t, 0b0100, extractBits(data, 4, 4))
	require.Equal(t, 1, extractBits(data, 15, 1))
	require.Equal(t, 0b10110100, extractBits(data, 0, 8))
}

func TestHashStateNextAdvancesDepth(t *testing.T) {
	hs := newHashState([]byte("aai"), 8)
	require.Equal(t, uint(0), hs.depth)

	idx, err := hs.next()
	require.NoError(t, err)
	require.GreaterOrEqual(t, idx, 0)
	require.Less(t, idx, 256)
	require.Equal(t, uint(1), hs.depth)
}

func TestHashStateExhaustionAtBitWidth8(t *testing.T) {
	hs := newHashState([]byte("k"), 8)
	for i := 0; i < 32; i++ {
		require.False(t, hs.exhausted(), "depth %d", i)
		_, err := hs.next()
		require.NoError(t, err)
	}
	require.True(t, hs.exhausted())
	_, err := hs.next()
	require.ErrorIs(t, err, ErrMaxDepth)
}

func TestHashStateExhaustionAtBitWidth5(t *testing.T) {
	hs := newHashState([]byte("k"), 5)
	for i := 0; i < 51; i++ {
		require.False(t, hs.exhausted(), "depth %d", i)
		_, err := hs.next()
		require.NoError(t, err)
	}
	require.True(t, hs.exhausted())
	_, err := hs.next()
	require.ErrorIs(t, err, ErrMaxDepth)
}

func TestNewHashStateAtResumesFromDepth(t *testing.T) {
	hs := newHashStateAt([]byte("k"), 8, 10)
	require.Equal(t, uint(10), hs.depth)

	fresh := newHashState([]byte("k"), 8)
	require.Equal(t, fresh.digest, hs.digest)
}

func TestHashStateDeterministic(t *testing.T) {
	a := newHashState([]byte("repeatable"), 8)
	b := newHashState([]byte("repeatable"), 8)
	require.Equal(t, a.digest, b.digest)

	idxA, err := a.next()
	require.NoError(t, err)
	idxB, err := b.next()
	require.NoError(t, err)
	require.Equal(t, idxA, idxB)
}

func TestHashStateDifferentKeysDifferentDigests(t *testing.T) {
	a := newHashState([]byte("key-one"), 8)
	b := newHashState([]byte("key-two"), 8)
	require.NotEqual(t, a.digest, b.digest)
}

// TestStubbedHashForcesCollision exercises the collision path deterministically
// by substituting hashKey with a constant digest, rather than searching for a
// real sha256 preimage collision.
func TestStubbedHashForcesCollision(t *testing.T) {
	var fixed [32]byte
	fixed[0] = 0xff

	orig := hashKey
	hashKey = func([]byte) [32]byte { return fixed }
	defer func() { hashKey = orig }()

	a := newHashState([]byte("alpha"), 8)
	b := newHashState([]byte("beta"), 8)
	require.Equal(t, a.digest, b.digest)

	for i := 0; i < 32; i++ {
		idxA, err := a.next()
		require.NoError(t, err)
		idxB, err := b.next()
		require.NoError(t, err)
		require.Equal(t, idxA, idxB)
	}
}
