// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamt

import (
	"encoding/hex"
	"testing"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"
)

func TestMarshalEmptyNode(t *testing.T) {
	n := newNode()
	data, err := n.MarshalCBOR()
	require.NoError(t, err)
	require.Equal(t, "824080", hex.EncodeToString(data))
}

func TestMarshalLeafAtSlot17(t *testing.T) {
	n := newNode()
	require.NoError(t, insertPointer(n, 17, leafPointer(Entry{
		Key:   []byte("a"),
		Value: mustEncode(t, "b"),
	})))

	data, err := n.MarshalCBOR()
	require.NoError(t, err)
	require.Equal(t, "824302000081a16131818241616162", hex.EncodeToString(data))
}

func TestMarshalLinkAtSlot17(t *testing.T) {
	digest, err := mh.Encode([]byte{0x00, 0x00}, mh.IDENTITY)
	require.NoError(t, err)
	c := cid.NewCidV1(0x00, digest)

	n := newNode()
	require.NoError(t, insertPointer(n, 17, unresolvedLinkPointer(c)))

	data, err := n.MarshalCBOR()
	require.NoError(t, err)
	require.Equal(t, "824302000081a16130d82a4700010000020000", hex.EncodeToString(data))
}

func TestBitmapBytesForCombinedSlots(t *testing.T) {
	n := newNode()
	digest, err := mh.Encode([]byte{0x01}, mh.IDENTITY)
	require.NoError(t, err)
	c := cid.NewCidV1(0x00, digest)

	require.NoError(t, insertPointer(n, 2, unresolvedLinkPointer(c)))
	require.NoError(t, insertPointer(n, 17, unresolvedLinkPointer(c)))

	require.Equal(t, []byte{0x02, 0x00, 0x04}, n.Bitmap.Bytes())
}

func TestMarshalResolvedLinkFails(t *testing.T) {
	n := newNode()
	require.NoError(t, insertPointer(n, 0, resolvedLinkPointer(newNode())))

	_, err := n.MarshalCBOR()
	require.ErrorIs(t, err, ErrExpectedCID)
}

func TestRoundTripUnresolvedOnly(t *testing.T) {
	digest, err := mh.Encode([]byte{0x01, 0x02, 0x03}, mh.IDENTITY)
	require.NoError(t, err)
	c := cid.NewCidV1(0x00, digest)

	n := newNode()
	require.NoError(t, insertPointer(n, 1, leafPointer(Entry{Key: []byte("k"), Value: mustEncode(t, "v")})))
	require.NoError(t, insertPointer(n, 9, unresolvedLinkPointer(c)))

	data, err := n.MarshalCBOR()
	require.NoError(t, err)

	var decoded Node
	require.NoError(t, decoded.UnmarshalCBOR(data))

	require.Equal(t, n.Bitmap, decoded.Bitmap)
	require.Len(t, decoded.Pointers, 2)
	require.True(t, decoded.Pointers[0].IsLeaf())
	require.Equal(t, []byte("k"), decoded.Pointers[0].Entries[0].Key)
	require.True(t, decoded.Pointers[1].IsLink())
	require.False(t, decoded.Pointers[1].IsResolved())

	reencoded, err := decoded.MarshalCBOR()
	require.NoError(t, err)
	require.Equal(t, data, reencoded)
}

func TestUnmarshalRejectsBitmapPointerMismatch(t *testing.T) {
	// bitmap has bit 0 set (popcount 1) but the pointer array is empty.
	raw, err := hex.DecodeString("82410180")
	require.NoError(t, err)

	var decoded Node
	err = decoded.UnmarshalCBOR(raw)
	require.ErrorIs(t, err, ErrMalformedNode)
}

func mustEncode(t *testing.T, s string) []byte {
	t.Helper()
	data, err := nodeEncMode.Marshal(s)
	require.NoError(t, err)
	return data
}
