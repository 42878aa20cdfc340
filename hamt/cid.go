// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamt

import (
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"golang.org/x/crypto/blake2b"
)

// blake2b256Code is the multihash code for the 32-byte blake2b-256 variant.
// go-multihash enumerates the blake2b family starting at BLAKE2B_MIN (the
// 8-bit variant); the 256-bit (32-byte) variant is 31 codes further on.
const blake2b256Code = mh.BLAKE2B_MIN + 31

// cidForBytes computes cid(bytes) = cidBuilder(multihash("blake2b-256",
// bytes), "dag-cbor"), the CID formula consumed by flush().
func cidForBytes(data []byte) (cid.Cid, error) {
	sum := blake2b.Sum256(data)
	digest, err := mh.Encode(sum[:], blake2b256Code)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.DagCBOR, digest), nil
}
