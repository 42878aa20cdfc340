// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamt

import "errors"

// Sentinel errors returned by HAMT operations. Store failures are not
// wrapped in one of these; they are surfaced from the BlockStore unchanged.
var (
	// ErrNotFound is returned by Get and Remove when the key is absent.
	// Contains reports an absent key as false with a nil error instead.
	ErrNotFound = errors.New("hamt: key not found")

	// ErrMaxDepth is returned if the hash digest is exhausted without ever
	// landing on a leaf. It should never surface unless the hash function
	// backing slot derivation is swapped for one with a shorter digest.
	ErrMaxDepth = errors.New("hamt: hash digest exhausted before reaching a leaf")

	// ErrExpectedCID is returned when encoding a Node that still holds a
	// Resolved Link. Flush must walk the tree before a Node is serialised.
	ErrExpectedCID = errors.New("hamt: cannot encode a node with an unflushed link")

	// ErrDecodeError is returned when bytes fetched from the store cannot be
	// parsed as a Node.
	ErrDecodeError = errors.New("hamt: block is not a valid node")

	// ErrMalformedNode is returned when a decoded Node violates a structural
	// invariant (e.g. popcount(bitmap) != len(pointers)).
	ErrMalformedNode = errors.New("hamt: decoded node violates a structural invariant")
)
