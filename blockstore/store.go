// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package blockstore provides CAS (content-addressable storage)
// implementations of hamt.BlockStore: a map from CID to the bytes of a
// previously flushed block. Mirrors the dual in-memory/production-backend
// split the teacher's mmr package uses for its node store.
package blockstore

import (
	"context"
	"errors"

	"github.com/ipfs/go-cid"
)

// ErrBlockNotFound is returned by Get when no block is stored under the
// given CID.
var ErrBlockNotFound = errors.New("blockstore: block not found")

// Store is the CAS contract consumed by hamt.HAMT. Put must be idempotent:
// putting an existing CID with equal bytes succeeds without error.
type Store interface {
	Get(ctx context.Context, c cid.Cid) ([]byte, error)
	Put(ctx context.Context, c cid.Cid, data []byte) error
	Has(ctx context.Context, c cid.Cid) (bool, error)
}
