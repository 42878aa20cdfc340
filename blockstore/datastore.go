// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package blockstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-datastore"
)

// DatastoreStore adapts any ipfs/go-datastore Batching implementation
// (leveldb, badger, an in-memory map datastore, ...) into a Store keyed by
// CID, the same adaptation the teacher's cmd/hamtest Ingester performs over
// its dsTmp datastore.Batching field.
type DatastoreStore struct {
	ds datastore.Batching
}

// NewDatastoreStore wraps ds.
func NewDatastoreStore(ds datastore.Batching) *DatastoreStore {
	return &DatastoreStore{ds: ds}
}

func keyFor(c cid.Cid) datastore.Key {
	return datastore.NewKey(c.String())
}

// Get returns the bytes stored under c, or ErrBlockNotFound.
func (s *DatastoreStore) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	data, err := s.ds.Get(ctx, keyFor(c))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, fmt.Errorf("blockstore: datastore get: %w", err)
	}
	return data, nil
}

// Put stores data under c.
func (s *DatastoreStore) Put(ctx context.Context, c cid.Cid, data []byte) error {
	return s.ds.Put(ctx, keyFor(c), data)
}

// Has reports whether c is present.
func (s *DatastoreStore) Has(ctx context.Context, c cid.Cid) (bool, error) {
	return s.ds.Has(ctx, keyFor(c))
}
