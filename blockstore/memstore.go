// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package blockstore

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
)

// MemStore is a Store backed by an in-memory map, guarded by a mutex. It is
// grounded on the teacher's mmr.InMemoryNodeStore, generalised from an
// append-only index-keyed slice to a CID-keyed map since the HAMT addresses
// blocks by content hash rather than by sequential position.
type MemStore struct {
	mu     sync.Mutex
	blocks map[cid.Cid][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{blocks: make(map[cid.Cid][]byte)}
}

// Get returns the bytes stored under c, or ErrBlockNotFound.
func (s *MemStore) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blocks[c]
	if !ok {
		return nil, ErrBlockNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores data under c. Putting an already-present CID is a no-op.
func (s *MemStore) Put(ctx context.Context, c cid.Cid, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[c]; ok {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blocks[c] = cp
	return nil
}

// Has reports whether c is present.
func (s *MemStore) Has(ctx context.Context, c cid.Cid) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blocks[c]
	return ok, nil
}

// Len returns the number of distinct blocks stored, useful for asserting
// the no-transient-writes property in tests.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocks)
}
