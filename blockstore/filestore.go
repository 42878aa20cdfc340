// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package blockstore

import (
	"context"
	"fmt"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime/storage/fsstore"
)

// FileStore persists one file per block under a directory, keyed by CID,
// using go-ipld-prime's fsstore.Store — the same store the teacher's
// cmd/hamtest tool wires up via store.InitDefaults(dir) and
// lsys.SetWriteStorage(&store). Every read is re-hashed with the requested
// CID's prefix and rejected if it does not hash back to that CID; the bytes
// are then wrapped with go-block-format's NewBlockWithCid, the same
// ipfsBlocks.NewBlockWithCid pattern the teacher's cmd/ipld tool uses.
type FileStore struct {
	store fsstore.Store
}

// NewFileStore returns a FileStore rooted at dir, creating it if absent.
func NewFileStore(dir string) (*FileStore, error) {
	fs := &FileStore{}
	if err := fs.store.InitDefaults(dir); err != nil {
		return nil, fmt.Errorf("blockstore: initializing file store at %s: %w", dir, err)
	}
	return fs, nil
}

// Get returns the bytes stored under c, rejecting a block whose content
// does not hash back to c.
func (fs *FileStore) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	data, err := fs.store.Get(ctx, c.KeyString())
	if err != nil {
		return nil, ErrBlockNotFound
	}
	chk, err := c.Prefix().Sum(data)
	if err != nil {
		return nil, fmt.Errorf("blockstore: hashing block %s: %w", c, err)
	}
	if !chk.Equals(c) {
		return nil, fmt.Errorf("blockstore: corrupt block %s: content does not match cid", c)
	}
	blk, err := blocks.NewBlockWithCid(data, c)
	if err != nil {
		return nil, fmt.Errorf("blockstore: corrupt block %s: %w", c, err)
	}
	return blk.RawData(), nil
}

// Put writes data under c.
func (fs *FileStore) Put(ctx context.Context, c cid.Cid, data []byte) error {
	return fs.store.Put(ctx, c.KeyString(), data)
}

// Has reports whether c is present.
func (fs *FileStore) Has(ctx context.Context, c cid.Cid) (bool, error) {
	_, err := fs.store.Get(ctx, c.KeyString())
	return err == nil, nil
}
