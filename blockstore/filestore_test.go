// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package blockstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreGetPutHas(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	data := []byte("hello")
	c := cidFor(t, data)

	has, err := fs.Has(ctx, c)
	require.NoError(t, err)
	require.False(t, has)

	_, err = fs.Get(ctx, c)
	require.ErrorIs(t, err, ErrBlockNotFound)

	require.NoError(t, fs.Put(ctx, c, data))

	has, err = fs.Has(ctx, c)
	require.NoError(t, err)
	require.True(t, has)

	got, err := fs.Get(ctx, c)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestFileStoreRejectsCorruptBlock(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	data := []byte("hello")
	c := cidFor(t, data)

	require.NoError(t, fs.Put(ctx, c, []byte("tampered")))

	_, err = fs.Get(ctx, c)
	require.Error(t, err)
}
