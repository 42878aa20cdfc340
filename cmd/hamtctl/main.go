// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

// Command hamtctl is a small inspection tool for file-backed HAMTs, in the
// shape of the teacher's cmd/hamtest: positional arguments, a panicking
// check(err) helper, no flag parsing.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/ipfs/go-cid"

	"github.com/masslbs/go-hamt-cas/blockstore"
	"github.com/masslbs/go-hamt-cas/hamt"
)

func main() {
	if len(os.Args) < 5 {
		usage()
	}

	dir, bitWidthArg, rootArg, cmd := os.Args[1], os.Args[2], os.Args[3], os.Args[4]

	store, err := blockstore.NewFileStore(dir)
	check(err)

	bitWidth, err := strconv.Atoi(bitWidthArg)
	check(err)

	ctx := context.Background()
	h := loadOrNew(store, rootArg, bitWidth)

	switch cmd {
	case "set":
		if len(os.Args) < 7 {
			usage()
		}
		value, err := hex.DecodeString(os.Args[6])
		check(err)
		check(h.Set(ctx, []byte(os.Args[5]), value))

	case "rm":
		if len(os.Args) < 6 {
			usage()
		}
		check(h.Remove(ctx, []byte(os.Args[5])))

	case "get":
		if len(os.Args) < 6 {
			usage()
		}
		value, err := h.Get(ctx, []byte(os.Args[5]))
		check(err)
		fmt.Println(hex.EncodeToString(value))
		return

	case "visit":
		check(h.Visit(ctx, func(key, value []byte) error {
			fmt.Printf("%s\t%s\n", key, hex.EncodeToString(value))
			return nil
		}))
		return

	default:
		usage()
	}

	root, err := h.Flush(ctx)
	check(err)
	fmt.Println(root)
}

func loadOrNew(store *blockstore.FileStore, rootArg string, bitWidth int) *hamt.HAMT {
	if rootArg == "-" {
		h, err := hamt.New(store, bitWidth)
		check(err)
		return h
	}
	c, err := cid.Decode(rootArg)
	check(err)
	h, err := hamt.Load(store, c, bitWidth)
	check(err)
	return h
}

func usage() {
	fmt.Println("usage: hamtctl <dir> <bitwidth> <root-cid|-> get|set|rm|visit <key> [value-hex]")
	os.Exit(1)
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
