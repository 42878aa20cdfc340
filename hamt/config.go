// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hamt

import "github.com/go-playground/validator/v10"

// validate is shared across Config instances, matching the teacher's
// package-level DefaultValidator pattern in go/objects/utils.go.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds the construction-time tunables recognised by New and Load.
// kLeafMax is deliberately not configurable: it is a compile-time constant
// fixed at 3 for wire compatibility.
type Config struct {
	// BitWidth controls branching factor: each trie level consumes BitWidth
	// bits of the key digest. 5 is the go-interop default; 8 gives a higher
	// fan-out.
	BitWidth int `validate:"oneof=5 8"`
}

// Validate reports whether c is an acceptable configuration.
func (c Config) Validate() error {
	return validate.Struct(c)
}
