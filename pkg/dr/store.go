// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package dr

// Store is an ordered, index-addressable sequence of annotations of a
// single declared class, attached to a document. Once a store has been
// sized to N elements, indices [0, N) are valid for the remainder of the
// decode that created it.
type Store interface {
	// Len returns the number of annotations in the store.
	Len() int

	// Get returns the annotation at index i. i must be in [0, Len()).
	Get(i int) Ann
}

// SliceStore is a Store backed by a plain slice of Ann. StoreSchema
// implementations that don't need a more specialized representation (and
// all of this module's own test fixtures) can use it directly.
type SliceStore []Ann

// Len implements Store.
func (s SliceStore) Len() int { return len(s) }

// Get implements Store.
func (s SliceStore) Get(i int) Ann { return s[i] }
