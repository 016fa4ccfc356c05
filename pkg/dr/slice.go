// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package dr

// ByteSlice is a half-open [Start, Stop) range into a caller-owned byte
// buffer, as materialized from a wire byte-slice field (start, length).
type ByteSlice struct {
	Start int64
	Stop  int64
}

// Slice is an inclusive-inclusive [Start, Stop] range of annotations within
// a store, as materialized from a wire pointer-slice field (start, length).
// The inclusive-inclusive convention is inherited from the wire format: a
// wire tuple (s, n) with n == 1 produces Start == Stop, not an empty range.
type Slice struct {
	Start Ann
	Stop  Ann
}
