// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package dr

import "encoding/binary"

// The lazy slab attached to an Ann via SetDRLazy packs its (field_id, raw
// wire bytes) entries as a simple length-prefixed sequence, the same
// framing discipline the teacher's write-ahead log uses for its records:
// a fixed header naming what follows, then exactly that many bytes. This
// format is an internal implementation detail of this module, never a wire
// format in its own right, so there is no occasion for msgp or a
// third-party framing library here — see DESIGN.md.
const lazyFieldHeaderSize = 8

func packLazyField(buf []byte, fieldID int, raw []byte) []byte {
	var hdr [lazyFieldHeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(fieldID))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(raw)))
	buf = append(buf, hdr[:]...)
	buf = append(buf, raw...)
	return buf
}

// LazyField is one entry recovered from an Ann's lazy slab by
// UnpackLazyFields: either a field the reader didn't recognize, or one
// whose static declaration asked that its wire bytes survive verbatim.
type LazyField struct {
	FieldID int
	Raw     []byte
}

// UnpackLazyFields decodes a slab built by the reader's instance decoder
// back into its (field_id, raw wire bytes) entries, for callers that want
// to inspect or re-emit fields the reader didn't materialize structurally.
func UnpackLazyFields(data []byte, nElem int) ([]LazyField, error) {
	out := make([]LazyField, 0, nElem)
	for i := 0; i < nElem; i++ {
		if len(data) < lazyFieldHeaderSize {
			return nil, internalErrorf(nil, "lazy field slab truncated at entry %d of %d", i, nElem)
		}
		fieldID := int(binary.BigEndian.Uint32(data[0:4]))
		n := int(binary.BigEndian.Uint32(data[4:8]))
		data = data[lazyFieldHeaderSize:]
		if len(data) < n {
			return nil, internalErrorf(nil, "lazy field slab truncated reading %d bytes of entry %d of %d", n, i, nElem)
		}
		out = append(out, LazyField{FieldID: fieldID, Raw: data[:n]})
		data = data[n:]
	}
	return out, nil
}
