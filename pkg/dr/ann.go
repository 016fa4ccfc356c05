// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package dr

// Ann is a single annotation instance stored in a Store. Concrete
// annotation types declared by a caller must embed AnnBase to satisfy this
// interface; the embedding is what lets the decoder attach lazily-preserved
// field data to an instance it otherwise knows nothing about.
type Ann interface {
	// SetDRLazy attaches the raw, packed (field_id, value) pairs the
	// decoder could not (or was told not to) interpret structurally, along
	// with how many pairs are packed in data. For a document whose instance
	// is read verbatim, data is the whole raw instance body and nElem is 0.
	SetDRLazy(data []byte, nElem int)

	// DRLazy returns whatever was last attached by SetDRLazy.
	DRLazy() (data []byte, nElem int)
}

// AnnBase implements the bookkeeping half of Ann. Annotation types declared
// by a caller embed it to pick up lazy-preservation support for free.
type AnnBase struct {
	drLazy      []byte
	drLazyNElem int
}

// SetDRLazy implements Ann.
func (a *AnnBase) SetDRLazy(data []byte, nElem int) {
	a.drLazy = data
	a.drLazyNElem = nElem
}

// DRLazy implements Ann.
func (a *AnnBase) DRLazy() ([]byte, int) {
	return a.drLazy, a.drLazyNElem
}
