// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package dr

// Doc is the root object materialized per input frame. Concrete document
// types declared by a caller must embed DocBase to satisfy this interface.
type Doc interface {
	Ann

	// setRuntime installs the per-decode runtime schema built while parsing
	// this frame. It is unexported so that only DocBase (and therefore only
	// types that embed it) can implement Doc.
	setRuntime(rt *RuntimeSchema)

	// Runtime returns the runtime schema this document was decoded against.
	Runtime() *RuntimeSchema
}

// DocBase implements the bookkeeping half of Doc. Document types declared
// by a caller embed it to pick up lazy-preservation and runtime-schema
// support for free.
type DocBase struct {
	AnnBase
	rt *RuntimeSchema
}

func (d *DocBase) setRuntime(rt *RuntimeSchema) { d.rt = rt }

// Runtime implements Doc.
func (d *DocBase) Runtime() *RuntimeSchema { return d.rt }
