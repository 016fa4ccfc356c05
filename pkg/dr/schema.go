// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package dr

// FieldsOwner is implemented by anything that declares an ordered list of
// fields: both AnnSchema (an annotation class) and DocSchema (the document
// class itself, under the synthetic "__meta__" stream name).
type FieldsOwner interface {
	Fields() []FieldSchema
}

// DocSchema is the caller-supplied declaration of a document class: its own
// fields, the stores attached to it, and the annotation classes those
// stores hold. It is a read-only collaborator — this module never
// constructs one, only consumes it.
type DocSchema interface {
	FieldsOwner

	// NewDoc returns a freshly allocated, zero-valued document instance.
	NewDoc() Doc

	// Stores returns the document's declared stores.
	Stores() []StoreSchema

	// Schemas returns the declared annotation classes reachable from this
	// document (typically the stored-class of every store, but a schema
	// registry may declare more than are currently used by any store).
	Schemas() []AnnSchema
}

// AnnSchema is the caller-supplied declaration of an annotation class.
type AnnSchema interface {
	FieldsOwner

	// SerialName is the name this class appears under on the wire.
	SerialName() string
}

// StoreSchema is the caller-supplied declaration of one of a document's
// stores.
type StoreSchema interface {
	// SerialName is the name this store appears under on the wire.
	SerialName() string

	// StoredClass is the annotation class this store holds.
	StoredClass() AnnSchema

	// Resize pre-allocates n annotation instances, attaches the resulting
	// store to doc, and returns it so the decoder can populate pointer
	// fields and dispatch per-instance field reads against it.
	Resize(n int, doc Doc) (Store, error)
}

// FieldSchema is the caller-supplied declaration of a single field on a
// document or annotation class.
type FieldSchema interface {
	// Name is the field's in-memory name.
	Name() string

	// SerialName is the name this field appears under on the wire.
	SerialName() string

	// Kind reports the field's wire shape and dispatch behavior.
	Kind() Kind

	// Mode reports whether this field's wire bytes must be separately
	// preserved. Valid for any Kind.
	Mode() FieldMode

	// PrimitiveType is valid only when Kind() == KindPrimitive.
	PrimitiveType() PrimitiveType

	// PointedToClass is valid only when Kind().IsPointer() && !Kind().IsSelfPointer().
	// It names the annotation class the field's target store must hold.
	PointedToClass() AnnSchema

	// Set assigns value to this field on target. value's concrete type
	// depends on Kind: string for KindString, ByteSlice for KindByteSlice,
	// Ann for the single-pointer kinds, Slice for the pointer-slice kinds,
	// []Ann for the collection kinds, and for KindPrimitive one of byte,
	// uint16 (char), int16, int32, int64, float32, float64 or bool, per
	// PrimitiveType (see readPrimitiveField in fields.go). The caller supplies
	// this as a closure over the concrete Go struct field at registration
	// time, so the decoder never needs reflection to materialize a field.
	Set(target Ann, value interface{}) error
}
