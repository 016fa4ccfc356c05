// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package dr

// RuntimeSchema is the per-document reconciled schema built while decoding
// one frame. It is never shared across frames: a fresh RuntimeSchema is
// constructed per readNext, which is what lets a single Reader handle a
// stream of heterogeneous, independently-self-describing documents.
type RuntimeSchema struct {
	// Classes is indexed by klass-id, in wire order.
	Classes []*ClassDesc
	// Stores is indexed by store-id, in wire order.
	Stores []*StoreDesc
	// Doc is the ClassDesc for the synthetic "__meta__" class.
	Doc *ClassDesc
}

// ClassDesc is a runtime class descriptor: one entry per class in the
// wire's classes block.
type ClassDesc struct {
	ID         int
	StreamName string
	Fields     []*FieldDesc
	// Lazy is true when no static counterpart was found for StreamName.
	// A lazy class's instances are never structurally parsed: their bytes
	// are preserved verbatim.
	Lazy bool
	// Static is the matched static declaration, or nil if Lazy.
	Static FieldsOwner
}

// FieldDesc is a runtime field descriptor: one entry per field declared on
// a class in the wire's classes block.
type FieldDesc struct {
	ID         int
	StreamName string
	// Lazy is true when the enclosing class is lazy, or no field with this
	// StreamName was found on the enclosing class's static counterpart.
	Lazy bool
	// Static is the matched static declaration, or nil if Lazy.
	Static FieldSchema
	// TargetStoreID is the store-id this field pointed to on the wire, for
	// pointer-like fields. It is -1 for non-pointer fields.
	TargetStoreID int
	// TargetStore is filled in during the pointer back-fill pass, once all
	// stores are known. It is nil until then, and nil forever for
	// non-pointer fields.
	TargetStore *StoreDesc
}

// StoreDesc is a runtime store descriptor: one entry per store in the
// wire's stores block.
type StoreDesc struct {
	ID         int
	StreamName string
	Class      *ClassDesc
	NElem      int
	// Lazy is true when no static counterpart was found for StreamName.
	// A lazy store's instances are never structurally parsed: its bytes
	// are preserved verbatim in LazyBytes.
	Lazy bool
	// Static is the matched static declaration, or nil if Lazy.
	Static StoreSchema
	// Store is the live Store object, populated by Static.Resize during
	// the stores pass. It is nil for a lazy store.
	Store Store
	// LazyBytes holds this store's verbatim instance-group bytes. It is
	// set only for a lazy store.
	LazyBytes []byte
}
