// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package testutil

import "github.com/tinylib/msgp/msgp"

// MsgpackFixture incrementally builds a well-formed docrep byte stream for
// tests and for cmd/drgen, using the same msgp primitives the reader
// decodes with, so a fixture and the reader agree on wire shape by
// construction rather than by hand-matched byte literals.
type MsgpackFixture struct {
	buf []byte
}

// NewMsgpackFixture returns an empty fixture builder.
func NewMsgpackFixture() *MsgpackFixture { return &MsgpackFixture{} }

// Bytes returns the bytes built so far.
func (f *MsgpackFixture) Bytes() []byte { return f.buf }

func (f *MsgpackFixture) ArrayHeader(n int) *MsgpackFixture {
	f.buf = msgp.AppendArrayHeader(f.buf, uint32(n))
	return f
}

func (f *MsgpackFixture) MapHeader(n int) *MsgpackFixture {
	f.buf = msgp.AppendMapHeader(f.buf, uint32(n))
	return f
}

func (f *MsgpackFixture) String(s string) *MsgpackFixture {
	f.buf = msgp.AppendString(f.buf, s)
	return f
}

func (f *MsgpackFixture) Nil() *MsgpackFixture {
	f.buf = msgp.AppendNil(f.buf)
	return f
}

func (f *MsgpackFixture) Uint8(v uint8) *MsgpackFixture {
	f.buf = msgp.AppendByte(f.buf, v)
	return f
}

func (f *MsgpackFixture) Int32(v int32) *MsgpackFixture {
	f.buf = msgp.AppendInt32(f.buf, v)
	return f
}

func (f *MsgpackFixture) Int64(v int64) *MsgpackFixture {
	f.buf = msgp.AppendInt64(f.buf, v)
	return f
}

func (f *MsgpackFixture) Float32(v float32) *MsgpackFixture {
	f.buf = msgp.AppendFloat32(f.buf, v)
	return f
}

func (f *MsgpackFixture) Float64(v float64) *MsgpackFixture {
	f.buf = msgp.AppendFloat64(f.buf, v)
	return f
}

func (f *MsgpackFixture) Bool(v bool) *MsgpackFixture {
	f.buf = msgp.AppendBool(f.buf, v)
	return f
}

// Raw appends already-encoded bytes verbatim, for embedding one fixture's
// output (e.g. an instance body) inside another (its <nbytes> wrapper).
func (f *MsgpackFixture) Raw(b []byte) *MsgpackFixture {
	f.buf = append(f.buf, b...)
	return f
}

// Instance appends a length-prefixed region: body's own length, then body
// itself verbatim. Used for both <doc_instance> (body is a field map) and
// <instances_group> (body is an array header plus that many field maps).
func (f *MsgpackFixture) Instance(body []byte) *MsgpackFixture {
	f.Int64(int64(len(body)))
	return f.Raw(body)
}

// InstanceGroup appends a complete <instances_group>: a single nbytes
// prefix covering the array header and every body, then the array header,
// then each body verbatim. Each body should itself be a field map built
// with FieldMap/FieldID.
func (f *MsgpackFixture) InstanceGroup(bodies [][]byte) *MsgpackFixture {
	group := NewMsgpackFixture()
	group.ArrayHeader(len(bodies))
	for _, b := range bodies {
		group.Raw(b)
	}
	return f.Instance(group.Bytes())
}

// FieldMap begins an <instance> ::= map of field_id:i32 -> value with n
// entries; the caller appends each (field_id, value) pair immediately
// after via FieldID.
func (f *MsgpackFixture) FieldMap(n int) *MsgpackFixture {
	return f.MapHeader(n)
}

// FieldID appends one instance map entry's field_id key; the caller
// appends the corresponding value immediately after.
func (f *MsgpackFixture) FieldID(id int32) *MsgpackFixture {
	return f.Int32(id)
}

// FieldEntry appends one field-map entry for the classes block: NAME is
// always present; the remaining keys are included only when their
// corresponding flag is true (storeID is meaningful only when pointerTo).
func (f *MsgpackFixture) FieldEntry(name string, pointerTo bool, storeID int32, isSlice, isSelfPointer, isCollection bool) *MsgpackFixture {
	n := 1
	for _, b := range []bool{pointerTo, isSlice, isSelfPointer, isCollection} {
		if b {
			n++
		}
	}
	f.MapHeader(n)
	f.Uint8(0)
	f.String(name)
	if pointerTo {
		f.Uint8(1)
		f.Int32(storeID)
	}
	if isSlice {
		f.Uint8(2)
		f.Nil()
	}
	if isSelfPointer {
		f.Uint8(3)
		f.Nil()
	}
	if isCollection {
		f.Uint8(4)
		f.Nil()
	}
	return f
}
