// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schematest is a small worked-example static schema: a document
// with a title and a store of Token annotations, each holding a span of
// text and a self-pointer to the next token. It exists for this module's
// own tests and for cmd/drcat to decode against; cmd/drgen writes streams
// of this shape.
package schematest

import "github.com/schwa-lab/dr/pkg/dr"

// Token is an annotation stored in a Document's Tokens store.
type Token struct {
	dr.AnnBase

	Text string
	Next dr.Ann
}

// Document is the root object decoded by this package's Doc schema.
type Document struct {
	dr.DocBase

	Title  string
	Tokens []*Token
}

var tokenFields = []dr.FieldSchema{
	newField("text", "text", dr.KindString, dr.ModeNormal, func(a dr.Ann, v interface{}) error {
		a.(*Token).Text = v.(string)
		return nil
	}),
	newField("next", "next", dr.KindSelfPointer, dr.ModeNormal, func(a dr.Ann, v interface{}) error {
		a.(*Token).Next = v.(dr.Ann)
		return nil
	}),
}

type tokenSchema struct{}

func (tokenSchema) Fields() []dr.FieldSchema { return tokenFields }
func (tokenSchema) SerialName() string       { return "Token" }

// TokenSchema is the static AnnSchema for Token.
var TokenSchema dr.AnnSchema = tokenSchema{}

type tokensStore struct{}

func (tokensStore) SerialName() string        { return "tokens" }
func (tokensStore) StoredClass() dr.AnnSchema { return TokenSchema }

func (tokensStore) Resize(n int, doc dr.Doc) (dr.Store, error) {
	d := doc.(*Document)
	d.Tokens = make([]*Token, n)
	store := make(dr.SliceStore, n)
	for i := range d.Tokens {
		d.Tokens[i] = &Token{}
		store[i] = d.Tokens[i]
	}
	return store, nil
}

// TokensStore is the static StoreSchema for Document.Tokens.
var TokensStore dr.StoreSchema = tokensStore{}

var docFields = []dr.FieldSchema{
	newField("title", "title", dr.KindString, dr.ModeNormal, func(a dr.Ann, v interface{}) error {
		a.(*Document).Title = v.(string)
		return nil
	}),
}

type docSchema struct{}

func (docSchema) Fields() []dr.FieldSchema     { return docFields }
func (docSchema) NewDoc() dr.Doc               { return &Document{} }
func (docSchema) Stores() []dr.StoreSchema     { return []dr.StoreSchema{TokensStore} }
func (docSchema) Schemas() []dr.AnnSchema      { return []dr.AnnSchema{TokenSchema} }

// DocSchema is the static DocSchema for Document.
var DocSchema dr.DocSchema = docSchema{}

// field is a generic dr.FieldSchema built from a setter closure, so each
// concrete field above only has to name its kind, mode, and how to assign
// a decoded value back onto the Go struct.
type field struct {
	name, serialName string
	kind             dr.Kind
	mode             dr.FieldMode
	primType         dr.PrimitiveType
	pointedTo        dr.AnnSchema
	set              func(dr.Ann, interface{}) error
}

func newField(name, serialName string, kind dr.Kind, mode dr.FieldMode, set func(dr.Ann, interface{}) error) *field {
	return &field{name: name, serialName: serialName, kind: kind, mode: mode, set: set}
}

func (f *field) Name() string                    { return f.name }
func (f *field) SerialName() string              { return f.serialName }
func (f *field) Kind() dr.Kind                   { return f.kind }
func (f *field) Mode() dr.FieldMode              { return f.mode }
func (f *field) PrimitiveType() dr.PrimitiveType { return f.primType }
func (f *field) PointedToClass() dr.AnnSchema    { return f.pointedTo }
func (f *field) Set(target dr.Ann, value interface{}) error { return f.set(target, value) }
