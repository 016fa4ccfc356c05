// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package dr_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/schwa-lab/dr/pkg/dr"
	"github.com/schwa-lab/dr/pkg/dr/schematest"
	"github.com/schwa-lab/dr/pkg/testutil"
)

// buildDocument assembles one well-formed frame declaring "__meta__" (a
// title field) and "Token" (a text field and a self-pointer next field),
// with a "tokens" store of the given token texts, each pointing at the
// next (the last points at itself).
func buildDocument(title string, tokens []string) []byte {
	f := testutil.NewMsgpackFixture()
	f.Uint8(3)

	f.ArrayHeader(2)

	f.ArrayHeader(2)
	f.String("__meta__")
	f.ArrayHeader(1)
	f.FieldEntry("title", false, 0, false, false, false)

	f.ArrayHeader(2)
	f.String("Token")
	f.ArrayHeader(2)
	f.FieldEntry("text", false, 0, false, false, false)
	f.FieldEntry("next", false, 0, false, true, false)

	f.ArrayHeader(1)
	f.ArrayHeader(3)
	f.String("tokens")
	f.Int32(1)
	f.Int32(int32(len(tokens)))

	doc := testutil.NewMsgpackFixture()
	doc.FieldMap(1)
	doc.FieldID(0) // title
	doc.String(title)
	f.Instance(doc.Bytes())

	var toks [][]byte
	for i, text := range tokens {
		next := i + 1
		if next >= len(tokens) {
			next = len(tokens) - 1
		}
		tok := testutil.NewMsgpackFixture()
		tok.FieldMap(2)
		tok.FieldID(0) // text
		tok.String(text)
		tok.FieldID(1) // next
		tok.Int32(int32(next))
		toks = append(toks, tok.Bytes())
	}
	f.InstanceGroup(toks)
	return f.Bytes()
}

func TestReadNextDecodesDocumentAndStore(t *testing.T) {
	data := buildDocument("hello world", []string{"a", "b", "c"})
	r := dr.NewReader(bytes.NewReader(data), schematest.DocSchema)

	got, err := r.ReadNext(context.Background())
	if err != nil {
		t.Fatalf("ReadNext: %v", err)
	}
	doc := got.(*schematest.Document)
	if doc.Title != "hello world" {
		t.Fatalf("Title = %q, want %q", doc.Title, "hello world")
	}
	if len(doc.Tokens) != 3 {
		t.Fatalf("len(Tokens) = %d, want 3", len(doc.Tokens))
	}
	for i, want := range []string{"a", "b", "c"} {
		if doc.Tokens[i].Text != want {
			t.Errorf("Tokens[%d].Text = %q, want %q", i, doc.Tokens[i].Text, want)
		}
	}
	if doc.Tokens[0].Next != dr.Ann(doc.Tokens[1]) {
		t.Errorf("Tokens[0].Next does not point at Tokens[1]")
	}
	if doc.Tokens[2].Next != dr.Ann(doc.Tokens[2]) {
		t.Errorf("Tokens[2].Next does not point at itself")
	}

	if _, err := r.ReadNext(context.Background()); err != io.EOF {
		t.Fatalf("second ReadNext: got %v, want io.EOF", err)
	}
}

func TestReadNextCleanEOFOnEmptyStream(t *testing.T) {
	r := dr.NewReader(bytes.NewReader(nil), schematest.DocSchema)
	if _, err := r.ReadNext(context.Background()); err != io.EOF {
		t.Fatalf("ReadNext on empty stream: got %v, want io.EOF", err)
	}
}

func TestReadNextMultipleDocuments(t *testing.T) {
	var stream []byte
	stream = append(stream, buildDocument("first", []string{"x"})...)
	stream = append(stream, buildDocument("second", nil)...)

	r := dr.NewReader(bytes.NewReader(stream), schematest.DocSchema)

	d1, err := r.ReadNext(context.Background())
	if err != nil {
		t.Fatalf("first ReadNext: %v", err)
	}
	if title := d1.(*schematest.Document).Title; title != "first" {
		t.Fatalf("first document title = %q, want %q", title, "first")
	}

	d2, err := r.ReadNext(context.Background())
	if err != nil {
		t.Fatalf("second ReadNext: %v", err)
	}
	doc2 := d2.(*schematest.Document)
	if doc2.Title != "second" {
		t.Fatalf("second document title = %q, want %q", doc2.Title, "second")
	}
	if len(doc2.Tokens) != 0 {
		t.Fatalf("second document len(Tokens) = %d, want 0", len(doc2.Tokens))
	}

	if _, err := r.ReadNext(context.Background()); err != io.EOF {
		t.Fatalf("third ReadNext: got %v, want io.EOF", err)
	}
}

func TestReadNextRejectsWrongWireVersion(t *testing.T) {
	f := testutil.NewMsgpackFixture()
	f.Uint8(9)
	r := dr.NewReader(bytes.NewReader(f.Bytes()), schematest.DocSchema)

	_, err := r.ReadNext(context.Background())
	de, ok := err.(*dr.Error)
	if !ok || de.Kind != dr.WireFormatError {
		t.Fatalf("ReadNext: got %v, want a *dr.Error{Kind: WireFormatError}", err)
	}

	// The Reader is poisoned: a second call returns the same error without
	// reading further.
	if _, err2 := r.ReadNext(context.Background()); err2 != err {
		t.Fatalf("second ReadNext after poisoning: got %v, want %v", err2, err)
	}
}

func TestReadNextMissingMetaClass(t *testing.T) {
	f := testutil.NewMsgpackFixture()
	f.Uint8(3)
	f.ArrayHeader(1)
	f.ArrayHeader(2)
	f.String("NotMeta")
	f.ArrayHeader(0)
	f.ArrayHeader(0) // stores block

	r := dr.NewReader(bytes.NewReader(f.Bytes()), schematest.DocSchema)
	_, err := r.ReadNext(context.Background())
	de, ok := err.(*dr.Error)
	if !ok || de.Kind != dr.MissingMetaError {
		t.Fatalf("ReadNext: got %v, want a *dr.Error{Kind: MissingMetaError}", err)
	}
}

func TestReadNextStructuralMismatchOnPointerFlag(t *testing.T) {
	f := testutil.NewMsgpackFixture()
	f.Uint8(3)
	f.ArrayHeader(1)
	f.ArrayHeader(2)
	f.String("__meta__")
	f.ArrayHeader(1)
	// The static title field is a plain string, but the stream claims it's
	// a pointer into store 0: a structural disagreement.
	f.FieldEntry("title", true, 0, false, false, false)
	f.ArrayHeader(0)

	r := dr.NewReader(bytes.NewReader(f.Bytes()), schematest.DocSchema)
	_, err := r.ReadNext(context.Background())
	de, ok := err.(*dr.Error)
	if !ok || de.Kind != dr.SchemaMismatchError {
		t.Fatalf("ReadNext: got %v, want a *dr.Error{Kind: SchemaMismatchError}", err)
	}
}

func TestReadNextUnknownClassIsPreservedVerbatim(t *testing.T) {
	f := testutil.NewMsgpackFixture()
	f.Uint8(3)
	f.ArrayHeader(2)

	f.ArrayHeader(2)
	f.String("__meta__")
	f.ArrayHeader(1)
	f.FieldEntry("title", false, 0, false, false, false)

	// A class the static schema has never heard of.
	f.ArrayHeader(2)
	f.String("FutureClass")
	f.ArrayHeader(1)
	f.FieldEntry("mystery", false, 0, false, false, false)

	// A store of that unknown class: it must be preserved verbatim, not
	// rejected.
	f.ArrayHeader(1)
	f.ArrayHeader(3)
	f.String("future_store")
	f.Int32(1)
	f.Int32(1)

	doc := testutil.NewMsgpackFixture()
	doc.FieldMap(1)
	doc.FieldID(0) // title
	doc.String("has unknown stuff")
	f.Instance(doc.Bytes())

	inst := testutil.NewMsgpackFixture()
	inst.FieldMap(1)
	inst.FieldID(0)
	inst.String("unrecognized payload")
	f.InstanceGroup([][]byte{inst.Bytes()})

	r := dr.NewReader(bytes.NewReader(f.Bytes()), schematest.DocSchema)
	got, err := r.ReadNext(context.Background())
	if err != nil {
		t.Fatalf("ReadNext: %v", err)
	}
	doc2 := got.(*schematest.Document)
	if doc2.Title != "has unknown stuff" {
		t.Fatalf("Title = %q, want %q", doc2.Title, "has unknown stuff")
	}
	rt := doc2.Runtime()
	if len(rt.Stores) != 1 || !rt.Stores[0].Lazy {
		t.Fatalf("expected exactly one lazy store for the unrecognized class")
	}
	if len(rt.Stores[0].LazyBytes) == 0 {
		t.Fatalf("expected LazyBytes to hold the unrecognized store's verbatim instance")
	}
}
