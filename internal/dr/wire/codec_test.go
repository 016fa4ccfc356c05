// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/tinylib/msgp/msgp"
)

func TestReadPrimitives(t *testing.T) {
	var buf []byte
	buf = msgp.AppendByte(buf, 42)
	buf = msgp.AppendInt32(buf, -7)
	buf = msgp.AppendInt64(buf, 1<<40)
	buf = msgp.AppendString(buf, "hello")
	buf = msgp.AppendBool(buf, true)
	buf = msgp.AppendFloat64(buf, 3.5)

	d := NewDecoder(bytes.NewReader(buf))

	b, err := d.ReadUint8()
	if err != nil || b != 42 {
		t.Fatalf("ReadUint8: got (%v, %v), want (42, nil)", b, err)
	}
	i32, err := d.ReadInt32()
	if err != nil || i32 != -7 {
		t.Fatalf("ReadInt32: got (%v, %v), want (-7, nil)", i32, err)
	}
	i64, err := d.ReadInt64()
	if err != nil || i64 != 1<<40 {
		t.Fatalf("ReadInt64: got (%v, %v), want (%d, nil)", i64, err, int64(1)<<40)
	}
	s, err := d.ReadString()
	if err != nil || s != "hello" {
		t.Fatalf("ReadString: got (%q, %v), want (\"hello\", nil)", s, err)
	}
	bo, err := d.ReadBool()
	if err != nil || !bo {
		t.Fatalf("ReadBool: got (%v, %v), want (true, nil)", bo, err)
	}
	f, err := d.ReadFloat64()
	if err != nil || f != 3.5 {
		t.Fatalf("ReadFloat64: got (%v, %v), want (3.5, nil)", f, err)
	}

	if !d.AtEOF() {
		t.Fatalf("AtEOF: want true after consuming every value")
	}
}

func TestReadAcrossSmallChunks(t *testing.T) {
	// A reader that only ever hands back one byte per Read forces fill to
	// grow the buffer repeatedly for a single value, exercising the
	// ErrShortBytes retry path.
	var buf []byte
	buf = msgp.AppendString(buf, "a string long enough to span several 1-byte reads")
	d := NewDecoder(&oneByteReader{data: buf})

	s, err := d.ReadString()
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if s != "a string long enough to span several 1-byte reads" {
		t.Fatalf("ReadString: got %q", s)
	}
}

func TestCaptureNesting(t *testing.T) {
	var buf []byte
	buf = msgp.AppendInt32(buf, 1)
	buf = msgp.AppendInt32(buf, 2)
	buf = msgp.AppendInt32(buf, 3)
	d := NewDecoder(bytes.NewReader(buf))

	d.StartCapture()
	if _, err := d.ReadInt32(); err != nil {
		t.Fatal(err)
	}
	d.StartCapture()
	if _, err := d.ReadInt32(); err != nil {
		t.Fatal(err)
	}
	inner := d.StopCapture()
	if _, err := d.ReadInt32(); err != nil {
		t.Fatal(err)
	}
	outer := d.StopCapture()

	if len(inner) == 0 || len(outer) <= len(inner) {
		t.Fatalf("nested capture: inner=%d bytes, outer=%d bytes, want outer > inner > 0", len(inner), len(outer))
	}
}

func TestReadOpaqueValueRoundTrip(t *testing.T) {
	var buf []byte
	buf = msgp.AppendMapHeader(buf, 1)
	buf = msgp.AppendString(buf, "k")
	buf = msgp.AppendArrayHeader(buf, 2)
	buf = msgp.AppendInt32(buf, 1)
	buf = msgp.AppendInt32(buf, 2)

	d := NewDecoder(bytes.NewReader(buf))
	raw, err := d.ReadOpaqueValue()
	if err != nil {
		t.Fatalf("ReadOpaqueValue: %v", err)
	}
	if !bytes.Equal(raw, buf) {
		t.Fatalf("ReadOpaqueValue: got %v, want %v", raw, buf)
	}
	if !d.AtEOF() {
		t.Fatalf("AtEOF: want true after skipping the whole value")
	}
}

func TestReadShortFrameReturnsUnexpectedEOF(t *testing.T) {
	var buf []byte
	buf = msgp.AppendArrayHeader(buf, 2)
	buf = msgp.AppendInt32(buf, 1)
	// Declares 2 elements but only provides 1: truncated frame.
	d := NewDecoder(bytes.NewReader(buf))
	if _, err := d.ReadArrayHeader(); err != nil {
		t.Fatal(err)
	}
	if _, err := d.ReadInt32(); err != nil {
		t.Fatal(err)
	}
	if _, err := d.ReadInt32(); err != io.ErrUnexpectedEOF {
		t.Fatalf("ReadInt32 on truncated frame: got %v, want io.ErrUnexpectedEOF", err)
	}
}

// oneByteReader wraps a byte slice and returns at most one byte per Read,
// to exercise the Decoder's buffer-growth loop.
type oneByteReader struct {
	data []byte
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}
