// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package wire adapts github.com/tinylib/msgp/msgp's byte-slice decode
// primitives into a small forward-only reader over an arbitrary io.Reader,
// with support for capturing the exact bytes consumed by a value. It knows
// nothing about docrep's document/class/store structure; callers build that
// on top.
package wire

import (
	"errors"
	"io"

	"github.com/tinylib/msgp/msgp"
)

// growChunk is how many bytes we pull from the underlying reader at a time
// when a value doesn't fit in what's currently buffered.
const growChunk = 4096

// maxGrowAttempts bounds how many times we'll grow the buffer looking for a
// single value before giving up and reporting a truncated frame.
const maxGrowAttempts = 1 << 16

// Decoder reads msgpack primitives from a stream, reading more from it (in
// growChunk-sized requests) only when the value currently being parsed
// does not fit in what is already buffered. Because every
// underlying read goes through the ReadXxxBytes family, which hands back the
// exact unconsumed suffix of the buffer, the bytes a value occupied are
// always a simple slice of the buffer — no separate offset bookkeeping, and
// none of the buffer-refill hazards that plague mark/reset over a stream.
type Decoder struct {
	r   io.Reader
	buf []byte

	// captureStack holds one accumulator per currently-active capture.
	// Captures nest: StartCapture pushes a new accumulator, and every byte
	// consumed afterward is appended to all of them, so an inner capture
	// (e.g. one field) can run while an outer one (e.g. the whole instance)
	// is still open.
	captureStack [][]byte
}

// NewDecoder returns a Decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// fill grows buf until it holds at least n bytes, or returns the error from
// the underlying reader (typically io.EOF) if it can't.
func (d *Decoder) fill(n int) error {
	for len(d.buf) < n {
		chunk := make([]byte, growChunk)
		m, err := d.r.Read(chunk)
		if m > 0 {
			d.buf = append(d.buf, chunk[:m]...)
		}
		if err != nil {
			if len(d.buf) >= n {
				return nil
			}
			return err
		}
	}
	return nil
}

// take runs parse against the buffered bytes, growing the buffer and
// retrying on msgp.ErrShortBytes until parse succeeds or the underlying
// reader is exhausted. On success it returns the exact bytes parse consumed.
func (d *Decoder) take(parse func([]byte) ([]byte, error)) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		rest, err := parse(d.buf)
		if err == nil {
			n := len(d.buf) - len(rest)
			consumed := d.buf[:n]
			d.buf = rest
			d.recordCapture(consumed)
			return consumed, nil
		}
		if !errors.Is(err, msgp.ErrShortBytes) {
			return nil, err
		}
		if attempt >= maxGrowAttempts {
			return nil, io.ErrUnexpectedEOF
		}
		// fill's target (current length + growChunk) is just a growth
		// increment, not the actual number of bytes parse needs — that's
		// unknowable until parse succeeds. So even if fill falls short of
		// its target because the underlying reader is near its end, any
		// forward progress is worth another parse attempt; only truly flat
		// progress (nothing new at all) means the frame is genuinely
		// truncated.
		before := len(d.buf)
		ferr := d.fill(before + growChunk)
		if ferr != nil && len(d.buf) == before {
			if ferr == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, ferr
		}
	}
}

// AtEOF reports whether the stream has no more buffered bytes and the
// underlying reader reports io.EOF. It is used only to distinguish a clean
// end-of-stream (no bytes at all before the wire-version byte) from a
// truncated frame.
func (d *Decoder) AtEOF() bool {
	if len(d.buf) > 0 {
		return false
	}
	return d.fill(1) == io.EOF
}

// ReadUint8 reads a single unsigned byte.
func (d *Decoder) ReadUint8() (byte, error) {
	var v byte
	_, err := d.take(func(b []byte) ([]byte, error) {
		val, o, e := msgp.ReadByteBytes(b)
		v = val
		return o, e
	})
	return v, err
}

// ReadInt32 reads a signed 32-bit integer.
func (d *Decoder) ReadInt32() (int32, error) {
	var v int32
	_, err := d.take(func(b []byte) ([]byte, error) {
		val, o, e := msgp.ReadInt32Bytes(b)
		v = val
		return o, e
	})
	return v, err
}

// ReadInt64 reads a signed 64-bit integer.
func (d *Decoder) ReadInt64() (int64, error) {
	var v int64
	_, err := d.take(func(b []byte) ([]byte, error) {
		val, o, e := msgp.ReadInt64Bytes(b)
		v = val
		return o, e
	})
	return v, err
}

// ReadString reads a msgpack string.
func (d *Decoder) ReadString() (string, error) {
	var v string
	_, err := d.take(func(b []byte) ([]byte, error) {
		val, o, e := msgp.ReadStringBytes(b)
		v = val
		return o, e
	})
	return v, err
}

// ReadNil reads a msgpack nil.
func (d *Decoder) ReadNil() error {
	_, err := d.take(func(b []byte) ([]byte, error) {
		return msgp.ReadNilBytes(b)
	})
	return err
}

// ReadArrayHeader reads an array header and returns its element count.
func (d *Decoder) ReadArrayHeader() (int, error) {
	var n uint32
	_, err := d.take(func(b []byte) ([]byte, error) {
		val, o, e := msgp.ReadArrayHeaderBytes(b)
		n = val
		return o, e
	})
	return int(n), err
}

// ReadMapHeader reads a map header and returns its entry count.
func (d *Decoder) ReadMapHeader() (int, error) {
	var n uint32
	_, err := d.take(func(b []byte) ([]byte, error) {
		val, o, e := msgp.ReadMapHeaderBytes(b)
		n = val
		return o, e
	})
	return int(n), err
}

// ReadFloat32 reads a 32-bit float.
func (d *Decoder) ReadFloat32() (float32, error) {
	var v float32
	_, err := d.take(func(b []byte) ([]byte, error) {
		val, o, e := msgp.ReadFloat32Bytes(b)
		v = val
		return o, e
	})
	return v, err
}

// ReadFloat64 reads a 64-bit float.
func (d *Decoder) ReadFloat64() (float64, error) {
	var v float64
	_, err := d.take(func(b []byte) ([]byte, error) {
		val, o, e := msgp.ReadFloat64Bytes(b)
		v = val
		return o, e
	})
	return v, err
}

// ReadBool reads a boolean.
func (d *Decoder) ReadBool() (bool, error) {
	var v bool
	_, err := d.take(func(b []byte) ([]byte, error) {
		val, o, e := msgp.ReadBoolBytes(b)
		v = val
		return o, e
	})
	return v, err
}

// ReadOpaqueValue reads exactly one arbitrarily-shaped msgpack value
// (scalar, array, or map, recursively) without interpreting it, and returns
// the raw bytes it occupied on the wire.
func (d *Decoder) ReadOpaqueValue() ([]byte, error) {
	consumed, err := d.take(func(b []byte) ([]byte, error) {
		return msgp.Skip(b)
	})
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(consumed))
	copy(out, consumed)
	return out, nil
}

// ReadRaw consumes exactly n bytes without interpreting them, for verbatim
// preservation of a region whose length is already known (an instance whose
// class or store has no static counterpart).
func (d *Decoder) ReadRaw(n int) ([]byte, error) {
	if err := d.fill(n); err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	consumed := d.buf[:n]
	d.buf = d.buf[n:]
	out := make([]byte, n)
	copy(out, consumed)
	d.recordCapture(consumed)
	return out, nil
}

func (d *Decoder) recordCapture(consumed []byte) {
	for i := range d.captureStack {
		d.captureStack[i] = append(d.captureStack[i], consumed...)
	}
}

// StartCapture begins accumulating the raw bytes consumed by subsequent
// Read calls. Call StopCapture to retrieve them. Captures nest: it is valid
// to StartCapture again before a prior capture is stopped.
func (d *Decoder) StartCapture() {
	d.captureStack = append(d.captureStack, nil)
}

// StopCapture ends the innermost active capture and returns the bytes
// consumed since its matching StartCapture.
func (d *Decoder) StopCapture() []byte {
	n := len(d.captureStack) - 1
	out := d.captureStack[n]
	d.captureStack = d.captureStack[:n]
	return out
}
