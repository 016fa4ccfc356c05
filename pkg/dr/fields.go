// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package dr

import (
	"github.com/schwa-lab/dr/internal/dr/wire"
)

// readField dispatches a single non-lazy field read to the reader matching
// fd's kind, then assigns the result via the static field's Set operation.
// currentStore is the StoreDesc of the store presently being decoded (nil
// when decoding the document's own fields); self-pointer fields resolve
// against it instead of fd.TargetStore.
func readField(wc *wire.Decoder, fd *FieldDesc, target Ann, currentStore *StoreDesc) error {
	fs := fd.Static
	switch fs.Kind() {
	case KindString:
		return readStringField(wc, fs, target)
	case KindByteSlice:
		return readByteSliceField(wc, fs, target)
	case KindPointer:
		return readPointerField(wc, fs, target, fd.TargetStore)
	case KindPointerSlice:
		return readPointerSliceField(wc, fs, target, fd.TargetStore)
	case KindPointerCollection:
		return readPointerCollectionField(wc, fs, target, fd.TargetStore)
	case KindSelfPointer:
		return readPointerField(wc, fs, target, currentStore)
	case KindSelfPointerSlice:
		return readPointerSliceField(wc, fs, target, currentStore)
	case KindSelfPointerCollection:
		return readPointerCollectionField(wc, fs, target, currentStore)
	default:
		return readPrimitiveField(wc, fs, target)
	}
}

func readStringField(wc *wire.Decoder, fs FieldSchema, target Ann) error {
	v, err := wc.ReadString()
	if err != nil {
		return wireErrorf(err, "reading string field %q", fs.Name())
	}
	return fs.Set(target, v)
}

func readByteSliceField(wc *wire.Decoder, fs FieldSchema, target Ann) error {
	n, err := wc.ReadArrayHeader()
	if err != nil {
		return wireErrorf(err, "reading byte-slice tuple for field %q", fs.Name())
	}
	if n != 2 {
		return wireErrorf(nil, "byte-slice tuple for field %q has %d elements, want 2", fs.Name(), n)
	}
	start, err := wc.ReadInt64()
	if err != nil {
		return wireErrorf(err, "reading byte-slice start for field %q", fs.Name())
	}
	length, err := wc.ReadInt64()
	if err != nil {
		return wireErrorf(err, "reading byte-slice length for field %q", fs.Name())
	}
	return fs.Set(target, ByteSlice{Start: start, Stop: start + length})
}

func readPointerField(wc *wire.Decoder, fs FieldSchema, target Ann, store *StoreDesc) error {
	idx, err := wc.ReadInt32()
	if err != nil {
		return wireErrorf(err, "reading pointer index for field %q", fs.Name())
	}
	ann, err := storeGet(store, int(idx), fs)
	if err != nil {
		return err
	}
	return fs.Set(target, ann)
}

func readPointerSliceField(wc *wire.Decoder, fs FieldSchema, target Ann, store *StoreDesc) error {
	n, err := wc.ReadArrayHeader()
	if err != nil {
		return wireErrorf(err, "reading pointer-slice tuple for field %q", fs.Name())
	}
	if n != 2 {
		return wireErrorf(nil, "pointer-slice tuple for field %q has %d elements, want 2", fs.Name(), n)
	}
	a, err := wc.ReadInt32()
	if err != nil {
		return wireErrorf(err, "reading pointer-slice start for field %q", fs.Name())
	}
	b, err := wc.ReadInt32()
	if err != nil {
		return wireErrorf(err, "reading pointer-slice length for field %q", fs.Name())
	}
	// Pointer slices are [inclusive, inclusive]: a wire tuple (s, n) names
	// elements s .. s+n-1. The writer must emit len = stop - start + 1.
	start, err := storeGet(store, int(a), fs)
	if err != nil {
		return err
	}
	stop, err := storeGet(store, int(a+b-1), fs)
	if err != nil {
		return err
	}
	return fs.Set(target, Slice{Start: start, Stop: stop})
}

func readPointerCollectionField(wc *wire.Decoder, fs FieldSchema, target Ann, store *StoreDesc) error {
	n, err := wc.ReadArrayHeader()
	if err != nil {
		return wireErrorf(err, "reading pointer-collection array for field %q", fs.Name())
	}
	list := make([]Ann, 0, n)
	for i := 0; i < n; i++ {
		idx, err := wc.ReadInt32()
		if err != nil {
			return wireErrorf(err, "reading pointer-collection index %d for field %q", i, fs.Name())
		}
		ann, err := storeGet(store, int(idx), fs)
		if err != nil {
			return err
		}
		list = append(list, ann)
	}
	return fs.Set(target, list)
}

func storeGet(store *StoreDesc, idx int, fs FieldSchema) (Ann, error) {
	if store == nil {
		return nil, internalErrorf(nil, "pointer field %q has no bound target store", fs.Name())
	}
	if store.Lazy {
		return nil, schemaMismatchf("pointer field %q cannot point into lazy store %q", fs.Name(), store.StreamName)
	}
	if idx < 0 || idx >= store.Store.Len() {
		return nil, boundsErrorf("pointer field %q index %d out of range [0,%d)", fs.Name(), idx, store.Store.Len())
	}
	return store.Store.Get(idx), nil
}

func readPrimitiveField(wc *wire.Decoder, fs FieldSchema, target Ann) error {
	switch fs.PrimitiveType() {
	case TypeByte:
		v, err := wc.ReadUint8()
		if err != nil {
			return wireErrorf(err, "reading byte field %q", fs.Name())
		}
		return fs.Set(target, v)
	case TypeChar:
		v, err := wc.ReadInt32()
		if err != nil {
			return wireErrorf(err, "reading char field %q", fs.Name())
		}
		return fs.Set(target, uint16(v))
	case TypeInt16:
		v, err := wc.ReadInt32()
		if err != nil {
			return wireErrorf(err, "reading int16 field %q", fs.Name())
		}
		return fs.Set(target, int16(v))
	case TypeInt32:
		v, err := wc.ReadInt32()
		if err != nil {
			return wireErrorf(err, "reading int32 field %q", fs.Name())
		}
		return fs.Set(target, v)
	case TypeInt64:
		v, err := wc.ReadInt64()
		if err != nil {
			return wireErrorf(err, "reading int64 field %q", fs.Name())
		}
		return fs.Set(target, v)
	case TypeFloat32:
		v, err := wc.ReadFloat32()
		if err != nil {
			return wireErrorf(err, "reading float32 field %q", fs.Name())
		}
		return fs.Set(target, v)
	case TypeFloat64:
		v, err := wc.ReadFloat64()
		if err != nil {
			return wireErrorf(err, "reading float64 field %q", fs.Name())
		}
		return fs.Set(target, v)
	case TypeBool:
		v, err := wc.ReadBool()
		if err != nil {
			return wireErrorf(err, "reading bool field %q", fs.Name())
		}
		return fs.Set(target, v)
	default:
		return wireErrorf(nil, "field %q has unknown declared primitive type %d", fs.Name(), fs.PrimitiveType())
	}
}
