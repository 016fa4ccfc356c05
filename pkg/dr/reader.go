// Copyright (c) 2026 The Schwa Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package dr

import (
	"context"
	"io"
	"time"

	log "github.com/golang/glog"

	"github.com/schwa-lab/dr/internal/dr/wire"
	"github.com/schwa-lab/dr/pkg/slices"
)

// wireVersion is the only header byte this reader accepts. A stream
// declaring any other version is rejected outright: there is no
// version-negotiation fallback.
const wireVersion = 3

// maxNBytes bounds a single instance's declared byte length, the same
// validate-length-before-allocating discipline pkg/wal's deserializeRecord
// applies to a record's declared length before it allocates a buffer.
const maxNBytes = 1<<31 - 1

const metaClassName = "__meta__"

// Field map keys, as declared per-field in the wire's classes block.
const (
	fieldKeyName          = 0
	fieldKeyPointerTo     = 1
	fieldKeyIsSlice       = 2
	fieldKeyIsSelfPointer = 3
	fieldKeyIsCollection  = 4
)

// Reader decodes a stream of self-describing documents against a
// caller-declared static schema. Each document carries its own class and
// store declarations, reconciled against the static schema independently,
// so a single Reader can decode a heterogeneous stream. A Reader is not
// safe for concurrent use.
type Reader struct {
	wc        *wire.Decoder
	docSchema DocSchema

	// err is the terminal error from a previous ReadNext, if any. Once set,
	// every subsequent ReadNext returns it without touching the stream.
	err error
}

// NewReader returns a Reader that decodes documents matching docSchema from r.
func NewReader(r io.Reader, docSchema DocSchema) *Reader {
	return &Reader{wc: wire.NewDecoder(r), docSchema: docSchema}
}

// ReadNext decodes the next document in the stream. It returns (nil, io.EOF)
// on a clean end-of-stream: no bytes at all before where the wire-version
// byte would begin. Any decode error poisons the Reader — every subsequent
// call returns the same error without touching the stream again. An error
// from ctx is returned before anything is read and does not poison it.
func (r *Reader) ReadNext(ctx context.Context) (Doc, error) {
	if r.err != nil {
		return nil, r.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := r.readNext()
	if err != nil {
		if err == io.EOF {
			r.err = io.EOF
			return nil, io.EOF
		}
		r.err = err
		if de, ok := err.(*Error); ok {
			log.Errorf("dr: %v", de)
			decodeErrorsTotal.WithLabelValues(de.Kind.String()).Inc()
		} else {
			log.Errorf("dr: %v", err)
		}
		return nil, err
	}

	documentsDecodedTotal.Inc()
	decodeLatencySeconds.Observe(time.Since(start).Seconds())
	return doc, nil
}

func (r *Reader) readNext() (Doc, error) {
	if r.wc.AtEOF() {
		return nil, io.EOF
	}

	version, err := r.wc.ReadUint8()
	if err != nil {
		return nil, wireErrorf(err, "reading wire version")
	}
	if version != wireVersion {
		return nil, wireErrorf(nil, "wire version %d, want %d", version, wireVersion)
	}

	rt, doc, err := r.decodeHeader()
	if err != nil {
		return nil, err
	}
	log.V(1).Infof("dr: header decoded: %d classes, %d stores", len(rt.Classes), len(rt.Stores))

	if err := decodeDocInstance(r.wc, rt.Doc, doc); err != nil {
		return nil, err
	}

	for _, sd := range rt.Stores {
		if err := r.decodeStoreInstances(sd); err != nil {
			return nil, err
		}
	}

	doc.setRuntime(rt)
	return doc, nil
}

// decodeHeader parses the classes and stores blocks, reconciles each class
// and store against the static schema, allocates the document and its
// stores, and back-fills pointer fields' target stores. It returns the
// resulting runtime schema and the freshly allocated (not yet populated)
// document.
func (r *Reader) decodeHeader() (*RuntimeSchema, Doc, error) {
	rt := &RuntimeSchema{}

	owners := map[string]FieldsOwner{metaClassName: r.docSchema}
	for _, s := range r.docSchema.Schemas() {
		owners[s.SerialName()] = s
	}

	nclasses, err := r.wc.ReadArrayHeader()
	if err != nil {
		return nil, nil, wireErrorf(err, "reading classes block header")
	}
	docClassID := -1
	for k := 0; k < nclasses; k++ {
		cd, err := r.decodeClass(k, owners)
		if err != nil {
			return nil, nil, err
		}
		if cd.StreamName == metaClassName {
			docClassID = k
		}
		rt.Classes = append(rt.Classes, cd)
	}
	if docClassID < 0 {
		return nil, nil, missingMetaError()
	}
	rt.Doc = rt.Classes[docClassID]

	doc := r.docSchema.NewDoc()

	storesBySerial := map[string]StoreSchema{}
	for _, s := range r.docSchema.Stores() {
		storesBySerial[s.SerialName()] = s
	}

	nstores, err := r.wc.ReadArrayHeader()
	if err != nil {
		return nil, nil, wireErrorf(err, "reading stores block header")
	}
	for n := 0; n < nstores; n++ {
		sd, err := r.decodeStore(n, rt, doc, storesBySerial)
		if err != nil {
			return nil, nil, err
		}
		rt.Stores = append(rt.Stores, sd)
	}

	if err := backfillPointers(rt); err != nil {
		return nil, nil, err
	}

	return rt, doc, nil
}

// decodeClass parses one entry of the classes block: a (name, fields) pair.
// A class whose name has no static counterpart is marked Lazy; its
// instances are never structurally parsed, only preserved verbatim. A
// store's annotation class legitimately declaring zero fields (a marker
// annotation) is not an error.
func (r *Reader) decodeClass(k int, owners map[string]FieldsOwner) (*ClassDesc, error) {
	pairN, err := r.wc.ReadArrayHeader()
	if err != nil {
		return nil, wireErrorf(err, "reading class %d entry header", k)
	}
	if pairN != 2 {
		return nil, wireErrorf(nil, "class %d entry has %d elements, want 2", k, pairN)
	}
	klassName, err := r.wc.ReadString()
	if err != nil {
		return nil, wireErrorf(err, "reading class %d name", k)
	}

	cd := &ClassDesc{ID: k, StreamName: klassName}
	if owner, ok := owners[klassName]; ok {
		cd.Static = owner
	} else {
		cd.Lazy = true
	}

	nfields, err := r.wc.ReadArrayHeader()
	if err != nil {
		return nil, wireErrorf(err, "reading field count for class %q", klassName)
	}
	var seen []string
	for f := 0; f < nfields; f++ {
		fd, err := r.decodeField(f, klassName, cd)
		if err != nil {
			return nil, err
		}
		if slices.ContainsString(seen, fd.StreamName) {
			return nil, wireErrorf(nil, "class %q declares field %q more than once", klassName, fd.StreamName)
		}
		seen = append(seen, fd.StreamName)
		cd.Fields = append(cd.Fields, fd)
	}
	return cd, nil
}

// decodeField parses one field-map entry within a class declaration and
// reconciles its four structural flags (is-pointer, is-slice,
// is-self-pointer, is-collection) against the matching static field, if
// any. A structural disagreement is always an error, including the
// asymmetric case of a static field declaring itself a pointer while the
// stream's field map omits key 1.
func (r *Reader) decodeField(f int, klassName string, cd *ClassDesc) (*FieldDesc, error) {
	nitems, err := r.wc.ReadMapHeader()
	if err != nil {
		return nil, wireErrorf(err, "reading field %d map header of class %q", f, klassName)
	}

	var (
		fieldName                                       string
		haveName                                         bool
		storeID                                          int32
		isPointer, isSlice, isSelfPointer, isCollection bool
	)
	for i := 0; i < nitems; i++ {
		key, err := r.wc.ReadUint8()
		if err != nil {
			return nil, wireErrorf(err, "reading key %d of field %d of class %q", i, f, klassName)
		}
		switch key {
		case fieldKeyName:
			fieldName, err = r.wc.ReadString()
			haveName = true
		case fieldKeyPointerTo:
			storeID, err = r.wc.ReadInt32()
			isPointer = true
		case fieldKeyIsSlice:
			err = r.wc.ReadNil()
			isSlice = true
		case fieldKeyIsSelfPointer:
			err = r.wc.ReadNil()
			isSelfPointer = true
		case fieldKeyIsCollection:
			err = r.wc.ReadNil()
			isCollection = true
		default:
			return nil, wireErrorf(nil, "field %d of class %q has unknown map key %d", f, klassName, key)
		}
		if err != nil {
			return nil, wireErrorf(err, "reading field %d of class %q", f, klassName)
		}
	}
	if !haveName {
		return nil, wireErrorf(nil, "field %d of class %q has no name", f, klassName)
	}

	fd := &FieldDesc{ID: f, StreamName: fieldName, TargetStoreID: -1}
	if isPointer {
		fd.TargetStoreID = int(storeID)
	}

	if cd.Lazy {
		fd.Lazy = true
		return fd, nil
	}

	var match FieldSchema
	for _, cand := range cd.Static.Fields() {
		if cand.SerialName() == fieldName {
			match = cand
			break
		}
	}
	if match == nil {
		fd.Lazy = true
		return fd, nil
	}

	k := match.Kind()
	switch {
	case k.HasTargetStore() != isPointer:
		return nil, schemaMismatchf("field %q of class %q: static declares is-pointer=%v, stream says %v", fieldName, klassName, k.HasTargetStore(), isPointer)
	case k.IsSlice() != isSlice:
		return nil, schemaMismatchf("field %q of class %q: static declares is-slice=%v, stream says %v", fieldName, klassName, k.IsSlice(), isSlice)
	case k.IsSelfPointer() != isSelfPointer:
		return nil, schemaMismatchf("field %q of class %q: static declares is-self-pointer=%v, stream says %v", fieldName, klassName, k.IsSelfPointer(), isSelfPointer)
	case k.IsCollection() != isCollection:
		return nil, schemaMismatchf("field %q of class %q: static declares is-collection=%v, stream says %v", fieldName, klassName, k.IsCollection(), isCollection)
	}
	fd.Static = match
	return fd, nil
}

// decodeStore parses one entry of the stores block: a (name, klass_id,
// n_elem) triple. A store name with no static counterpart is marked Lazy.
// Otherwise the matched runtime class must itself be non-lazy and must
// resolve to the exact annotation class the static store declares.
func (r *Reader) decodeStore(n int, rt *RuntimeSchema, doc Doc, storesBySerial map[string]StoreSchema) (*StoreDesc, error) {
	tripleN, err := r.wc.ReadArrayHeader()
	if err != nil {
		return nil, wireErrorf(err, "reading store %d entry header", n)
	}
	if tripleN != 3 {
		return nil, wireErrorf(nil, "store %d entry has %d elements, want 3", n, tripleN)
	}
	storeName, err := r.wc.ReadString()
	if err != nil {
		return nil, wireErrorf(err, "reading store %d name", n)
	}
	klassID, err := r.wc.ReadInt32()
	if err != nil {
		return nil, wireErrorf(err, "reading class id for store %q", storeName)
	}
	nElem32, err := r.wc.ReadInt32()
	if err != nil {
		return nil, wireErrorf(err, "reading element count for store %q", storeName)
	}
	nElem := int(nElem32)
	if nElem < 0 {
		return nil, wireErrorf(nil, "store %q declares negative element count %d", storeName, nElem)
	}
	if int(klassID) < 0 || int(klassID) >= len(rt.Classes) {
		return nil, boundsErrorf("store %q refers to class id %d, have %d classes", storeName, klassID, len(rt.Classes))
	}
	klass := rt.Classes[klassID]

	sd := &StoreDesc{ID: n, StreamName: storeName, Class: klass, NElem: nElem}

	staticStore, ok := storesBySerial[storeName]
	if !ok {
		sd.Lazy = true
		return sd, nil
	}
	if klass.Lazy {
		return nil, schemaMismatchf("store %q declares class %q but its stream class %q was not recognized", storeName, staticStore.StoredClass().SerialName(), klass.StreamName)
	}
	annSchema, ok := klass.Static.(AnnSchema)
	if !ok {
		return nil, schemaMismatchf("store %q's stream class %q resolved to the document class, not an annotation class", storeName, klass.StreamName)
	}
	if annSchema.SerialName() != staticStore.StoredClass().SerialName() {
		return nil, schemaMismatchf("store %q declares class %q but its stream class %q resolved to %q", storeName, staticStore.StoredClass().SerialName(), klass.StreamName, annSchema.SerialName())
	}

	sd.Static = staticStore
	store, err := staticStore.Resize(nElem, doc)
	if err != nil {
		return nil, internalErrorf(err, "resizing store %q to %d elements", storeName, nElem)
	}
	sd.Store = store
	return sd, nil
}

// backfillPointers fills in the target store of each non-lazy field whose
// static kind has a declared target store, now that every store is known.
// Lazy fields are not bound and their wire store ids are not range-checked.
// It is a separate pass because a class earlier in
// the classes block may declare a field pointing at a store declared later
// in the stores block.
func backfillPointers(rt *RuntimeSchema) error {
	for _, cd := range rt.Classes {
		for _, fd := range cd.Fields {
			if fd.Lazy || fd.Static == nil || !fd.Static.Kind().HasTargetStore() {
				continue
			}
			if fd.TargetStoreID < 0 || fd.TargetStoreID >= len(rt.Stores) {
				return boundsErrorf("field %q of class %q points to store id %d, have %d stores", fd.StreamName, cd.StreamName, fd.TargetStoreID, len(rt.Stores))
			}
			store := rt.Stores[fd.TargetStoreID]
			if !store.Lazy {
				want := fd.Static.PointedToClass()
				got, ok := store.Class.Static.(AnnSchema)
				if !ok || got.SerialName() != want.SerialName() {
					return schemaMismatchf("field %q of class %q declares target class %q but store %q holds class %q", fd.StreamName, cd.StreamName, want.SerialName(), store.StreamName, store.Class.StreamName)
				}
			}
			fd.TargetStore = store
		}
	}
	return nil
}

// decodeDocInstance reads <doc_instance> ::= <nbytes:i64> <instance> and
// populates doc. If the document class has no static fields at all, or the
// stream declares none for it, the nbytes bytes are read verbatim instead of
// being structurally parsed and attached with doc.SetDRLazy(raw, 0).
func decodeDocInstance(wc *wire.Decoder, cd *ClassDesc, doc Doc) error {
	nbytes, err := wc.ReadInt64()
	if err != nil {
		return wireErrorf(err, "reading doc instance byte length")
	}
	if nbytes < 0 || nbytes > maxNBytes {
		return boundsErrorf("doc instance declares %d bytes, want [0,%d]", nbytes, maxNBytes)
	}

	if cd.Lazy || len(cd.Static.Fields()) == 0 || len(cd.Fields) == 0 {
		raw, err := wc.ReadRaw(int(nbytes))
		if err != nil {
			return wireErrorf(err, "reading verbatim doc instance body")
		}
		doc.SetDRLazy(raw, 0)
		return nil
	}

	wc.StartCapture()
	if err := decodeInstanceFields(wc, cd, doc, nil); err != nil {
		return err
	}
	consumed := wc.StopCapture()
	if int64(len(consumed)) != nbytes {
		return wireErrorf(nil, "doc instance declared %d bytes but its fields consumed %d", nbytes, len(consumed))
	}
	return nil
}

// decodeInstanceFields reads <instance> ::= map of field_id:i32 -> value and
// populates target, field by field, resolving each map key against cd's
// field list by position. A field with no static match, and any field
// whose static declaration marks it ModeReadOnly, has its raw wire bytes
// packed into target's lazy slab in addition to (for ModeReadOnly) being
// materialized normally. currentStore is the StoreDesc of the store
// presently being decoded (nil when decoding the document's own fields);
// self-pointer fields resolve against it.
func decodeInstanceFields(wc *wire.Decoder, cd *ClassDesc, target Ann, currentStore *StoreDesc) error {
	nitems, err := wc.ReadMapHeader()
	if err != nil {
		return wireErrorf(err, "reading instance map header for class %q", cd.StreamName)
	}

	var lazy []byte
	nLazy := 0
	for i := 0; i < nitems; i++ {
		key, err := wc.ReadInt32()
		if err != nil {
			return wireErrorf(err, "reading field id %d of instance of class %q", i, cd.StreamName)
		}
		fd, err := fieldByID(cd, int(key))
		if err != nil {
			return err
		}
		switch {
		case fd.Lazy || fd.Static == nil:
			raw, err := wc.ReadOpaqueValue()
			if err != nil {
				return wireErrorf(err, "reading unrecognized field %q of class %q", fd.StreamName, cd.StreamName)
			}
			lazy = packLazyField(lazy, fd.ID, raw)
			nLazy++
		case fd.Static.Mode() == ModeReadOnly:
			wc.StartCapture()
			if err := readField(wc, fd, target, currentStore); err != nil {
				return setError(err, fd)
			}
			lazy = packLazyField(lazy, fd.ID, wc.StopCapture())
			nLazy++
		default:
			if err := readField(wc, fd, target, currentStore); err != nil {
				return setError(err, fd)
			}
		}
	}
	if nLazy != 0 {
		target.SetDRLazy(lazy, nLazy)
	}
	return nil
}

// setError passes an *Error from readField through unchanged and reports
// any other error, which can only come from the static field's Set, as an
// InternalError.
func setError(err error, fd *FieldDesc) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return internalErrorf(err, "setting field %q", fd.StreamName)
}

// fieldByID resolves an instance map's field_id key to the runtime field
// declared at that position in cd's classes-block field list.
func fieldByID(cd *ClassDesc, id int) (*FieldDesc, error) {
	if id < 0 || id >= len(cd.Fields) {
		return nil, boundsErrorf("instance of class %q references field id %d, have %d fields", cd.StreamName, id, len(cd.Fields))
	}
	return cd.Fields[id], nil
}

// decodeStoreInstances reads one store's <instances_group> ::= <nbytes:i64>
// array_of <instance>: a single byte length covering the whole group,
// followed by one array header and that many bare instances. A lazy
// store's nbytes bytes are preserved verbatim in LazyBytes without being
// structurally parsed at all, including the array header. Otherwise each
// pre-allocated instance from sd.Store is decoded in place.
func (r *Reader) decodeStoreInstances(sd *StoreDesc) error {
	nbytes, err := r.wc.ReadInt64()
	if err != nil {
		return wireErrorf(err, "reading instance group byte length for store %q", sd.StreamName)
	}
	if nbytes < 0 || nbytes > maxNBytes {
		return boundsErrorf("instance group for store %q declares %d bytes, want [0,%d]", sd.StreamName, nbytes, maxNBytes)
	}

	if sd.Lazy {
		raw, err := r.wc.ReadRaw(int(nbytes))
		if err != nil {
			return wireErrorf(err, "reading verbatim instance group for store %q", sd.StreamName)
		}
		sd.LazyBytes = raw
		return nil
	}

	r.wc.StartCapture()
	ninstances, err := r.wc.ReadArrayHeader()
	if err != nil {
		return wireErrorf(err, "reading instance array header for store %q", sd.StreamName)
	}
	if ninstances != sd.NElem {
		return boundsErrorf("store %q declared %d elements but its instance array has %d", sd.StreamName, sd.NElem, ninstances)
	}
	for i := 0; i < ninstances; i++ {
		ann := sd.Store.Get(i)
		if err := decodeInstanceFields(r.wc, sd.Class, ann, sd); err != nil {
			return err
		}
	}
	consumed := r.wc.StopCapture()
	if int64(len(consumed)) != nbytes {
		return wireErrorf(nil, "instance group for store %q declared %d bytes but its instances consumed %d", sd.StreamName, nbytes, len(consumed))
	}
	return nil
}
