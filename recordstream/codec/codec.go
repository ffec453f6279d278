// Package codec is a thin structured-message adapter over recordstream: it
// gob-encodes a value before calling recordstream.AppendPayload, and
// gob-decodes a value out of whatever recordstream.Iterator.Next returns.
//
// gob keeps this adapter dependency-free while still demonstrating a
// concrete structured-message serializer on top of the opaque byte-slice
// payloads recordstream itself deals in; recordstream never imports this
// package.
package codec

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/corestream/recordstream/recordstream"
)

// AppendGob gob-encodes v and appends it to f as a single record.
func AppendGob(f *os.File, generation uint32, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("codec: gob encode: %w", err)
	}
	return recordstream.AppendPayload(f, generation, buf.Bytes())
}

// Iterator wraps a recordstream.Iterator, decoding each payload into a
// caller-provided value.
type Iterator struct {
	inner *recordstream.Iterator
}

// NewIterator wraps inner for gob decoding.
func NewIterator(inner *recordstream.Iterator) *Iterator {
	return &Iterator{inner: inner}
}

// NextGob decodes the next valid record's payload into v.
//
// If a record's bytes are syntactically sound (they decode and checksum)
// but fail to gob-decode into v - for example, a schema change made an
// older record's payload unparsable - NextGob skips it and tries the next
// record, rather than returning an error: such a record is semantically
// stale, not corrupt.
func (it *Iterator) NextGob(v any) (generation uint32, ok bool, err error) {
	for {
		generation, payload, found := it.inner.Next()
		if !found {
			return 0, false, nil
		}

		decErr := gob.NewDecoder(bytes.NewReader(payload)).Decode(v)
		if decErr != nil {
			continue
		}
		return generation, true, nil
	}
}

// Close releases the underlying iterator's resources.
func (it *Iterator) Close() error {
	return it.inner.Close()
}
