// Package envelope implements the fixed 8-byte {crc, generation} header
// that every record-stream payload is wrapped in before word-stuffing.
package envelope

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// HeaderSize is the length in bytes of the packed {crc, generation} header
// that precedes every payload.
const HeaderSize = 8

// crcInitial is the CRC32C seed. CRC32C has the property that prepending
// zeros to the input leaves the checksum unchanged; seeding with all-ones
// instead of the conventional zero means a run of zero bytes (a sparse hole,
// a partially-zero-filled region) can never accidentally checksum.
const crcInitial = 0xFFFFFFFF

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ErrTooShort is returned by Verify when buf is too small to contain a header.
var ErrTooShort = errors.New("envelope: buffer shorter than header")

// ErrChecksumMismatch is returned by Verify when the stored CRC does not
// match the recomputed one.
var ErrChecksumMismatch = errors.New("envelope: checksum mismatch")

// Pack writes generation and payload into a freshly allocated buffer
// prefixed by an 8-byte header, and fills in the header's CRC32C checksum.
//
// The checksum covers the header (with its crc field temporarily set to
// crcInitial) followed by the payload; integers are encoded in host byte
// order, matching the original C implementation's "not portable across
// endianness" on-disk contract.
func Pack(generation uint32, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	binary.NativeEndian.PutUint32(buf[0:4], crcInitial)
	binary.NativeEndian.PutUint32(buf[4:8], generation)
	copy(buf[HeaderSize:], payload)

	checksum := crc32.Update(crcInitial, castagnoli, buf)
	binary.NativeEndian.PutUint32(buf[0:4], checksum)
	return buf
}

// Verify parses buf as a packed envelope, recomputes its CRC32C with the
// crc field reset to crcInitial, and returns the generation and payload on
// a match. On mismatch, or if buf is shorter than HeaderSize, it returns an
// error; the iterator treats either as a corrupted record.
func Verify(buf []byte) (generation uint32, payload []byte, err error) {
	if len(buf) < HeaderSize {
		return 0, nil, ErrTooShort
	}

	expected := binary.NativeEndian.Uint32(buf[0:4])
	generation = binary.NativeEndian.Uint32(buf[4:8])

	recomputeBuf := make([]byte, len(buf))
	copy(recomputeBuf, buf)
	binary.NativeEndian.PutUint32(recomputeBuf[0:4], crcInitial)

	actual := crc32.Update(crcInitial, castagnoli, recomputeBuf)
	if actual != expected {
		return 0, nil, ErrChecksumMismatch
	}

	return generation, buf[HeaderSize:], nil
}
