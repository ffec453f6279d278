// Package wordstuff implements a 2-byte variant of consistent overhead byte
// stuffing: it transforms arbitrary bytes into a stream that never contains
// a chosen marker sequence, so that sequence can be used as a
// self-synchronizing frame delimiter.
//
// The marker is 0xFE 0xFD, chosen because it does not occur inside small
// signed or unsigned integers of any width or endianness, inside varints,
// or inside floats/doubles with exponents near small integers. Run lengths
// are encoded in base 253 (radix) so that a length field can never itself
// contain the marker.
package wordstuff

import (
	"errors"
	"math"
)

const (
	// Radix is the base used to encode run lengths. Because every digit is
	// strictly less than Radix, no run-length field can contain the first
	// marker byte followed by the second.
	Radix = 0xFD

	// MaxInitialRun is the largest literal run the first chunk of a record
	// can encode with its single-byte length field.
	MaxInitialRun = Radix - 1 // 252

	// MaxRemainingRun is the largest literal run any chunk after the first
	// can encode with its two-byte little-endian base-Radix length field.
	MaxRemainingRun = Radix*Radix - 1 // 64008

	// HeaderSize is the length of the marker sequence in bytes.
	HeaderSize = 2
)

// Marker is the 2-byte forbidden sequence used to delimit encoded records.
var Marker = [HeaderSize]byte{0xFE, 0xFD}

// Sentinel decode errors. The iterator treats all of these as "corrupted
// region" and simply skips to the next marker.
var (
	ErrTruncatedHeader = errors.New("wordstuff: truncated run-length header")
	ErrRunTooLong      = errors.New("wordstuff: run length exceeds maximum for this chunk")
	ErrRunPastEnd      = errors.New("wordstuff: run length exceeds remaining input")
	ErrMissingMarker   = errors.New("wordstuff: expected marker after short run")
)

// FindMarker returns the offset of the first occurrence of Marker in
// buf[0:len(buf)], or len(buf) if the marker does not occur.
func FindMarker(buf []byte) int {
	if len(buf) < HeaderSize {
		return len(buf)
	}
	limit := len(buf) - 1
	for i := 0; i < limit; i++ {
		if buf[i] == Marker[0] && buf[i+1] == Marker[1] {
			return i
		}
	}
	return len(buf)
}

// maxSafeInput caps the size we'll attempt to bound, well above any
// realistic payload but low enough that the bound computation cannot
// overflow an int on 32-bit platforms.
const maxSafeInput = math.MaxInt / 2

// StuffedBound returns a safe over-approximation of the stuffed size of an
// n-byte payload, optionally including the 2-byte leading marker. It
// returns -1 if n is unreasonably large (an overflow sentinel, since Go has
// no portable SIZE_MAX).
func StuffedBound(n int, withHeader bool) int {
	if n < 0 || n > maxSafeInput {
		return -1
	}
	bound := n
	if withHeader {
		bound += HeaderSize + 1
	} else {
		bound += 1
	}
	if n >= MaxInitialRun {
		remaining := n - MaxInitialRun
		bound += HeaderSize * (1 + remaining/MaxRemainingRun)
	}
	// Matches CRDB_WORD_STUFFED_BOUND's slightly looser over-count (it adds
	// a flat "2 +" chunk-header terms instead of "1 +"); keep our estimate
	// at or below that bound so compile-time-computed buffer sizes based on
	// the macro-equivalent formula remain safe upper bounds for this value.
	return bound
}

// Encode word-stuffs src into a freshly allocated slice that is guaranteed
// to contain no occurrence of Marker, and from which Decode reproduces src
// byte-for-byte.
func Encode(src []byte) []byte {
	dst := make([]byte, 0, StuffedBound(len(src), false))
	return EncodeInto(dst, src)
}

// EncodeInto appends the word-stuffed encoding of src to dst and returns the
// extended slice. dst may be nil or have spare capacity from a pool.
func EncodeInto(dst []byte, src []byte) []byte {
	first := true
	for {
		maxRun := MaxRemainingRun
		if first {
			maxRun = MaxInitialRun
		}

		limit := maxRun
		if limit > len(src) {
			limit = len(src)
		}
		runLen := FindMarker(src[:limit])

		if first {
			dst = append(dst, byte(runLen))
			first = false
		} else {
			dst = append(dst, byte(runLen%Radix), byte(runLen/Radix))
		}
		dst = append(dst, src[:runLen]...)
		src = src[runLen:]

		if runLen < maxRun {
			if len(src) == 0 {
				break
			}
			// A marker must be present; consume it without copying it.
			src = src[HeaderSize:]
		}
	}
	return dst
}

// Decode reverses Encode. It returns the decoded bytes, or an error if src
// is malformed. Decode never reads past len(src) and never produces more
// than len(src)-1 bytes of output.
func Decode(src []byte) ([]byte, error) {
	dst := make([]byte, 0, len(src))
	first := true

	for {
		maxRun := MaxRemainingRun
		var runLen int

		if first {
			if len(src) < 1 {
				return nil, ErrTruncatedHeader
			}
			maxRun = MaxInitialRun
			runLen = int(src[0])
			src = src[1:]
			first = false
		} else {
			if len(src) < HeaderSize {
				return nil, ErrTruncatedHeader
			}
			runLen = int(src[0]) + Radix*int(src[1])
			src = src[HeaderSize:]
		}

		if runLen > maxRun {
			return nil, ErrRunTooLong
		}
		if runLen > len(src) {
			return nil, ErrRunPastEnd
		}

		dst = append(dst, src[:runLen]...)
		src = src[runLen:]

		if runLen < maxRun {
			// A run shorter than the chunk maximum was implicitly
			// terminated by a marker in the original payload. That
			// marker was elided from the encoded form (it's exactly
			// what made the form marker-free), so we must reinsert
			// its two literal bytes into the decoded output here -
			// unless this is the virtual marker appended past the
			// true end of input, in which case we're done.
			if len(src) == 0 {
				break
			}
			if len(src) < HeaderSize {
				return nil, ErrMissingMarker
			}
			dst = append(dst, Marker[0], Marker[1])
		}
	}

	return dst, nil
}
