package recordstream

import (
	"github.com/corestream/recordstream/internal/envelope"
	"github.com/corestream/recordstream/internal/wordstuff"
)

// Iterator scans a record stream (a byte slice, possibly backed by a
// memory-mapped file) for valid records, recovering every one whose bytes
// decode and checksum successfully and silently skipping everything else.
//
// An Iterator is not safe for concurrent use. Writers must not share a
// mutable Iterator with readers.
type Iterator struct {
	data []byte

	begin  int
	end    int
	stopAt int
	cursor int

	firstNonzero int
	firstRecord  bool

	// skipped accumulates the size, in bytes, of every candidate region
	// Next has discarded: trailing garbage, corrupted envelopes, and
	// malformed word-stuffed regions. See SkippedBytes.
	skipped int64

	// unmap, if non-nil, releases the memory-mapped region backing data.
	// It is nil for iterators opened with OpenBuf.
	unmap func() error
}

// OpenBuf constructs an iterator that scans buf for records. Close is a
// no-op for iterators created this way; buf remains owned by the caller.
func OpenBuf(buf []byte) *Iterator {
	return &Iterator{
		data:         buf,
		begin:        0,
		end:          len(buf),
		stopAt:       len(buf),
		cursor:       0,
		firstNonzero: 0,
		firstRecord:  true,
	}
}

// Close releases any resources (such as a memory-mapped region) owned by
// the iterator. It is safe to call more than once.
func (it *Iterator) Close() error {
	if it.unmap == nil {
		return nil
	}
	err := it.unmap()
	it.unmap = nil
	return err
}

// Size returns the number of bytes in the record stream backing it.
func (it *Iterator) Size() int64 {
	return int64(it.end - it.begin)
}

// SkippedBytes returns the total number of bytes Next has silently
// discarded so far across this iterator's lifetime: trailing garbage that
// never resolves to a marker, and candidate regions that found a marker
// but failed to decode or checksum. Callers that want to know whether a
// scan recovered the entire stream intact, rather than merely whether it
// found any records at all, should check this after exhausting Next.
// A bare marker with nothing after it before the next marker or the end of
// the stream, such as the trailing marker every append leaves behind, is
// framing and is not counted.
func (it *Iterator) SkippedBytes() int64 {
	return it.skipped
}

// LocateAt sets the iterator's cursor to offset bytes past the start of the
// stream. It fails (returning false, leaving the iterator unchanged) if
// offset is before the first byte that could possibly start a record (the
// first nonzero byte) or after the iterator's current stop offset.
//
// Paired with StopAt, this partitions a stream into non-overlapping
// half-open ranges, classifying records by the offset of their first byte.
func (it *Iterator) LocateAt(offset int64) bool {
	o := int(offset)
	lo := it.firstNonzero - it.begin
	hi := it.stopAt - it.begin
	if o < lo || o > hi {
		return false
	}

	if o == lo {
		it.firstRecord = true
		it.cursor = it.firstNonzero
		return true
	}

	it.firstRecord = false
	it.cursor = it.begin + o
	return true
}

// StopAt clamps the iterator's upper bound: Next will not return a record
// whose first byte (including its leading marker) is at or after offset.
// It is a no-op if offset exceeds the underlying stream size.
func (it *Iterator) StopAt(offset int64) {
	o := int(offset)
	if o > it.end-it.begin {
		return
	}
	it.stopAt = it.begin + o
}

// Next decodes and returns the next valid record. It returns ok == false
// once the iterator reaches its stop offset; subsequent calls continue to
// return false.
func (it *Iterator) Next() (generation uint32, payload []byte, ok bool) {
	for it.cursor < it.stopAt {
		generation, payload, ok = it.nextCandidate()
		if ok {
			return generation, payload, true
		}
	}
	it.cursor = it.end
	return 0, nil, false
}

// nextCandidate consumes one candidate record (advancing it.cursor past it
// regardless of outcome, to guarantee forward progress), tallies its span
// into skipped on failure unless it was a bare marker, and reports whether
// it decoded and checksummed successfully.
func (it *Iterator) nextCandidate() (uint32, []byte, bool) {
	start := it.cursor
	generation, payload, ok := it.scanCandidate()
	if !ok {
		bareMarker := it.cursor-start == wordstuff.HeaderSize &&
			it.data[start] == wordstuff.Marker[0] && it.data[start+1] == wordstuff.Marker[1]
		if !bareMarker {
			it.skipped += int64(it.cursor - start)
		}
	}
	return generation, payload, ok
}

// scanCandidate is nextCandidate's actual scan; split out so nextCandidate
// can tally the discarded span from a single place regardless of which
// failure path below was taken.
func (it *Iterator) scanCandidate() (uint32, []byte, bool) {
	var header, encodedStart int

	// Encode never emits the marker as a record's first byte (the leading
	// run-length byte tops out at MaxInitialRun, 0xFC, below Marker[0]), so
	// finding the marker sitting at the cursor can only mean a marker was
	// explicitly written there - by AppendInitial on a file with no records
	// yet, or by a previous record's trailing marker with nothing after it.
	// Treat that the same as any other inter-record marker instead of
	// mistaking it for the start of encoded data.
	atMarker := it.cursor+wordstuff.HeaderSize <= it.end &&
		it.data[it.cursor] == wordstuff.Marker[0] && it.data[it.cursor+1] == wordstuff.Marker[1]

	if it.firstRecord && !atMarker {
		// The very first record in a stream needs no leading marker: the
		// beginning of file acts as an implicit one.
		it.firstRecord = false
		header = it.cursor
		encodedStart = it.cursor
	} else {
		it.firstRecord = false
		rel := wordstuff.FindMarker(it.data[it.cursor:it.end])
		markerPos := it.cursor + rel
		if markerPos >= it.stopAt {
			it.cursor = it.end
			return 0, nil, false
		}
		header = markerPos
		encodedStart = markerPos + wordstuff.HeaderSize
	}

	if header >= it.stopAt {
		it.cursor = it.end
		return 0, nil, false
	}

	relNext := wordstuff.FindMarker(it.data[encodedStart:it.end])
	nextHeader := encodedStart + relNext
	it.cursor = nextHeader

	encodedLen := nextHeader - encodedStart
	if encodedLen > ReadBufLen {
		return 0, nil, false
	}

	decoded, err := wordstuff.Decode(it.data[encodedStart:nextHeader])
	if err != nil {
		return 0, nil, false
	}

	generation, payload, err := envelope.Verify(decoded)
	if err != nil {
		return 0, nil, false
	}

	return generation, payload, true
}
