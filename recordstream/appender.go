package recordstream

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/corestream/recordstream/internal/envelope"
	"github.com/corestream/recordstream/internal/wordstuff"
)

// ErrPayloadTooLarge is returned by AppendPayload when the payload exceeds
// MaxPayload bytes. The append is rejected synchronously; nothing is
// written.
var ErrPayloadTooLarge = errors.New("recordstream: payload exceeds maximum size")

// numWriteAttempts bounds the retries AppendInitial and AppendPayload make
// on a short or interrupted write.
const numWriteAttempts = 3

// AppendInitial ensures f ends with the marker sequence, so that the next
// AppendPayload call can assume a marker already precedes its record. It is
// always safe to call, including on a fresh empty file, and is idempotent:
// calling it any number of times before any appends leaves the file reading
// as empty.
//
// f must be opened with os.O_APPEND; AppendInitial may seek it to inspect
// the trailing bytes, but O_APPEND writes ignore the current file offset,
// so this never affects subsequent appends.
func AppendInitial(f *os.File) error {
	if fileEndsWithMarker(f) {
		return nil
	}
	return appendBytes(f, wordstuff.Marker[:])
}

// AppendPayload packs generation and payload into an envelope, word-stuffs
// it, and appends it to f along with a preemptive trailing marker for the
// next record.
//
// f must be opened with os.O_APPEND so the kernel positions each write at
// end-of-file.
func AppendPayload(f *os.File, generation uint32, payload []byte) error {
	if len(payload) > MaxPayload {
		return ErrPayloadTooLarge
	}

	env := envelope.Pack(generation, payload)
	encoded := wordstuff.EncodeInto(make([]byte, 0, wordstuff.StuffedBound(len(env), false)+wordstuff.HeaderSize), env)
	// The trailing marker is written eagerly, rather than as a header on
	// the next append, because crashes most often truncate the tail of the
	// file: having the marker in place sooner improves recoverability.
	encoded = append(encoded, wordstuff.Marker[0], wordstuff.Marker[1])

	return appendBytes(f, encoded)
}

func fileEndsWithMarker(f *os.File) bool {
	var buf [wordstuff.HeaderSize]byte
	if _, err := f.Seek(-int64(len(buf)), io.SeekEnd); err != nil {
		// Fewer than HeaderSize bytes in the file (including empty):
		// treat as "marker not present".
		return false
	}
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return false
	}
	return buf[0] == wordstuff.Marker[0] && buf[1] == wordstuff.Marker[1]
}

// appendBytes repeatedly attempts to write buf to the end of f.
//
// The first attempt writes buf as-is, trusting that a previous append left
// a trailing marker in place. If any attempt is short (partial bytes
// written, but fewer than expected), subsequent retries prepend a fresh
// marker: the previously written trailing marker can no longer be assumed
// present at the new end-of-file, since another writer or the short write
// itself may have invalidated that assumption. On final failure after
// partial progress, one best-effort write of just a marker is made to
// reduce damage to the next record.
func appendBytes(f *os.File, payload []byte) error {
	needsMarker := false
	var lastErr error
	var lastWritten, lastExpected int
	partial := false

	for attempt := 0; attempt < numWriteAttempts; attempt++ {
		buf := payload
		if needsMarker {
			buf = make([]byte, 0, wordstuff.HeaderSize+len(payload))
			buf = append(buf, wordstuff.Marker[0], wordstuff.Marker[1])
			buf = append(buf, payload...)
		}

		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			lastErr = err
			continue
		}

		n, err := f.Write(buf)
		lastWritten, lastExpected = n, len(buf)
		lastErr = err
		if err == nil && n == len(buf) {
			return nil
		}

		if n <= 0 {
			// Failed without making progress; just retry.
			continue
		}

		partial = true
		needsMarker = true
	}

	if partial {
		// Best-effort: if this also fails, there's not much more we can do
		// against what is probably a storage-media or quota problem.
		if _, err := f.Seek(0, io.SeekEnd); err == nil {
			_, _ = f.Write(wordstuff.Marker[:])
		}
	}

	if lastErr != nil {
		return fmt.Errorf("recordstream: append failed: %w", lastErr)
	}
	return fmt.Errorf("recordstream: short write (%d of %d bytes)", lastWritten, lastExpected)
}

// SerialAppender wraps a *os.File with a mutex so a single process can
// serialize its own writers without relying solely on kernel O_APPEND
// atomicity. It is optional: AppendPayload and AppendInitial take no lock
// of their own, matching the package's "no shared state at process scope"
// design - use SerialAppender only when multiple goroutines in the same
// process append to the same file concurrently.
type SerialAppender struct {
	mu sync.Mutex
	f  *os.File
}

// NewSerialAppender returns a SerialAppender backed by f, which must be
// opened with os.O_APPEND.
func NewSerialAppender(f *os.File) *SerialAppender {
	return &SerialAppender{f: f}
}

// AppendInitial behaves like the package-level AppendInitial, serialized
// against concurrent calls on the same SerialAppender.
func (s *SerialAppender) AppendInitial() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AppendInitial(s.f)
}

// AppendPayload behaves like the package-level AppendPayload, serialized
// against concurrent calls on the same SerialAppender.
func (s *SerialAppender) AppendPayload(generation uint32, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AppendPayload(s.f, generation, payload)
}
