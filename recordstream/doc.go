// Package recordstream implements a corruption-resilient append-only record
// stream for small, self-delimiting binary payloads persisted to a regular
// file.
//
// Each record carries an application-supplied 32-bit generation counter
// plus an opaque payload of at most MaxPayload bytes. Records are wrapped
// in a CRC32C-protected envelope (internal/envelope), word-stuffed so a
// 2-byte marker never occurs inside the encoded form (internal/wordstuff),
// and appended to a file opened with os.O_APPEND. The Iterator recovers
// every intact record from a possibly-damaged file: torn writes, bit flips,
// and trailing garbage damage at most the records they overlap.
//
// This package has no background goroutines and performs no locking of its
// own; AppendPayload relies entirely on the kernel's O_APPEND semantics for
// write atomicity. Callers who want single-process write serialization can
// wrap a *os.File in a SerialAppender.
package recordstream

// MaxPayload is the largest payload accepted by AppendPayload.
const MaxPayload = 512

// ReadBufLen bounds the largest encoded record Next will accept, and thus
// the largest decode buffer it needs. It is deliberately twice MaxPayload,
// well above the 523-byte worst-case encoded size of a MaxPayload record,
// to tolerate schema evolution where a future writer emits larger records
// than the current reader expects.
const ReadBufLen = 1024
