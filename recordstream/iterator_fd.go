//go:build unix

package recordstream

import (
	"fmt"
	"os"
	"syscall"
)

// seekData is SEEK_DATA's value on Linux and the other platforms that
// share Sun's sparse-file SEEK_DATA/SEEK_HOLE convention. Platforms that
// don't support it simply fail the Seek call below, and we fall back to a
// linear scan.
const seekData = 3

// OpenFile memory-maps f read-only and constructs an iterator over its
// contents.
//
// f's descriptor is borrowed for the duration of this call and is not
// retained; the returned Iterator owns the mapped region and releases it
// on Close.
//
// If the file has a sparse hole at its head, OpenFile tries to skip it in
// one step via SEEK_DATA before falling back to a linear scan for the
// first nonzero byte - no valid record can begin with a zero byte, since
// the marker's first byte is 0xFE.
func OpenFile(f *os.File) (*Iterator, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("recordstream: fstat: %w", err)
	}

	size := st.Size()
	if size <= 0 {
		return OpenBuf(nil), nil
	}

	fd := int(f.Fd())

	firstData := int64(0)
	if off, err := syscall.Seek(fd, 0, seekData); err == nil {
		firstData = off
	}

	mapped, err := syscall.Mmap(fd, 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("recordstream: mmap: %w", err)
	}

	it := &Iterator{
		data:        mapped,
		begin:       0,
		end:         len(mapped),
		stopAt:      len(mapped),
		cursor:      0,
		firstRecord: true,
		unmap: func() error {
			return syscall.Munmap(mapped)
		},
	}

	if firstData > 0 {
		if firstData >= int64(len(mapped)) {
			firstData = int64(len(mapped))
		}
		it.cursor = int(firstData)
	}

	it.cursor = findFirstNonzero(mapped, it.cursor)
	it.firstNonzero = it.cursor
	return it, nil
}

func findFirstNonzero(data []byte, from int) int {
	i := from
	for i < len(data) && data[i] == 0 {
		i++
	}
	return i
}
