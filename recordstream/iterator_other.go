//go:build !unix

package recordstream

import (
	"errors"
	"os"
)

// OpenFile is only implemented on unix-like platforms, which is where this
// package's memory-mapping and sparse-file support comes from.
func OpenFile(f *os.File) (*Iterator, error) {
	return nil, errors.New("recordstream: OpenFile requires a unix-like platform")
}
