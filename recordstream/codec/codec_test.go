package codec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corestream/recordstream/recordstream"
)

type widget struct {
	Name  string
	Count int
}

func TestAppendGob_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	want := []widget{
		{Name: "alpha", Count: 1},
		{Name: "beta", Count: 2},
		{Name: "gamma", Count: 3},
	}
	for i, w := range want {
		require.NoError(t, AppendGob(f, uint32(i), w))
	}

	rf, err := os.Open(path)
	require.NoError(t, err)
	defer rf.Close()

	inner, err := recordstream.OpenFile(rf)
	require.NoError(t, err)
	it := NewIterator(inner)
	defer it.Close()

	for i, w := range want {
		var got widget
		gen, ok, err := it.NextGob(&got)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint32(i), gen)
		assert.Equal(t, w, got)
	}

	var trailing widget
	_, ok, err := it.NextGob(&trailing)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNextGob_SkipsUndecodableRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	// A syntactically sound record whose payload simply isn't gob-encoded
	// widget data.
	require.NoError(t, recordstream.AppendPayload(f, 0, []byte("not gob data at all")))
	require.NoError(t, AppendGob(f, 1, widget{Name: "real", Count: 9}))

	rf, err := os.Open(path)
	require.NoError(t, err)
	defer rf.Close()

	inner, err := recordstream.OpenFile(rf)
	require.NoError(t, err)
	it := NewIterator(inner)
	defer it.Close()

	var got widget
	gen, ok, err := it.NextGob(&got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(1), gen)
	assert.Equal(t, widget{Name: "real", Count: 9}, got)

	_, ok, err = it.NextGob(&got)
	require.NoError(t, err)
	assert.False(t, ok)
}
