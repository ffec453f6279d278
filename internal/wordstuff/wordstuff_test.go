package wordstuff

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_RandomLengths(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for length := 0; length <= 2000; length++ {
		if length > 50 && length%17 != 0 {
			// Exhaustively testing every length up to 2000 is unnecessary;
			// sample the tail densely enough to still cross every chunk
			// boundary (252, 64008, ...) that matters at this size.
			continue
		}

		src := make([]byte, length)
		rng.Read(src)

		t.Run("", func(t *testing.T) {
			encoded := Encode(src)
			assert.Equal(t, len(encoded), FindMarker(encoded), "encoded form must never contain the marker")

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(src, decoded))
		})
	}
}

func TestRoundTrip_EmbeddedMarkers(t *testing.T) {
	cases := [][]byte{
		{0xFE, 0xFD},
		{0xFE, 0xFD, 0xFE, 0xFD, 0xFE, 0xFD},
		append([]byte("prefix"), append([]byte{0xFE, 0xFD}, []byte("suffix")...)...),
		bytes.Repeat([]byte{0xFE, 0xFD}, 300),
	}

	for _, src := range cases {
		encoded := Encode(src)
		assert.Equal(t, len(encoded), FindMarker(encoded))

		decoded, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, src, decoded)
	}
}

func TestRoundTrip_ChunkBoundaries(t *testing.T) {
	for _, length := range []int{0, 1, MaxInitialRun - 1, MaxInitialRun, MaxInitialRun + 1, 512, 1024} {
		src := bytes.Repeat([]byte{0x42}, length)
		encoded := Encode(src)
		decoded, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, src, decoded)
	}
}

func TestFindMarker(t *testing.T) {
	assert.Equal(t, 0, FindMarker([]byte{0xFE, 0xFD}))
	assert.Equal(t, 3, FindMarker([]byte{1, 2, 3, 0xFE, 0xFD}))
	assert.Equal(t, 5, FindMarker([]byte{1, 2, 3, 4, 5}))
	assert.Equal(t, 1, FindMarker([]byte{0xFD, 0xFE, 0xFD}))
	assert.Equal(t, 0, FindMarker(nil))
	assert.Equal(t, 1, FindMarker([]byte{0xFE}))
}

func TestDecode_Robustness(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 2000; i++ {
		n := rng.Intn(300)
		garbage := make([]byte, n)
		rng.Read(garbage)

		decoded, err := Decode(garbage)
		if err == nil {
			bound := len(garbage) - 1
			if bound < 0 {
				bound = 0
			}
			assert.LessOrEqual(t, len(decoded), bound)
		}
	}
}

func TestDecode_TruncatedHeader(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrTruncatedHeader)
}

func TestDecode_RunTooLong(t *testing.T) {
	// A first-run length byte must be <= MaxInitialRun (252); this test
	// exercises the 2nd-chunk run-too-long path instead, whose two-byte
	// field can declare up to 255 + 253*255, well past MaxRemainingRun.
	encoded := []byte{0} // empty first run, followed by an elided intermediate marker
	// Fabricate a second chunk whose declared run length exceeds MaxRemainingRun.
	encoded = append(encoded, 0xFF, 0xFF, 1, 2, 3)
	_, err := Decode(encoded)
	require.Error(t, err)
}

func TestDecode_MissingIntermediateMarker(t *testing.T) {
	// First run of length 1 with one literal byte, then an insufficient
	// remainder for the required 2-byte continuation header.
	encoded := []byte{1, 'a', 0x00}
	_, err := Decode(encoded)
	assert.ErrorIs(t, err, ErrMissingMarker)
}

func TestStuffedBound_MonotonicAndSane(t *testing.T) {
	prev := StuffedBound(0, true)
	for n := 1; n <= 4096; n += 37 {
		b := StuffedBound(n, true)
		assert.GreaterOrEqual(t, b, prev)
		assert.GreaterOrEqual(t, b, n, "bound must be at least the input size")
		prev = b
	}
}

func TestStuffedBound_AtInitialRunBoundary(t *testing.T) {
	// A payload of exactly MaxInitialRun marker-free bytes fills the first
	// chunk completely, which forces a genuine second, empty chunk (its own
	// 2-byte header) onto the wire - StuffedBound must budget for it at
	// n == MaxInitialRun, not just n > MaxInitialRun.
	for _, n := range []int{MaxInitialRun - 1, MaxInitialRun, MaxInitialRun + 1} {
		src := make([]byte, n)
		for i := range src {
			src[i] = 0x41
		}

		encoded := Encode(src)
		bound := StuffedBound(n, false)
		assert.GreaterOrEqual(t, bound, len(encoded),
			"StuffedBound(%d) = %d must be >= actual encoded length %d", n, bound, len(encoded))
	}

	require.Equal(t, 1+MaxInitialRun+HeaderSize, len(Encode(make([]byte, MaxInitialRun))),
		"a full initial run forces an explicit empty second chunk")
}
