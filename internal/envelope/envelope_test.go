package envelope

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, size := range []int{0, 1, 16, 255, 512} {
		payload := make([]byte, size)
		rng.Read(payload)

		for _, generation := range []uint32{0, 1, 42, 0xFFFFFFFF} {
			buf := Pack(generation, payload)
			require.Equal(t, HeaderSize+size, len(buf))

			gotGen, gotPayload, err := Verify(buf)
			require.NoError(t, err)
			assert.Equal(t, generation, gotGen)
			assert.Equal(t, payload, gotPayload)
		}
	}
}

func TestVerify_TooShort(t *testing.T) {
	_, _, err := Verify(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrTooShort)

	_, _, err = Verify(nil)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestVerify_DetectsBitFlips(t *testing.T) {
	buf := Pack(99, []byte("the quick brown fox"))

	for i := range buf {
		corrupted := make([]byte, len(buf))
		copy(corrupted, buf)
		corrupted[i] ^= 0x01

		_, _, err := Verify(corrupted)
		assert.ErrorIs(t, err, ErrChecksumMismatch, "flipping bit in byte %d should be detected", i)
	}
}

func TestVerify_DetectsZeroFill(t *testing.T) {
	// The whole point of seeding the checksum with all-ones instead of zero
	// is that an all-zero buffer must not verify.
	zeros := make([]byte, HeaderSize+32)
	_, _, err := Verify(zeros)
	assert.Error(t, err)
}

func TestPack_HostByteOrderRoundTrip(t *testing.T) {
	buf := Pack(0xDEADBEEF, []byte{1, 2, 3})
	gen, payload, err := Verify(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), gen)
	assert.Equal(t, []byte{1, 2, 3}, payload)
}
