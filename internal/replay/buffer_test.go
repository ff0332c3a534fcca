package replay

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestBuffer(t *testing.T, size int) *Buffer {
	t.Helper()
	b, err := NewBuffer(2, 1, size, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return b
}

func TestNewBufferValidation(t *testing.T) {
	_, err := NewBuffer(2, 1, 0, nil)
	require.Error(t, err)
	_, err = NewBuffer(0, 1, 10, nil)
	require.Error(t, err)
}

func TestRingInvariant(t *testing.T) {
	const capacity = 5
	b := newTestBuffer(t, capacity)

	for n := 1; n <= 8; n++ {
		// Reward encodes the insertion index so overwrites are visible.
		b.Store([]float64{float64(n), 0}, []float64{0}, float64(n), []float64{0, 0}, false)

		want := n
		if want > capacity {
			want = capacity
		}
		require.Equal(t, want, b.Size(), "after %d stores", n)
	}

	// After 8 stores the ring must hold exactly rewards 4..8, the oldest
	// three overwritten.
	held := map[float64]bool{}
	for _, r := range b.rewBuf {
		held[r] = true
	}
	require.Equal(t, map[float64]bool{4: true, 5: true, 6: true, 7: true, 8: true}, held)
	require.Equal(t, capacity, b.Capacity())
}

func TestSampleDomain(t *testing.T) {
	b := newTestBuffer(t, 10)
	for n := 1; n <= 3; n++ {
		b.Store([]float64{float64(n), 0}, []float64{float64(n)}, float64(n), []float64{0, 0}, false)
	}

	batch, err := b.SampleBatch(256)
	require.NoError(t, err)

	rows, cols := batch.Obs.Dims()
	require.Equal(t, 256, rows)
	require.Equal(t, 2, cols)
	require.Len(t, batch.Rew, 256)

	seen := map[float64]bool{}
	for i := 0; i < 256; i++ {
		require.Contains(t, []float64{1, 2, 3}, batch.Rew[i])
		require.Equal(t, batch.Rew[i], batch.Act.At(i, 0), "rows must stay aligned")
		seen[batch.Rew[i]] = true
	}
	// With replacement over 256 draws from 3 entries, all entries appear.
	require.Len(t, seen, 3)
}

func TestSampleEmptyFails(t *testing.T) {
	b := newTestBuffer(t, 4)
	_, err := b.SampleBatch(1)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestStoreDoneEncoding(t *testing.T) {
	b := newTestBuffer(t, 4)
	b.Store([]float64{0, 0}, []float64{0}, 0, []float64{0, 0}, true)
	b.Store([]float64{0, 0}, []float64{0}, 0, []float64{0, 0}, false)
	require.Equal(t, 1.0, b.doneBuf[0])
	require.Equal(t, 0.0, b.doneBuf[1])
}
