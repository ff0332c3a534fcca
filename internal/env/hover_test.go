package env

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	e, err := Make("Hover-v0", rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.NotNil(t, e)

	_, err = Make("CartPole-v1", nil)
	require.Error(t, err)
}

func TestBoxSample(t *testing.T) {
	box := Box{Low: []float64{0, -1}, High: []float64{2, 1}}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		p := box.Sample(rng)
		require.Len(t, p, 2)
		for j := range p {
			require.GreaterOrEqual(t, p[j], box.Low[j])
			require.LessOrEqual(t, p[j], box.High[j])
		}
	}
	require.Equal(t, 2, box.Dim())
}

func TestHoverActionSpaceAsymmetric(t *testing.T) {
	h := NewHover(rand.New(rand.NewSource(1)))
	box := h.ActionSpace()
	require.Equal(t, []float64{0}, box.Low)
	require.Equal(t, []float64{maxThrust}, box.High)
}

func TestHoverResetNearTarget(t *testing.T) {
	h := NewHover(rand.New(rand.NewSource(3)))
	for i := 0; i < 50; i++ {
		obs := h.Reset()
		require.Len(t, obs, 2)
		require.InDelta(t, targetAlt, obs[0], 0.5)
		require.InDelta(t, 0, obs[1], 0.05)
	}
}

func TestHoverRewardIsCost(t *testing.T) {
	h := NewHover(rand.New(rand.NewSource(5)))
	_, r, _ := h.Step([]float64{maxThrust / 2})
	require.LessOrEqual(t, r, 0.0)
}

func TestHoverTerminatesAtCeiling(t *testing.T) {
	h := NewHover(rand.New(rand.NewSource(9)))
	done := false
	var obs []float64
	for i := 0; i < 500 && !done; i++ {
		obs, _, done = h.Step([]float64{maxThrust})
	}
	require.True(t, done, "full thrust must drive the mass out of bounds")
	require.GreaterOrEqual(t, obs[0], maxAlt)
}

func TestHoverTerminatesAtGround(t *testing.T) {
	h := NewHover(rand.New(rand.NewSource(11)))
	done := false
	var obs []float64
	for i := 0; i < 500 && !done; i++ {
		obs, _, done = h.Step([]float64{0})
	}
	require.True(t, done, "free fall must hit the ground")
	require.LessOrEqual(t, obs[0], 0.0)
}
