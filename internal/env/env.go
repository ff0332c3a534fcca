package env

import (
	"fmt"
	"math/rand"
)

// Box is a bounded real-valued vector space. Bounds are per-dimension and
// need not be symmetric about zero.
type Box struct {
	Low  []float64
	High []float64
}

func (b Box) Dim() int {
	return len(b.Low)
}

// Sample draws a point uniformly from the box.
func (b Box) Sample(rng *rand.Rand) []float64 {
	out := make([]float64, len(b.Low))
	for i := range out {
		out[i] = b.Low[i] + rng.Float64()*(b.High[i]-b.Low[i])
	}
	return out
}

// Env is the synchronous environment contract the training loop drives.
// Step returns the next observation, the reward for that step, and whether
// the episode reached a true terminal state. Time-horizon truncation is the
// caller's concern, not the environment's.
type Env interface {
	Reset() []float64
	Step(action []float64) ([]float64, float64, bool)
	ObservationSpace() Box
	ActionSpace() Box
}

// Make constructs a registered environment seeded with rng.
func Make(name string, rng *rand.Rand) (Env, error) {
	switch name {
	case "Hover-v0":
		return NewHover(rng), nil
	}
	return nil, fmt.Errorf("unknown environment %q", name)
}
