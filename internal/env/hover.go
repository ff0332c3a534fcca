package env

import (
	"math/rand"
)

const (
	gravity   = 9.81
	mass      = 1.0
	maxThrust = 20.0
	tau       = 0.02

	targetAlt = 5.0
	maxAlt    = 10.0
	maxSpeed  = 8.0
)

// Hover is a 1-D continuous-control task: a point mass under gravity is
// held near a target altitude with an upward thrust in [0, maxThrust]. The
// episode terminates when the mass hits the ground or leaves the ceiling.
type Hover struct {
	alt  float64
	vel  float64
	Rand *rand.Rand
}

func NewHover(rng *rand.Rand) *Hover {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	h := &Hover{Rand: rng}
	h.Reset()
	return h
}

func (h *Hover) Reset() []float64 {
	h.alt = targetAlt + h.Rand.Float64() - 0.5
	h.vel = h.Rand.Float64()*0.1 - 0.05
	return h.obs()
}

func (h *Hover) Step(action []float64) ([]float64, float64, bool) {
	u := action[0]
	if u < 0 {
		u = 0
	} else if u > maxThrust {
		u = maxThrust
	}

	acc := u/mass - gravity
	h.vel += tau * acc
	h.alt += tau * h.vel

	dist := h.alt - targetAlt
	cost := dist*dist + 0.1*h.vel*h.vel + 0.001*u*u
	done := h.alt <= 0 || h.alt >= maxAlt
	return h.obs(), -cost, done
}

func (h *Hover) ObservationSpace() Box {
	return Box{Low: []float64{0, -maxSpeed}, High: []float64{maxAlt, maxSpeed}}
}

func (h *Hover) ActionSpace() Box {
	return Box{Low: []float64{0}, High: []float64{maxThrust}}
}

func (h *Hover) obs() []float64 {
	return []float64{h.alt, h.vel}
}
