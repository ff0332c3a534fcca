package nn

import (
	"errors"
	"math"
)

// Adam implements the Adam update rule over a network's parameter list.
// Moment buffers are positional, so an optimizer built for one network may
// only ever step that network or an identically shaped one.
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64

	step int
	m    [][]float64
	v    [][]float64
}

func NewAdam(lr float64, net *MLP) *Adam {
	a := &Adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8}
	for _, p := range net.Params() {
		a.m = append(a.m, make([]float64, len(p.Data)))
		a.v = append(a.v, make([]float64, len(p.Data)))
	}
	return a
}

// Step applies one update using the gradients currently accumulated in net.
func (a *Adam) Step(net *MLP) {
	a.step++
	bc1 := 1 - math.Pow(a.beta1, float64(a.step))
	bc2 := 1 - math.Pow(a.beta2, float64(a.step))
	for i, p := range net.Params() {
		m, v := a.m[i], a.v[i]
		for j, g := range p.Grad {
			m[j] = a.beta1*m[j] + (1-a.beta1)*g
			v[j] = a.beta2*v[j] + (1-a.beta2)*g*g
			p.Data[j] -= a.lr * (m[j] / bc1) / (math.Sqrt(v[j]/bc2) + a.eps)
		}
	}
}

// AdamState is a copy of the optimizer's internal state.
type AdamState struct {
	Step int
	M    [][]float64
	V    [][]float64
}

func (a *Adam) State() AdamState {
	s := AdamState{Step: a.step}
	for i := range a.m {
		s.M = append(s.M, append([]float64(nil), a.m[i]...))
		s.V = append(s.V, append([]float64(nil), a.v[i]...))
	}
	return s
}

func (a *Adam) SetState(s AdamState) error {
	if len(s.M) != len(a.m) || len(s.V) != len(a.v) {
		return errors.New("optimizer state does not match network")
	}
	for i := range a.m {
		if len(s.M[i]) != len(a.m[i]) || len(s.V[i]) != len(a.v[i]) {
			return errors.New("optimizer state shape does not match network")
		}
		copy(a.m[i], s.M[i])
		copy(a.v[i], s.V[i])
	}
	a.step = s.Step
	return nil
}
