package nn

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Activation selects the elementwise nonlinearity applied after a layer.
type Activation int

const (
	Identity Activation = iota
	ReLU
	Tanh
)

type layer struct {
	w     *mat.Dense    // out x in
	b     *mat.VecDense // out
	gradW *mat.Dense
	gradB *mat.VecDense
	act   Activation
}

// MLP is a fully connected network with manually derived gradients. An
// optional affine output map rescales the final activation; the actor uses
// it to place tanh outputs onto the action box.
type MLP struct {
	layers   []*layer
	outScale []float64
	outShift []float64
	frozen   bool
}

// Cache holds the per-layer activations of one forward pass, consumed by
// Backward.
type Cache struct {
	inputs  []*mat.Dense // input to layer i
	outputs []*mat.Dense // post-activation output of layer i, before the output map
}

// NewMLP builds a network with the given layer sizes. All layers use the
// hidden activation except the last, which uses out. Weights are drawn
// N(0, 2/fanIn), biases start at zero.
func NewMLP(sizes []int, hidden, out Activation, rng *rand.Rand) *MLP {
	m := &MLP{}
	for i := 0; i < len(sizes)-1; i++ {
		in, o := sizes[i], sizes[i+1]
		act := hidden
		if i == len(sizes)-2 {
			act = out
		}
		data := make([]float64, o*in)
		scale := math.Sqrt(2.0 / float64(in))
		for j := range data {
			data[j] = rng.NormFloat64() * scale
		}
		m.layers = append(m.layers, &layer{
			w:     mat.NewDense(o, in, data),
			b:     mat.NewVecDense(o, nil),
			gradW: mat.NewDense(o, in, nil),
			gradB: mat.NewVecDense(o, nil),
			act:   act,
		})
	}
	return m
}

// SetOutputMap installs the affine map y = a*scale + shift applied after
// the final activation, elementwise per output dimension.
func (m *MLP) SetOutputMap(scale, shift []float64) {
	m.outScale = append([]float64(nil), scale...)
	m.outShift = append([]float64(nil), shift...)
}

// SetFrozen marks the network as forward-only: Backward still propagates
// gradients to its input but accumulates nothing into the weights.
func (m *MLP) SetFrozen(frozen bool) {
	m.frozen = frozen
}

func (m *MLP) Frozen() bool {
	return m.frozen
}

// Forward runs a batched forward pass (one row per sample) and returns the
// output together with the cache Backward needs.
func (m *MLP) Forward(x *mat.Dense) (*mat.Dense, *Cache) {
	c := &Cache{}
	cur := x
	for _, l := range m.layers {
		c.inputs = append(c.inputs, cur)
		cur = l.forward(cur)
		c.outputs = append(c.outputs, cur)
	}
	if m.outScale != nil {
		n, d := cur.Dims()
		mapped := mat.NewDense(n, d, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < d; j++ {
				mapped.Set(i, j, cur.At(i, j)*m.outScale[j]+m.outShift[j])
			}
		}
		cur = mapped
	}
	return cur, c
}

// Predict is Forward for callers that will not backpropagate.
func (m *MLP) Predict(x *mat.Dense) *mat.Dense {
	y, _ := m.Forward(x)
	return y
}

// Backward propagates dOut, the gradient of a scalar loss with respect to
// the forward output, through the network. Parameter gradients accumulate
// into the grad buffers unless the network is frozen. Returns the gradient
// with respect to the forward input.
func (m *MLP) Backward(c *Cache, dOut *mat.Dense) *mat.Dense {
	d := dOut
	if m.outScale != nil {
		n, cols := dOut.Dims()
		scaled := mat.NewDense(n, cols, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < cols; j++ {
				scaled.Set(i, j, dOut.At(i, j)*m.outScale[j])
			}
		}
		d = scaled
	}
	for i := len(m.layers) - 1; i >= 0; i-- {
		d = m.layers[i].backward(c.inputs[i], c.outputs[i], d, m.frozen)
	}
	return d
}

// ZeroGrad clears all accumulated parameter gradients.
func (m *MLP) ZeroGrad() {
	for _, l := range m.layers {
		l.gradW.Zero()
		l.gradB.Zero()
	}
}

// Param exposes one parameter tensor and its gradient as flat slices backed
// by the network's own storage.
type Param struct {
	Data []float64
	Grad []float64
}

// Params lists every parameter in a fixed order: weight then bias, layer by
// layer. The order is stable across Clone, so live and target parameters
// can be walked pairwise.
func (m *MLP) Params() []Param {
	ps := make([]Param, 0, 2*len(m.layers))
	for _, l := range m.layers {
		ps = append(ps, Param{Data: l.w.RawMatrix().Data, Grad: l.gradW.RawMatrix().Data})
		ps = append(ps, Param{Data: l.b.RawVector().Data, Grad: l.gradB.RawVector().Data})
	}
	return ps
}

func (m *MLP) NumParams() int {
	var n int
	for _, p := range m.Params() {
		n += len(p.Data)
	}
	return n
}

// Clone deep-copies the network. The copy shares no storage with the
// original and starts unfrozen with zero gradients.
func (m *MLP) Clone() *MLP {
	out := &MLP{}
	for _, l := range m.layers {
		r, c := l.w.Dims()
		out.layers = append(out.layers, &layer{
			w:     mat.DenseCopyOf(l.w),
			b:     mat.VecDenseCopyOf(l.b),
			gradW: mat.NewDense(r, c, nil),
			gradB: mat.NewVecDense(r, nil),
			act:   l.act,
		})
	}
	out.outScale = append([]float64(nil), m.outScale...)
	out.outShift = append([]float64(nil), m.outShift...)
	return out
}

// LayerState is one layer's weights in row-major order.
type LayerState struct {
	W []float64
	B []float64
}

// MLPState is a copy of all parameters, suitable for gob encoding.
type MLPState struct {
	Layers []LayerState
}

func (m *MLP) State() MLPState {
	s := MLPState{Layers: make([]LayerState, len(m.layers))}
	for i, l := range m.layers {
		s.Layers[i] = LayerState{
			W: append([]float64(nil), l.w.RawMatrix().Data...),
			B: append([]float64(nil), l.b.RawVector().Data...),
		}
	}
	return s
}

func (m *MLP) SetState(s MLPState) error {
	if len(s.Layers) != len(m.layers) {
		return errors.New("state layer count does not match network")
	}
	for i, l := range m.layers {
		w := l.w.RawMatrix().Data
		b := l.b.RawVector().Data
		if len(s.Layers[i].W) != len(w) || len(s.Layers[i].B) != len(b) {
			return errors.New("state layer shape does not match network")
		}
		copy(w, s.Layers[i].W)
		copy(b, s.Layers[i].B)
	}
	return nil
}

func (l *layer) forward(x *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	out, _ := l.w.Dims()
	z := mat.NewDense(n, out, nil)
	z.Mul(x, l.w.T())
	bias := l.b.RawVector().Data
	rm := z.RawMatrix()
	for i := 0; i < n; i++ {
		row := rm.Data[i*rm.Stride : i*rm.Stride+out]
		for j := range row {
			v := row[j] + bias[j]
			switch l.act {
			case ReLU:
				if v < 0 {
					v = 0
				}
			case Tanh:
				v = math.Tanh(v)
			}
			row[j] = v
		}
	}
	return z
}

// backward turns the gradient wrt this layer's activation into the gradient
// wrt its input, accumulating weight gradients unless frozen. Activation
// derivatives are computed from the cached post-activation values.
func (l *layer) backward(x, a, dA *mat.Dense, frozen bool) *mat.Dense {
	n, out := dA.Dims()
	_, in := l.w.Dims()

	dZ := mat.NewDense(n, out, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < out; j++ {
			g := dA.At(i, j)
			switch l.act {
			case ReLU:
				if a.At(i, j) <= 0 {
					g = 0
				}
			case Tanh:
				v := a.At(i, j)
				g *= 1 - v*v
			}
			dZ.Set(i, j, g)
		}
	}

	if !frozen {
		var gw mat.Dense
		gw.Mul(dZ.T(), x)
		l.gradW.Add(l.gradW, &gw)
		gb := l.gradB.RawVector().Data
		for i := 0; i < n; i++ {
			for j := 0; j < out; j++ {
				gb[j] += dZ.At(i, j)
			}
		}
	}

	dX := mat.NewDense(n, in, nil)
	dX.Mul(dZ, l.w)
	return dX
}
