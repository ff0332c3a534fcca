package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ActorCritic pairs a deterministic policy network with an action-value
// network. Clone produces the independent target pair; target parameters
// are mutated only through PolyakUpdate, never by gradient descent.
type ActorCritic struct {
	Pi *MLP // obs -> action, tanh output mapped onto the action box
	Q  *MLP // obs ++ action -> scalar value

	obsDim int
	actDim int
}

// NewActorCritic builds the pair with the given hidden layer sizes. actLow
// and actHigh are the per-dimension action bounds the actor's output is
// mapped into.
func NewActorCritic(obsDim, actDim int, hidden []int, actLow, actHigh []float64, rng *rand.Rand) *ActorCritic {
	piSizes := append(append([]int{obsDim}, hidden...), actDim)
	qSizes := append(append([]int{obsDim + actDim}, hidden...), 1)

	pi := NewMLP(piSizes, ReLU, Tanh, rng)
	scale := make([]float64, actDim)
	shift := make([]float64, actDim)
	for i := range scale {
		scale[i] = (actHigh[i] - actLow[i]) / 2
		shift[i] = (actHigh[i] + actLow[i]) / 2
	}
	pi.SetOutputMap(scale, shift)

	return &ActorCritic{
		Pi:     pi,
		Q:      NewMLP(qSizes, ReLU, Identity, rng),
		obsDim: obsDim,
		actDim: actDim,
	}
}

// Act computes the deterministic action for a single observation, without
// recording anything for backpropagation.
func (ac *ActorCritic) Act(obs []float64) []float64 {
	x := mat.NewDense(1, ac.obsDim, append([]float64(nil), obs...))
	y := ac.Pi.Predict(x)
	out := make([]float64, ac.actDim)
	mat.Row(out, 0, y)
	return out
}

// Clone deep-copies both networks; the copy shares no storage with the
// original.
func (ac *ActorCritic) Clone() *ActorCritic {
	return &ActorCritic{
		Pi:     ac.Pi.Clone(),
		Q:      ac.Q.Clone(),
		obsDim: ac.obsDim,
		actDim: ac.actDim,
	}
}

// PolyakUpdate moves every parameter of ac toward the corresponding
// parameter of src in place:
//
//	theta_targ <- polyak*theta_targ + (1-polyak)*theta
func (ac *ActorCritic) PolyakUpdate(src *ActorCritic, polyak float64) {
	polyakParams(ac.Pi.Params(), src.Pi.Params(), polyak)
	polyakParams(ac.Q.Params(), src.Q.Params(), polyak)
}

func polyakParams(targ, live []Param, rho float64) {
	for i := range targ {
		t, l := targ[i].Data, live[i].Data
		for j := range t {
			t[j] = rho*t[j] + (1-rho)*l[j]
		}
	}
}

// ActorCriticState is a copy of both networks' parameters.
type ActorCriticState struct {
	Pi MLPState
	Q  MLPState
}

func (ac *ActorCritic) State() ActorCriticState {
	return ActorCriticState{Pi: ac.Pi.State(), Q: ac.Q.State()}
}

func (ac *ActorCritic) SetState(s ActorCriticState) error {
	if err := ac.Pi.SetState(s.Pi); err != nil {
		return err
	}
	return ac.Q.SetState(s.Q)
}
