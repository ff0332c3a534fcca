package replay

import (
	"errors"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var ErrEmpty = errors.New("replay buffer is empty")

// Batch is one uniformly sampled minibatch of transitions. The five fields
// are row-aligned: row i of every field belongs to the same transition.
type Batch struct {
	Obs  *mat.Dense
	Obs2 *mat.Dense
	Act  *mat.Dense
	Rew  []float64
	Done []float64
}

// Buffer is a fixed-capacity FIFO ring of transitions for off-policy
// training. Once full, Store silently overwrites the oldest entry.
type Buffer struct {
	obsBuf  []float64
	obs2Buf []float64
	actBuf  []float64
	rewBuf  []float64
	doneBuf []float64
	obsDim  int
	actDim  int
	ptr     int
	size    int
	maxSize int
	rng     *rand.Rand
}

func NewBuffer(obsDim, actDim, size int, rng *rand.Rand) (*Buffer, error) {
	if size <= 0 {
		return nil, errors.New("buffer size must be greater than zero")
	}
	if obsDim <= 0 || actDim <= 0 {
		return nil, errors.New("observation and action dimensions must be greater than zero")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Buffer{
		obsBuf:  make([]float64, size*obsDim),
		obs2Buf: make([]float64, size*obsDim),
		actBuf:  make([]float64, size*actDim),
		rewBuf:  make([]float64, size),
		doneBuf: make([]float64, size),
		obsDim:  obsDim,
		actDim:  actDim,
		maxSize: size,
		rng:     rng,
	}, nil
}

// Store writes one transition at the cursor and advances it, wrapping at
// capacity. done is kept as 0/1 for direct use in the Bellman backup.
func (b *Buffer) Store(obs, act []float64, rew float64, nextObs []float64, done bool) {
	copy(b.obsBuf[b.ptr*b.obsDim:(b.ptr+1)*b.obsDim], obs)
	copy(b.obs2Buf[b.ptr*b.obsDim:(b.ptr+1)*b.obsDim], nextObs)
	copy(b.actBuf[b.ptr*b.actDim:(b.ptr+1)*b.actDim], act)
	b.rewBuf[b.ptr] = rew
	if done {
		b.doneBuf[b.ptr] = 1
	} else {
		b.doneBuf[b.ptr] = 0
	}
	b.ptr = (b.ptr + 1) % b.maxSize
	if b.size < b.maxSize {
		b.size++
	}
}

// SampleBatch draws batchSize indices uniformly from the valid region with
// replacement; duplicates within one batch are expected.
func (b *Buffer) SampleBatch(batchSize int) (*Batch, error) {
	if b.size == 0 {
		return nil, ErrEmpty
	}
	batch := &Batch{
		Obs:  mat.NewDense(batchSize, b.obsDim, nil),
		Obs2: mat.NewDense(batchSize, b.obsDim, nil),
		Act:  mat.NewDense(batchSize, b.actDim, nil),
		Rew:  make([]float64, batchSize),
		Done: make([]float64, batchSize),
	}
	for i := 0; i < batchSize; i++ {
		idx := b.rng.Intn(b.size)
		batch.Obs.SetRow(i, b.obsBuf[idx*b.obsDim:(idx+1)*b.obsDim])
		batch.Obs2.SetRow(i, b.obs2Buf[idx*b.obsDim:(idx+1)*b.obsDim])
		batch.Act.SetRow(i, b.actBuf[idx*b.actDim:(idx+1)*b.actDim])
		batch.Rew[i] = b.rewBuf[idx]
		batch.Done[i] = b.doneBuf[idx]
	}
	return batch, nil
}

func (b *Buffer) Size() int {
	return b.size
}

func (b *Buffer) Capacity() int {
	return b.maxSize
}
