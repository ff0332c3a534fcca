package ddpg

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/aliang8/spinningup/internal/nn"
)

// Checkpoint bundles everything needed to resume or evaluate a run: the
// epoch it was taken at, the live parameter state, and both optimizers'
// internal state. The target pair is restored from the same model state on
// load, so live and target are equal immediately after a restore.
type Checkpoint struct {
	Epoch       int
	Model       nn.ActorCriticState
	PiOptimizer nn.AdamState
	QOptimizer  nn.AdamState
}

func SaveCheckpoint(path string, ck *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(ck)
}

func LoadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ck Checkpoint
	if err := gob.NewDecoder(f).Decode(&ck); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", path, err)
	}
	return &ck, nil
}
