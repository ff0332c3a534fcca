package ddpg

import "errors"

// Run modes.
const (
	ModeTrain = "train"
	ModeEval  = "eval"
)

// Config carries every tunable of a run and is passed by value into New, so
// a run is fully described by one serializable value.
type Config struct {
	EnvName string
	Mode    string

	HiddenSizes []int
	Gamma       float64
	Polyak      float64
	PiLR        float64
	QLR         float64
	ActNoise    float64

	ReplaySize      int
	StepsPerEpoch   int
	Epochs          int
	BatchSize       int
	StartSteps      int
	UpdateAfter     int
	UpdateEvery     int
	NumTestEpisodes int
	MaxEpLen        int
	// SaveFreq is the epoch interval for periodic checkpoints; 0 disables
	// them. Best-return checkpoints are saved regardless.
	SaveFreq int

	Seed      int64
	ExpName   string
	OutputDir string
	// CheckpointFile is the bundle restored in eval mode.
	CheckpointFile string
}

func DefaultConfig() Config {
	return Config{
		EnvName:         "Hover-v0",
		Mode:            ModeTrain,
		HiddenSizes:     []int{256, 256},
		Gamma:           0.99,
		Polyak:          0.995,
		PiLR:            1e-3,
		QLR:             1e-3,
		ActNoise:        0.1,
		ReplaySize:      1_000_000,
		StepsPerEpoch:   4000,
		Epochs:          100,
		BatchSize:       100,
		StartSteps:      10_000,
		UpdateAfter:     1000,
		UpdateEvery:     50,
		NumTestEpisodes: 10,
		MaxEpLen:        1000,
		SaveFreq:        1,
		ExpName:         "ddpg",
		OutputDir:       "runs/ddpg_s0",
	}
}

func (c Config) validate() error {
	if c.Mode != ModeTrain && c.Mode != ModeEval {
		return errors.New("mode must be train or eval")
	}
	if c.StepsPerEpoch <= 0 || c.Epochs <= 0 {
		return errors.New("steps per epoch and epochs must be greater than zero")
	}
	if c.BatchSize <= 0 || c.UpdateEvery <= 0 {
		return errors.New("batch size and update interval must be greater than zero")
	}
	if c.MaxEpLen <= 0 {
		return errors.New("max episode length must be greater than zero")
	}
	if c.Gamma < 0 || c.Gamma > 1 || c.Polyak < 0 || c.Polyak > 1 {
		return errors.New("gamma and polyak must be in [0, 1]")
	}
	return nil
}
