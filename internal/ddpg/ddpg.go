package ddpg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/aunum/log"
	"gonum.org/v1/gonum/mat"

	"github.com/aliang8/spinningup/internal/env"
	"github.com/aliang8/spinningup/internal/logx"
	"github.com/aliang8/spinningup/internal/nn"
	"github.com/aliang8/spinningup/internal/replay"
)

// Trainer owns the interaction loop state: the live and target network
// pair, both optimizers, the replay buffer, and the two environments.
// Everything runs in one goroutine; nothing here is safe for concurrent
// use.
type Trainer struct {
	cfg     Config
	env     env.Env
	testEnv env.Env
	ac      *nn.ActorCritic
	acTarg  *nn.ActorCritic
	piOpt   *nn.Adam
	qOpt    *nn.Adam
	buf     *replay.Buffer
	logger  *logx.EpochLogger
	rng     *rand.Rand

	obsDim   int
	actDim   int
	actSpace env.Box
	ckptDir  string
}

// New wires a trainer for cfg. testEnv is held out for evaluation rollouts
// and is never touched by training.
func New(cfg Config, trainEnv, testEnv env.Env, logger *logx.EpochLogger) (*Trainer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	obsDim := trainEnv.ObservationSpace().Dim()
	actSpace := trainEnv.ActionSpace()
	actDim := actSpace.Dim()

	ac := nn.NewActorCritic(obsDim, actDim, cfg.HiddenSizes, actSpace.Low, actSpace.High, rng)
	acTarg := ac.Clone()

	buf, err := replay.NewBuffer(obsDim, actDim, cfg.ReplaySize, rng)
	if err != nil {
		return nil, err
	}

	t := &Trainer{
		cfg:      cfg,
		env:      trainEnv,
		testEnv:  testEnv,
		ac:       ac,
		acTarg:   acTarg,
		piOpt:    nn.NewAdam(cfg.PiLR, ac.Pi),
		qOpt:     nn.NewAdam(cfg.QLR, ac.Q),
		buf:      buf,
		logger:   logger,
		rng:      rng,
		obsDim:   obsDim,
		actDim:   actDim,
		actSpace: actSpace,
		ckptDir:  filepath.Join(cfg.OutputDir, "checkpoints"),
	}
	if err := logx.EnsureDir(t.ckptDir); err != nil {
		log.Warningf("checkpoint directory setup failed: %v", err)
	}
	log.Infof("number of parameters: pi: %d, q: %d", ac.Pi.NumParams(), ac.Q.NumParams())
	return t, nil
}

func (t *Trainer) Run(ctx context.Context) error {
	if t.cfg.Mode == ModeEval {
		return t.runEval()
	}
	return t.train(ctx)
}

func (t *Trainer) train(ctx context.Context) error {
	totalSteps := t.cfg.StepsPerEpoch * t.cfg.Epochs
	start := time.Now()
	o := t.env.Reset()
	var epRet float64
	var epLen int
	best := newBestTracker()
	epochRets := make([]float64, 0, t.cfg.Epochs)

	for step := 0; step < totalSteps; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Uniform random actions until start_steps have elapsed, for
		// replay diversity; noisy policy actions afterwards.
		var a []float64
		if step > t.cfg.StartSteps {
			a = t.getAction(o, t.cfg.ActNoise)
		} else {
			a = t.actSpace.Sample(t.rng)
		}

		o2, r, done := t.env.Step(a)
		epRet += r
		epLen++

		// Hitting the time horizon is an artificial terminal, not a
		// property of the state; do not bootstrap against it.
		if epLen == t.cfg.MaxEpLen {
			done = false
		}

		t.buf.Store(o, a, r, o2, done)

		o = o2

		if done || epLen == t.cfg.MaxEpLen {
			t.logger.Store("episode_return", epRet)
			t.logger.Store("episode_length", float64(epLen))
			o = t.env.Reset()
			epRet, epLen = 0, 0
		}

		if step >= t.cfg.UpdateAfter && step%t.cfg.UpdateEvery == 0 {
			// One gradient step per environment step, run as a burst.
			for i := 0; i < t.cfg.UpdateEvery; i++ {
				batch, err := t.buf.SampleBatch(t.cfg.BatchSize)
				if err != nil {
					return fmt.Errorf("sample batch: %w", err)
				}
				t.update(batch)
			}
		}

		if (step+1)%t.cfg.StepsPerEpoch == 0 {
			epoch := (step + 1) / t.cfg.StepsPerEpoch

			if t.cfg.SaveFreq > 0 && (epoch%t.cfg.SaveFreq == 0 || epoch == t.cfg.Epochs) {
				t.saveCheckpoint("ckpt_latest.gob", epoch)
			}

			t.testAgent()

			avgRet, ok := t.logger.Mean("episode_return")

			t.logger.LogTabular("epoch", float64(epoch))
			t.logger.LogEpochStats("episode_return", true)
			t.logger.LogEpochStats("eval_episode_return", true)
			t.logger.LogEpochStats("episode_length", false)
			t.logger.LogEpochStats("eval_episode_length", false)
			t.logger.LogTabular("total_interactions", float64(step))
			t.logger.LogEpochStats("q_vals", true)
			t.logger.LogEpochStats("loss_policy", false)
			t.logger.LogEpochStats("loss_critic", false)
			t.logger.LogTabular("time_elapsed", time.Since(start).Seconds())
			t.logger.Dump()

			if ok {
				epochRets = append(epochRets, avgRet)
				if best.improved(avgRet) {
					t.saveCheckpoint(fmt.Sprintf("ckpt_%d_%.2f.gob", epoch, avgRet), epoch)
				}
			}
		}
	}

	if len(epochRets) > 0 {
		path := filepath.Join(t.cfg.OutputDir, "returns.png")
		if err := logx.SaveReturnsPlot(path, epochRets); err != nil {
			log.Warningf("learning curve plot failed: %v", err)
		}
	}
	return nil
}

func (t *Trainer) runEval() error {
	if t.cfg.CheckpointFile == "" {
		return errors.New("eval mode requires a checkpoint file")
	}
	ck, err := LoadCheckpoint(t.cfg.CheckpointFile)
	if err != nil {
		return err
	}
	if err := t.restore(ck); err != nil {
		return err
	}
	log.Infof("evaluating checkpoint from epoch %d", ck.Epoch)
	t.testAgent()
	t.logger.LogEpochStats("eval_episode_return", true)
	t.logger.LogEpochStats("eval_episode_length", false)
	t.logger.Dump()
	return nil
}

// update performs one gradient step for each network on batch, then moves
// the target pair. The critic steps first because the actor loss depends on
// the freshly updated critic.
func (t *Trainer) update(b *replay.Batch) {
	t.ac.Q.ZeroGrad()
	lossQ, qVals := t.lossQ(b)
	t.qOpt.Step(t.ac.Q)

	// Forward-only critic during the actor step: gradients flow through
	// its computation into the actor but not into its weights.
	t.ac.Q.SetFrozen(true)
	t.ac.Pi.ZeroGrad()
	lossPi := t.lossPi(b)
	t.piOpt.Step(t.ac.Pi)
	t.ac.Q.SetFrozen(false)

	t.logger.Store("loss_critic", lossQ)
	t.logger.Store("loss_policy", lossPi)
	t.logger.Store("q_vals", qVals...)

	t.acTarg.PolyakUpdate(t.ac, t.cfg.Polyak)
}

// lossQ computes the mean squared Bellman residual on b and accumulates its
// gradient into the live critic. The bootstrap target is evaluated under
// the target pair, which never receives gradients.
func (t *Trainer) lossQ(b *replay.Batch) (float64, []float64) {
	n, _ := b.Obs.Dims()
	q, cache := t.ac.Q.Forward(concatObsAct(b.Obs, b.Act))

	a2 := t.acTarg.Pi.Predict(b.Obs2)
	qTarg := t.acTarg.Q.Predict(concatObsAct(b.Obs2, a2))

	qVals := make([]float64, n)
	dQ := mat.NewDense(n, 1, nil)
	var loss float64
	for i := 0; i < n; i++ {
		qi := q.At(i, 0)
		backup := b.Rew[i] + t.cfg.Gamma*(1-b.Done[i])*qTarg.At(i, 0)
		diff := qi - backup
		loss += diff * diff
		dQ.Set(i, 0, 2*diff/float64(n))
		qVals[i] = qi
	}
	loss /= float64(n)

	t.ac.Q.Backward(cache, dQ)
	return loss, qVals
}

// lossPi computes -mean Q(o, pi(o)) and accumulates its gradient into the
// live actor, chaining through the critic's forward computation.
func (t *Trainer) lossPi(b *replay.Batch) float64 {
	n, _ := b.Obs.Dims()
	a, piCache := t.ac.Pi.Forward(b.Obs)
	q, qCache := t.ac.Q.Forward(concatObsAct(b.Obs, a))

	var loss float64
	dQ := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		loss -= q.At(i, 0)
		dQ.Set(i, 0, -1/float64(n))
	}
	loss /= float64(n)

	dIn := t.ac.Q.Backward(qCache, dQ)
	dAct := dIn.Slice(0, n, t.obsDim, t.obsDim+t.actDim).(*mat.Dense)
	t.ac.Pi.Backward(piCache, dAct)
	return loss
}

// getAction runs the live actor and perturbs the result with Gaussian
// exploration noise, clipped per dimension to the action space bounds.
// noiseScale 0 gives the deterministic policy.
func (t *Trainer) getAction(obs []float64, noiseScale float64) []float64 {
	a := t.ac.Act(obs)
	for i := range a {
		a[i] += noiseScale * t.rng.NormFloat64()
		if a[i] < t.actSpace.Low[i] {
			a[i] = t.actSpace.Low[i]
		} else if a[i] > t.actSpace.High[i] {
			a[i] = t.actSpace.High[i]
		}
	}
	return a
}

// testAgent runs deterministic rollouts on the held-out environment and
// records their returns. It never writes to the replay buffer.
func (t *Trainer) testAgent() {
	for j := 0; j < t.cfg.NumTestEpisodes; j++ {
		o := t.testEnv.Reset()
		var epRet float64
		var epLen int
		done := false
		for !done && epLen < t.cfg.MaxEpLen {
			o2, r, d := t.testEnv.Step(t.getAction(o, 0))
			epRet += r
			epLen++
			o, done = o2, d
		}
		t.logger.Store("eval_episode_return", epRet)
		t.logger.Store("eval_episode_length", float64(epLen))
	}
}

func (t *Trainer) saveCheckpoint(name string, epoch int) {
	ck := &Checkpoint{
		Epoch:       epoch,
		Model:       t.ac.State(),
		PiOptimizer: t.piOpt.State(),
		QOptimizer:  t.qOpt.State(),
	}
	path := filepath.Join(t.ckptDir, name)
	if err := SaveCheckpoint(path, ck); err != nil {
		log.Warningf("checkpoint save failed: %v", err)
		return
	}
	log.Infof("saved checkpoint %s", path)
}

func (t *Trainer) restore(ck *Checkpoint) error {
	if err := t.ac.SetState(ck.Model); err != nil {
		return err
	}
	// The target pair restores from the same state, so live and target
	// are equal immediately after a restore.
	if err := t.acTarg.SetState(ck.Model); err != nil {
		return err
	}
	if err := t.piOpt.SetState(ck.PiOptimizer); err != nil {
		return err
	}
	return t.qOpt.SetState(ck.QOptimizer)
}

// bestTracker records the best average training return seen so far; only a
// strict improvement counts.
type bestTracker struct {
	best float64
}

func newBestTracker() bestTracker {
	return bestTracker{best: math.Inf(-1)}
}

func (b *bestTracker) improved(ret float64) bool {
	if ret > b.best {
		b.best = ret
		return true
	}
	return false
}

func concatObsAct(obs, act *mat.Dense) *mat.Dense {
	n, od := obs.Dims()
	_, ad := act.Dims()
	out := mat.NewDense(n, od+ad, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < od; j++ {
			out.Set(i, j, obs.At(i, j))
		}
		for j := 0; j < ad; j++ {
			out.Set(i, od+j, act.At(i, j))
		}
	}
	return out
}
