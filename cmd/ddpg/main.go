package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/aunum/log"

	"github.com/aliang8/spinningup/internal/ddpg"
	"github.com/aliang8/spinningup/internal/env"
	"github.com/aliang8/spinningup/internal/logx"
)

func main() {
	envName := flag.String("env", "Hover-v0", "environment name")
	hid := flag.Int("hid", 256, "hidden layer width")
	layers := flag.Int("l", 2, "number of hidden layers")
	gamma := flag.Float64("gamma", 0.99, "discount factor")
	seed := flag.Int64("seed", 0, "random seed")
	epochs := flag.Int("epochs", 50, "training epochs")
	expName := flag.String("exp_name", "ddpg", "experiment name")
	mode := flag.String("mode", ddpg.ModeTrain, "train or eval")
	checkpoint := flag.String("checkpoint", "", "checkpoint file to restore in eval mode")
	flag.Parse()

	cfg := ddpg.DefaultConfig()
	cfg.EnvName = *envName
	cfg.Gamma = *gamma
	cfg.Seed = *seed
	cfg.Epochs = *epochs
	cfg.ExpName = *expName
	cfg.Mode = *mode
	cfg.CheckpointFile = *checkpoint
	cfg.HiddenSizes = make([]int, *layers)
	for i := range cfg.HiddenSizes {
		cfg.HiddenSizes[i] = *hid
	}
	cfg.OutputDir = filepath.Join("runs", fmt.Sprintf("%s_s%d", *expName, *seed))

	trainEnv, err := env.Make(cfg.EnvName, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		log.Fatal(err)
	}
	testEnv, err := env.Make(cfg.EnvName, rand.New(rand.NewSource(cfg.Seed+1)))
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logx.NewEpochLogger(cfg.OutputDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Close()

	trainer, err := ddpg.New(cfg, trainEnv, testEnv, logger)
	if err != nil {
		log.Fatal(err)
	}

	if err := trainer.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
