// Command discsim plays the merge engine headless: it fires shots at random
// aim points on a fixed cadence and reports score and merges when the round
// ends or the frame limit is reached.
package main

import (
	"flag"
	"image/color"
	"log"
	"math/rand"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/discmerge/config"
	"github.com/milk9111/discmerge/logging"
	"github.com/milk9111/discmerge/prefabs"
	"github.com/milk9111/discmerge/session"
	"go.uber.org/zap"
)

type tally struct {
	score    int
	merges   int
	top      int
	gameOver bool
}

func (t *tally) OnScoreChanged(score int) { t.score = score }
func (t *tally) OnGameOver() { t.gameOver = true }
func (t *tally) OnNextPreviewChanged(int) {}
func (t *tally) OnMergeVisualEvent(level int, _ cp.Vector, _ color.Color) {
	t.merges++
	if level > t.top {
		t.top = level
	}
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	frames := flag.Int("frames", 60*60*5, "maximum number of fixed steps to simulate")
	seed := flag.Int64("seed", 1, "random seed for aim and next-disc rolls")
	every := flag.Int("every", 45, "steps between shots")
	prefabDir := flag.String("prefabs", "", "prefab directory overriding the embedded files")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	cfg.Game.Seed = *seed
	if *prefabDir != "" {
		cfg.Prefabs.Dir = *prefabDir
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	src := prefabs.NewSource(cfg.Prefabs.Dir)
	palette, err := prefabs.LoadPalette(src)
	if err != nil {
		logger.Fatal("palette", zap.Error(err))
	}
	score, err := session.LoadScorePolicy(src, logger)
	if err != nil {
		logger.Warn("score script unavailable, using default", zap.Error(err))
	}

	rng := rand.New(rand.NewSource(*seed))
	engine, err := session.NewEngine(cfg, palette, rand.New(rand.NewSource(*seed+1)), logger)
	if err != nil {
		logger.Fatal("engine", zap.Error(err))
	}

	t := &tally{}
	s, err := session.New(cfg, session.Deps{
		Engine:   engine,
		Observer: t,
		Effects:  t,
		Score:    score,
		Palette:  palette,
		Rand:     rand.New(rand.NewSource(*seed + 2)),
	}, logger)
	if err != nil {
		logger.Fatal("session", zap.Error(err))
	}

	start := time.Now()
	step := cfg.Arena.TimeStep
	shots := 0
	n := 0
	for ; n < *frames && !t.gameOver; n++ {
		if *every > 0 && n%*every == 0 {
			aim := cp.Vector{X: rng.Float64() * cfg.Arena.Width, Y: cfg.Arena.Height}
			if s.Shoot(aim) {
				shots++
			}
		}
		s.Tick(step)
	}

	logger.Info("simulation finished",
		zap.Int("frames", n),
		zap.Float64("sim_seconds", float64(n)*step),
		zap.Duration("wall", time.Since(start)),
		zap.Int("shots", shots),
		zap.Int("merges", t.merges),
		zap.Int("top_level", t.top),
		zap.Int("score", t.score),
		zap.Bool("game_over", t.gameOver),
		zap.Int("bodies", engine.Physics.BodyCount()),
	)
}
