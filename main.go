package main

import (
	"flag"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/discmerge/config"
	"github.com/milk9111/discmerge/logging"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (defaults are used when empty)")
	debug := flag.Bool("debug", false, "enable debug mode")
	seed := flag.Int64("seed", 0, "random seed for next-disc rolls (0 = clock)")
	watch := flag.Bool("watch", false, "hot reload prefab and script files")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if *seed != 0 {
		cfg.Game.Seed = *seed
	}
	if *watch {
		cfg.Prefabs.Watch = true
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	game, err := NewGame(cfg, logger, *debug)
	if err != nil {
		logger.Fatal("start", zap.Error(err))
	}
	defer func() { _ = game.Close() }()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(int(cfg.Arena.Width/2), int(cfg.Arena.Height/2))
	ebiten.SetWindowTitle("discmerge")
	ebiten.SetTPS(int(math.Round(1 / cfg.Arena.TimeStep)))

	if err := ebiten.RunGame(game); err != nil {
		logger.Error("run", zap.Error(err))
	}
}
