package main

import (
	"flag"
	"log"
	"os"

	"github.com/Garsondee/Waypoint/internal/game"
	"github.com/Garsondee/Waypoint/internal/logging"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	var scenario string
	var logLevel string
	var scale float64
	var watch bool

	flag.StringVar(&scenario, "scenario", "airlift", "scenario file or embedded scenario name")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.Float64Var(&scale, "scale", 0, "pixels per world unit (0 = fit)")
	flag.BoolVar(&watch, "watch", true, "reload the scenario file when it changes")
	flag.Parse()

	logger, err := logging.New(os.Stderr, logLevel)
	if err != nil {
		log.Fatal(err)
	}
	if err := run(game.Config{Scenario: scenario, Scale: scale, Watch: watch, Logger: logger}); err != nil {
		logger.Error("viewer exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg game.Config) error {
	g, err := game.New(cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	ebiten.SetWindowTitle(g.Title())
	ebiten.SetWindowSize(g.WindowSize())
	if err := ebiten.RunGame(g); err != nil && !game.IsQuit(err) {
		return err
	}
	return nil
}
