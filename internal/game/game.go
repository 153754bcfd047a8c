// Package game is an ebiten viewer for a sim.World: it draws the grid, the
// obstacles and every unit's path, and turns mouse and key input into orders.
package game

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Waypoint/internal/sim"
)

// borderWidth is the pixel gap between the window edge and the map.
const borderWidth = 24

// logPanelWidth is the width of the event log panel right of the map.
const logPanelWidth = 420

// statusTicks is how long a status message stays on screen.
const statusTicks = 180

// Config selects the scenario and presentation of a viewer.
type Config struct {
	Scenario string       // file path or embedded scenario name
	Scale    float64      // pixels per world unit; 0 picks one that fits 900px
	Watch    bool         // reload the scenario file when it changes on disk
	Logger   *slog.Logger // nil discards
}

type Game struct {
	cfg      Config
	logger   *slog.Logger
	scenario *sim.Scenario
	world    *sim.World
	watcher  *sim.Watcher
	view     viewport
	face     text.Face

	width  int
	height int

	selected string // label of the selected unit or structure
	showGrid bool
	showHUD  bool

	// Simulation speed control.
	simSpeed  float64 // ticks per frame: 0=paused, 0.5, 1, 2, 4
	tickAccum float64

	status      string
	statusUntil int
	frame       int
}

// New loads cfg.Scenario and builds a viewer around it.
func New(cfg Config) (*Game, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	g := &Game{
		cfg:      cfg,
		logger:   logger,
		face:     text.NewGoXFace(basicfont.Face7x13),
		showGrid: true,
		showHUD:  true,
		simSpeed: 1,
	}
	if err := g.load(); err != nil {
		return nil, err
	}
	if cfg.Watch {
		w, err := sim.NewWatcher(cfg.Scenario)
		if err != nil {
			// Embedded scenarios have no file to watch.
			logger.Warn("scenario watch disabled", "scenario", cfg.Scenario, "err", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

// load (re)builds the world from the configured scenario. On failure the
// current world is kept.
func (g *Game) load() error {
	sc, err := sim.LoadScenario(g.cfg.Scenario)
	if err != nil {
		return err
	}
	w, err := sim.NewWorldFromScenario(sc, sim.WithLogger(g.logger))
	if err != nil {
		return err
	}
	g.scenario = sc
	g.world = w
	g.layout()
	if g.selected != "" && !g.exists(g.selected) {
		g.selected = ""
	}
	g.logger.Info("scenario loaded",
		"name", sc.Name,
		"units", len(w.Units),
		"structures", len(w.Structures),
		"walkable", w.Grid.WalkableCount(),
	)
	return nil
}

// layout sizes the window around the world. The window only grows, so a
// reload that shrinks the map keeps the window stable.
func (g *Game) layout() {
	scale := g.cfg.Scale
	if scale <= 0 {
		scale = 900 / max(g.world.Width, g.world.Height)
	}
	g.view = newViewport(g.world.Width, g.world.Height, scale, borderWidth, borderWidth)
	pw, ph := g.view.pixelSize()
	g.width = max(g.width, borderWidth+pw+borderWidth+logPanelWidth)
	g.height = max(g.height, borderWidth+ph+borderWidth)
}

// reload is triggered by the watcher or F5.
func (g *Game) reload() {
	if err := g.load(); err != nil {
		g.logger.Error("scenario reload failed", "scenario", g.cfg.Scenario, "err", err)
		g.setStatus("reload failed: " + firstLine(err))
		return
	}
	g.setStatus("reloaded " + g.scenario.Name)
}

// Close stops the file watcher.
func (g *Game) Close() error {
	if g.watcher == nil {
		return nil
	}
	return g.watcher.Close()
}

func (g *Game) Update() error {
	g.frame++
	g.pollWatcher()
	if err := g.handleInput(); err != nil {
		return err
	}

	g.advance()
	return nil
}

// advance runs the sim ticks due this frame. For speeds > 1 it runs several;
// for speeds < 1 it accumulates fractions.
func (g *Game) advance() {
	if g.simSpeed <= 0 {
		return
	}
	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1.0 {
		g.tickAccum -= 1.0
		g.world.Step()
	}
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.logger.Debug("scenario changed", "path", name)
			g.reload()
		case err, ok := <-g.watcher.Errors:
			if ok {
				g.logger.Warn("scenario watch error", "err", err)
			}
		default:
			return
		}
	}
}

func (g *Game) setStatus(s string) {
	g.status = s
	g.statusUntil = g.frame + statusTicks
}

func (g *Game) exists(label string) bool {
	if _, err := g.world.Unit(label); err == nil {
		return true
	}
	_, err := g.world.Structure(label)
	return err == nil
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// WindowSize returns the size the window should open at.
func (g *Game) WindowSize() (int, int) {
	return g.width, g.height
}

// Title returns a window title naming the scenario.
func (g *Game) Title() string {
	return fmt.Sprintf("Waypoint - %s", g.scenario.Name)
}

func firstLine(err error) string {
	// Joined errors put one cause per line.
	msg := err.Error()
	for i, r := range msg {
		if r == '\n' {
			return msg[:i]
		}
	}
	return msg
}

var _ ebiten.Game = (*Game)(nil)

// errQuit ends RunGame cleanly when Escape is pressed.
var errQuit = errors.New("game: quit")

// IsQuit reports whether err is the viewer's normal exit.
func IsQuit(err error) bool { return errors.Is(err, errQuit) }
