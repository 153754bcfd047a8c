package game

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Garsondee/Waypoint/internal/nav"
	"github.com/Garsondee/Waypoint/internal/sim"
)

// pickRadius is how close, in world units, a click must land to a unit.
const pickRadius = 1.5

var simSpeeds = []float64{0, 0.5, 1, 2, 4}

func (g *Game) handleInput() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}

	// Sim speed controls: P/Space=pause/resume, ,=slower, .=faster.
	if inpututil.IsKeyJustPressed(ebiten.KeyP) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.togglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyComma) {
		g.stepSpeed(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) {
		g.stepSpeed(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) && g.simSpeed == 0 {
		g.world.Step()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		g.showGrid = !g.showGrid
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.reload()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copyReport()
	}

	mx, my := ebiten.CursorPosition()
	cursor := g.view.toWorld(mx, my)
	onMap := g.view.contains(mx, my)

	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.report(g.liftOrLand(cursor))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.report(g.toggleDepot())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyU) {
		g.report(g.unloadSelected())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		g.report(g.stopSelected())
	}

	if onMap && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.selectAt(cursor)
	}
	if onMap && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		g.report(g.commandAt(cursor))
	}
	return nil
}

func (g *Game) togglePause() {
	if g.simSpeed > 0 {
		g.simSpeed = 0
	} else {
		g.simSpeed = 1
	}
}

// stepSpeed moves dir steps through simSpeeds.
func (g *Game) stepSpeed(dir int) {
	cur := 0
	for i, s := range simSpeeds {
		if s <= g.simSpeed {
			cur = i
		}
	}
	cur = min(max(cur+dir, 0), len(simSpeeds)-1)
	g.simSpeed = simSpeeds[cur]
}

// report shows an order error in the status line.
func (g *Game) report(err error) {
	if err == nil {
		return
	}
	g.logger.Debug("order failed", "err", err)
	g.setStatus(err.Error())
}

// selectAt picks the nearest visible unit within pickRadius, else the
// structure under p, else clears the selection.
func (g *Game) selectAt(p nav.Vec3) {
	best, bestD := "", pickRadius
	for _, u := range g.world.Units {
		if !u.Visible() {
			continue
		}
		if d := u.Pos.PlanarDist(p); d <= bestD {
			best, bestD = u.Label, d
		}
	}
	if best == "" {
		for _, s := range g.world.Structures {
			if s.Collider().ContainsPlanar(p) {
				best = s.Label
				break
			}
		}
	}
	g.selected = best
}

func (g *Game) selectedUnit() *sim.Unit {
	u, err := g.world.Unit(g.selected)
	if err != nil {
		return nil
	}
	return u
}

func (g *Game) selectedStructure() *sim.Structure {
	s, err := g.world.Structure(g.selected)
	if err != nil {
		return nil
	}
	return s
}

var errNoSelection = errors.New("nothing selected")

// commandAt issues the right-click order for the selection: infantry clicking
// a bunker or transport garrisons, everything else moves.
func (g *Game) commandAt(p nav.Vec3) error {
	if s := g.selectedStructure(); s != nil {
		return g.world.Issue(sim.Order{Kind: sim.OrderMove, Entity: s.Label, Target: p})
	}
	u := g.selectedUnit()
	if u == nil {
		return errNoSelection
	}
	if u.Kind.Infantry {
		if into := g.holderAt(p, u); into != "" {
			return g.world.Issue(sim.Order{Kind: sim.OrderGarrison, Entity: u.Label, Into: into})
		}
	}
	return g.world.Issue(sim.Order{Kind: sim.OrderMove, Entity: u.Label, Target: p})
}

// holderAt returns the bunker or transport under p, if any.
func (g *Game) holderAt(p nav.Vec3, self *sim.Unit) string {
	for _, s := range g.world.Structures {
		if s.Kind == sim.StructBunker && s.Collider().ContainsPlanar(p) {
			return s.Label
		}
	}
	for _, t := range g.world.Units {
		if t != self && t.Kind.Transport > 0 && t.Pos.PlanarDist(p) <= pickRadius {
			return t.Label
		}
	}
	return ""
}

// liftOrLand lifts a grounded flyer, or lands a flying one at p.
func (g *Game) liftOrLand(p nav.Vec3) error {
	s := g.selectedStructure()
	if s == nil || s.Kind != sim.StructFlyer {
		return errors.New("select a flying structure")
	}
	if s.Flight() == sim.Grounded {
		return g.world.Issue(sim.Order{Kind: sim.OrderLift, Entity: s.Label})
	}
	return g.world.Issue(sim.Order{Kind: sim.OrderLand, Entity: s.Label, Target: p})
}

func (g *Game) toggleDepot() error {
	s := g.selectedStructure()
	if s == nil || s.Kind != sim.StructDepot {
		return errors.New("select a supply depot")
	}
	kind := sim.OrderLower
	if s.Depot() == sim.DepotLowered {
		kind = sim.OrderRaise
	}
	return g.world.Issue(sim.Order{Kind: kind, Entity: s.Label})
}

func (g *Game) unloadSelected() error {
	if g.selected == "" {
		return errNoSelection
	}
	return g.world.Issue(sim.Order{Kind: sim.OrderUnload, Entity: g.selected})
}

func (g *Game) stopSelected() error {
	u := g.selectedUnit()
	if u == nil {
		return errNoSelection
	}
	return g.world.Issue(sim.Order{Kind: sim.OrderStop, Entity: u.Label})
}
