package game

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Waypoint/internal/nav"
	"github.com/Garsondee/Waypoint/internal/sim"
)

const (
	lineHeight  = 15 // basicfont 7x13 plus leading
	logLines    = 48
	unitRadius  = 0.45 // world units
	minGridStep = 6    // pixels per cell below which grid lines are skipped
)

var (
	colBackground = color.RGBA{R: 12, G: 14, B: 12, A: 255}
	colGround     = color.RGBA{R: 28, G: 42, B: 28, A: 255}
	colBlocked    = color.RGBA{R: 90, G: 30, B: 30, A: 255}
	colGridLine   = color.RGBA{R: 50, G: 70, B: 50, A: 90}
	colBorder     = color.RGBA{R: 65, G: 90, B: 65, A: 255}
	colPath       = color.RGBA{R: 255, G: 220, B: 0, A: 200}
	colGroundUnit = color.RGBA{R: 60, G: 160, B: 255, A: 255}
	colAirUnit    = color.RGBA{R: 200, G: 120, B: 255, A: 255}
	colLocked     = color.RGBA{R: 140, G: 140, B: 140, A: 255}
	colSelected   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colText       = color.RGBA{R: 200, G: 220, B: 200, A: 255}
	colStatus     = color.RGBA{R: 255, G: 200, B: 80, A: 255}
	colPanel      = color.RGBA{R: 6, G: 10, B: 6, A: 210}
)

var structureColors = map[sim.StructureKind]color.RGBA{
	sim.StructBuilding: {R: 120, G: 110, B: 90, A: 255},
	sim.StructFlyer:    {R: 90, G: 130, B: 170, A: 255},
	sim.StructDepot:    {R: 170, G: 150, B: 60, A: 255},
	sim.StructBunker:   {R: 150, G: 80, B: 60, A: 255},
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)
	g.drawCells(screen)
	g.drawStructures(screen)
	g.drawPaths(screen)
	g.drawUnits(screen)

	pw, ph := g.view.pixelSize()
	vector.StrokeRect(screen, borderWidth-1, borderWidth-1, float32(pw)+2, float32(ph)+2, 2.0, colBorder, false)

	g.drawLogPanel(screen, borderWidth+pw+borderWidth)
	if g.showHUD {
		g.drawHUD(screen)
	}
}

// drawCells fills every cell: ground tinted by terrain height, blocked cells red.
func (g *Game) drawCells(screen *ebiten.Image) {
	grid := g.world.Grid
	cols, rows := grid.Size()
	res := grid.Resolution()
	cell := float32(res * g.view.scale)

	for y := range rows {
		for x := range cols {
			c := grid.GridToWorld(x, y)
			sx, sy := g.view.toScreen(nav.V3(c.X-res/2, 0, c.Z-res/2))
			col := colBlocked
			if grid.Walkable(x, y) {
				col = shade(colGround, g.world.Terrain.HeightAt(c.X, c.Z))
			}
			vector.FillRect(screen, sx, sy, cell, cell, col, false)
		}
	}

	if !g.showGrid || cell < minGridStep {
		return
	}
	ox, oy := g.view.toScreen(nav.V3(-g.world.Width/2, 0, -g.world.Height/2))
	w, h := float32(cols)*cell, float32(rows)*cell
	for x := 0; x <= cols; x++ {
		xf := ox + float32(x)*cell
		vector.StrokeLine(screen, xf, oy, xf, oy+h, 1.0, colGridLine, false)
	}
	for y := 0; y <= rows; y++ {
		yf := oy + float32(y)*cell
		vector.StrokeLine(screen, ox, yf, ox+w, yf, 1.0, colGridLine, false)
	}
}

// shade lightens c by height, one step per world unit.
func shade(c color.RGBA, height float64) color.RGBA {
	d := uint8(min(max(height*12, 0), 120))
	return color.RGBA{R: c.R + d/2, G: c.G + d, B: c.B + d/3, A: c.A}
}

func (g *Game) drawStructures(screen *ebiten.Image) {
	for _, s := range g.world.Structures {
		col := structureColors[s.Kind]
		if !s.Blocking() {
			col.A = 90
		}
		x, y, w, h := g.view.boxRect(s.Collider())
		vector.FillRect(screen, x, y, w, h, col, false)
		stroke := color.RGBA{R: col.R / 2, G: col.G / 2, B: col.B / 2, A: 255}
		if s.Label == g.selected {
			stroke = colSelected
		}
		vector.StrokeRect(screen, x, y, w, h, 1.5, stroke, false)

		label := s.Label
		switch s.Kind {
		case sim.StructFlyer:
			label += " " + s.Flight().String()
		case sim.StructDepot:
			label += " " + s.Depot().String()
		case sim.StructBunker:
			label += fmt.Sprintf(" %d", len(s.Occupants()))
		}
		g.drawText(screen, label, x+2, y+2, colText)
	}
}

func (g *Game) drawPaths(screen *ebiten.Image) {
	draw := func(from nav.Vec3, path nav.Path) {
		px, py := g.view.toScreen(from)
		for _, wp := range path {
			x, y := g.view.toScreen(wp)
			vector.StrokeLine(screen, px, py, x, y, 1.5, colPath, true)
			vector.FillCircle(screen, x, y, 2, colPath, true)
			px, py = x, y
		}
	}
	for _, u := range g.world.Units {
		if u.Visible() {
			draw(u.Pos, u.Path())
		}
	}
	for _, s := range g.world.Structures {
		draw(s.Pos, s.Path())
	}
}

func (g *Game) drawUnits(screen *ebiten.Image) {
	r := float32(unitRadius * g.view.scale)
	for _, u := range g.world.Units {
		if !u.Visible() {
			continue
		}
		col := colGroundUnit
		if u.Kind.Air {
			col = colAirUnit
		}
		if u.State() == sim.UnitPinned {
			col = colLocked
		}
		x, y := g.view.toScreen(u.Pos)
		vector.FillCircle(screen, x, y, r, col, true)

		// Heading 0 faces +Z, which is down the screen.
		hx := x + float32(math.Sin(u.Heading()))*r*1.6
		hy := y + float32(math.Cos(u.Heading()))*r*1.6
		vector.StrokeLine(screen, x, y, hx, hy, 1.5, colSelected, true)

		if u.Label == g.selected {
			vector.StrokeCircle(screen, x, y, r+3, 1.5, colSelected, true)
			g.drawText(screen, u.String(), x+r+4, y-r, colText)
		}
		if n := len(u.Passengers()); n > 0 {
			g.drawText(screen, fmt.Sprintf("%d", n), x-3, y-6, colBackground)
		}
	}
}

// drawLogPanel lists the newest events, most recent last.
func (g *Game) drawLogPanel(screen *ebiten.Image, x int) {
	vector.FillRect(screen, float32(x), 0, logPanelWidth, float32(g.height), colPanel, false)
	g.drawText(screen, "events", float32(x+8), 8, colStatus)
	for i, e := range g.world.Log.Tail(logLines) {
		line := fmt.Sprintf("%4d %-8s %s.%s %s", e.Tick, e.Entity, e.Category, e.Key, e.Value)
		if len(line) > 58 {
			line = line[:58]
		}
		g.drawText(screen, line, float32(x+8), float32(8+(i+1)*lineHeight), colText)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	speedStr := "PAUSED"
	if g.simSpeed > 0 {
		speedStr = fmt.Sprintf("%gx", g.simSpeed)
	}
	st := g.world.Stats
	lines := []string{
		fmt.Sprintf("%s  tick %d  %.1fs  SIM: %s", g.scenario.Name, g.world.Tick(), g.world.Elapsed(), speedStr),
		fmt.Sprintf("paths ok=%d here=%d none=%d subst=%d  rebuilds=%d",
			st.Found, st.AlreadyThere, st.NoPath, st.Substituted, g.world.Rebuilds),
		"LMB select  RMB move/garrison  X stop",
		"L lift/land  R raise/lower  U unload",
		"P pause  ,/. speed  N step  G grid  C copy  F5 reload",
	}
	if g.selected != "" {
		lines = append(lines, "selected: "+g.selected)
	}

	pad := float32(6)
	h := float32(len(lines)*lineHeight) + pad*2
	w := float32(0)
	for _, l := range lines {
		w = max(w, float32(len(l)*7))
	}
	w += pad * 2
	x := float32(borderWidth + 4)
	y := float32(g.height-borderWidth) - h - 4
	vector.FillRect(screen, x, y, w, h, colPanel, false)
	vector.StrokeRect(screen, x, y, w, h, 1.0, colBorder, false)
	for i, l := range lines {
		g.drawText(screen, l, x+pad, y+pad+float32(i*lineHeight), colText)
	}

	if g.status != "" && g.frame < g.statusUntil {
		g.drawText(screen, g.status, x, y-lineHeight-4, colStatus)
	}
}

func (g *Game) drawText(screen *ebiten.Image, s string, x, y float32, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, g.face, op)
}
