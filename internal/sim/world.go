// Package sim is a headless RTS world that drives the pathfinding core: it
// owns the obstacle set, rebuilds the grid when structures change state, and
// walks every unit along its path once per tick.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Garsondee/Waypoint/internal/nav"
)

var (
	ErrUnknownEntity   = errors.New("sim: unknown entity")
	ErrUnknownKind     = errors.New("sim: unknown kind")
	ErrOrderRejected   = errors.New("sim: order rejected")
	ErrInvalidScenario = errors.New("sim: invalid scenario")
)

const (
	defaultMapSize    = 64.0
	defaultResolution = 1.0
	defaultTickRate   = 1.0 / 60
)

// PathStats counts search outcomes.
type PathStats struct {
	Requests     int
	Found        int
	AlreadyThere int
	NoPath       int
	Substituted  int
	Expanded     int
}

// World is a single-threaded simulation. Nothing in it is safe for concurrent
// use; the caller's game loop owns it.
type World struct {
	Width      float64
	Height     float64
	Resolution float64
	TickRate   float64 // seconds per tick

	Grid       *nav.GridMap
	Terrain    *Terrain
	Log        *EventLog
	Static     []nav.Collidable
	Units      []*Unit
	Structures []*Structure
	Stats      PathStats
	Rebuilds   int

	tick    int
	dirty   bool
	orders  []Order
	verbose bool
	logger  *slog.Logger
	nextID  int
	errs    []error
}

// optionKind controls the pass in which an option is applied.
type optionKind int

const (
	optInfra  optionKind = iota // map size, terrain, static obstacles, logging, applied first
	optEntity                   // structures and units, applied after the grid is built
	optOrder                    // scripted orders, applied last
)

// Option is a builder function applied to a World during construction.
type Option struct {
	kind optionKind
	fn   func(*World)
}

// WithMapSize sets the world dimensions in world units.
func WithMapSize(w, h float64) Option {
	return Option{optInfra, func(wd *World) {
		wd.Width = w
		wd.Height = h
	}}
}

// WithResolution sets world units per grid cell.
func WithResolution(r float64) Option {
	return Option{optInfra, func(wd *World) { wd.Resolution = r }}
}

// WithTickRate sets the seconds simulated per tick.
func WithTickRate(dt float64) Option {
	return Option{optInfra, func(wd *World) { wd.TickRate = dt }}
}

// WithTerrain sets the ground height field.
func WithTerrain(t *Terrain) Option {
	return Option{optInfra, func(wd *World) { wd.Terrain = t }}
}

// WithObstacle adds a static box obstacle spanning [minX,maxX]×[minZ,maxZ].
func WithObstacle(minX, minZ, maxX, maxZ float64) Option {
	return Option{optInfra, func(wd *World) {
		wd.Static = append(wd.Static, nav.Box{Min: nav.V3(minX, 0, minZ), Max: nav.V3(maxX, 2, maxZ)})
	}}
}

// WithVerbose enables per-tick position logging.
func WithVerbose(v bool) Option {
	return Option{optInfra, func(wd *World) { wd.verbose = v }}
}

// WithLogger mirrors events to logger at debug level.
func WithLogger(l *slog.Logger) Option {
	return Option{optInfra, func(wd *World) { wd.logger = l }}
}

// WithStructure adds a structure centred on (x, z).
func WithStructure(label string, kind StructureKind, x, z, width, depth float64) Option {
	return Option{optEntity, func(wd *World) {
		wd.AddStructure(label, kind, nav.V3(x, 0, z), width, depth)
	}}
}

// WithUnit adds a unit of the named kind at (x, z).
func WithUnit(label, kind string, x, z float64) Option {
	return Option{optEntity, func(wd *World) {
		if _, err := wd.AddUnit(label, kind, nav.V3(x, 0, z)); err != nil {
			wd.errs = append(wd.errs, err)
		}
	}}
}

// WithOrder schedules an order for its tick.
func WithOrder(o Order) Option {
	return Option{optOrder, func(wd *World) { wd.Schedule(o) }}
}

// NewWorld constructs a World from the given options in ordered passes:
//  1. Infrastructure (map size, terrain, static obstacles, logging)
//  2. Build the grid
//  3. Structures and units, then the first obstacle rebuild
//  4. Scripted orders
func NewWorld(opts ...Option) (*World, error) {
	w := &World{
		Width:      defaultMapSize,
		Height:     defaultMapSize,
		Resolution: defaultResolution,
		TickRate:   defaultTickRate,
	}
	for _, o := range opts {
		if o.kind == optInfra {
			o.fn(w)
		}
	}
	if w.TickRate <= 0 {
		w.TickRate = defaultTickRate
	}
	w.Log = NewEventLog(w.verbose, w.logger)
	w.Grid = nav.NewGridMap(w.Width, w.Height, w.Resolution)
	for _, o := range opts {
		if o.kind == optEntity {
			o.fn(w)
		}
	}
	w.markDirty("init")
	w.flush()
	for _, o := range opts {
		if o.kind == optOrder {
			o.fn(w)
		}
	}
	if len(w.errs) > 0 {
		return nil, errors.Join(w.errs...)
	}
	return w, nil
}

// Tick returns the current tick.
func (w *World) Tick() int { return w.tick }

// Elapsed returns simulated seconds.
func (w *World) Elapsed() float64 { return float64(w.tick) * w.TickRate }

// AddUnit places a unit and returns it. An empty label is generated.
func (w *World) AddUnit(label, kind string, pos nav.Vec3) (*Unit, error) {
	k, ok := LookupUnitKind(kind)
	if !ok {
		return nil, fmt.Errorf("%w: unit %q", ErrUnknownKind, kind)
	}
	id := w.newID()
	if label == "" {
		label = fmt.Sprintf("%s%d", kind, id)
	}
	u := newUnit(id, label, k, pos, w.Terrain)
	w.Units = append(w.Units, u)
	return u, nil
}

// AddStructure places a structure and schedules an obstacle rebuild.
func (w *World) AddStructure(label string, kind StructureKind, pos nav.Vec3, width, depth float64) *Structure {
	id := w.newID()
	if label == "" {
		label = fmt.Sprintf("%s%d", kind, id)
	}
	s := newStructure(id, label, kind, pos, width, depth, 0)
	w.Structures = append(w.Structures, s)
	w.markDirty("place " + label)
	return s
}

func (w *World) newID() int {
	id := w.nextID
	w.nextID++
	return id
}

// Unit looks up a unit by label.
func (w *World) Unit(label string) (*Unit, error) {
	for _, u := range w.Units {
		if u.Label == label {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: unit %q", ErrUnknownEntity, label)
}

// Structure looks up a structure by label.
func (w *World) Structure(label string) (*Structure, error) {
	for _, s := range w.Structures {
		if s.Label == label {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: structure %q", ErrUnknownEntity, label)
}

// Obstacles returns the current obstacle set: static boxes plus every
// structure that blocks in its present state.
func (w *World) Obstacles() []nav.Collidable {
	out := make([]nav.Collidable, 0, len(w.Static)+len(w.Structures))
	out = append(out, w.Static...)
	for _, s := range w.Structures {
		if s.Blocking() {
			out = append(out, s)
		}
	}
	return out
}

// Dirty reports whether an obstacle rebuild is pending.
func (w *World) Dirty() bool { return w.dirty }

// markDirty queues a rebuild. Several changes in one tick share one rebuild.
func (w *World) markDirty(reason string) {
	w.dirty = true
	w.Log.AddVerbose(w.tick, "--", CatGrid, "dirty", reason, 0)
}

// flush runs a pending rebuild. It is called before every search so a search
// never sees a stale grid.
func (w *World) flush() {
	if !w.dirty {
		return
	}
	w.Grid.UpdateObstacles(w.Obstacles())
	w.dirty = false
	w.Rebuilds++
	n := w.Grid.WalkableCount()
	w.Log.Add(w.tick, "--", CatGrid, "rebuild", fmt.Sprintf("%d walkable cells", n), float64(n))
}

// FindPath searches on behalf of entity and records the outcome.
func (w *World) FindPath(entity string, start, end nav.Vec3) nav.SearchResult {
	w.flush()
	res := w.Grid.Search(start, end)
	w.Stats.Requests++
	w.Stats.Expanded += res.Expanded

	route := fmt.Sprintf("(%d,%d) -> (%d,%d)", res.Start.X, res.Start.Y, res.Goal.X, res.Goal.Y)
	if res.Substituted {
		w.Stats.Substituted++
		w.Log.Add(w.tick, entity, CatPath, "substituted", route, 0)
	}
	switch {
	case !res.Found:
		w.Stats.NoPath++
		w.Log.Add(w.tick, entity, CatPath, "no_path", route, 0)
	case len(res.Path) == 0:
		w.Stats.AlreadyThere++
		w.Log.Add(w.tick, entity, CatPath, "already_there", route, 0)
	default:
		w.Stats.Found++
		w.Log.Add(w.tick, entity, CatPath, "found",
			fmt.Sprintf("%s %d waypoints", route, len(res.Path)), float64(len(res.Path)))
	}
	return res
}

// Schedule queues an order for o.Tick. Orders for the current or an earlier
// tick run at the start of the next Step.
func (w *World) Schedule(o Order) {
	w.orders = append(w.orders, o)
	sort.SliceStable(w.orders, func(i, j int) bool { return w.orders[i].Tick < w.orders[j].Tick })
}

// Pending returns the number of scheduled orders not yet issued.
func (w *World) Pending() int { return len(w.orders) }

// Step advances the world one tick: due orders, obstacle rebuild, structure
// animation, then unit movement.
func (w *World) Step() {
	w.tick++
	for len(w.orders) > 0 && w.orders[0].Tick <= w.tick {
		o := w.orders[0]
		w.orders = w.orders[1:]
		if err := w.Issue(o); err != nil {
			w.Log.Add(w.tick, o.Entity, CatOrder, "error", err.Error(), 0)
		}
	}
	w.flush()

	dt := w.TickRate
	for _, s := range w.Structures {
		w.updateStructure(s, dt)
	}
	for _, u := range w.Units {
		w.updateUnit(u, dt)
	}
}

// Run advances the world n ticks.
func (w *World) Run(n int) {
	for range n {
		w.Step()
	}
}

// RunUntil advances the world up to maxTicks, stopping early if predicate
// returns true. Returns the tick at which the predicate was satisfied, or -1.
func (w *World) RunUntil(predicate func(*World) bool, maxTicks int) int {
	for range maxTicks {
		w.Step()
		if predicate(w) {
			return w.tick
		}
	}
	return -1
}

// Settled reports whether no unit or flyer has a path left to walk.
func (w *World) Settled() bool {
	for _, u := range w.Units {
		if u.mover.Active() {
			return false
		}
	}
	for _, s := range w.Structures {
		if s.Kind == StructFlyer && (s.mover.Active() || s.flight == Lifting || s.flight == Landing) {
			return false
		}
		if s.Kind == StructDepot && (s.depot == DepotLowering || s.depot == DepotRaising) {
			return false
		}
	}
	return len(w.orders) == 0
}
