package sim

import (
	"fmt"
	"math"

	"github.com/Garsondee/Waypoint/internal/move"
	"github.com/Garsondee/Waypoint/internal/nav"
)

// OrderKind names a command.
type OrderKind string

const (
	OrderMove     OrderKind = "move"
	OrderStop     OrderKind = "stop"
	OrderLift     OrderKind = "lift"
	OrderLand     OrderKind = "land"
	OrderLower    OrderKind = "lower"
	OrderRaise    OrderKind = "raise"
	OrderGarrison OrderKind = "garrison"
	OrderUnload   OrderKind = "unload"
)

// Order is a command for one entity. Target is used by move and land; Into
// names the bunker or transport for garrison.
type Order struct {
	Tick   int
	Kind   OrderKind
	Entity string
	Target nav.Vec3
	Into   string
}

func (o Order) String() string {
	switch o.Kind {
	case OrderMove, OrderLand:
		return fmt.Sprintf("%s %s (%.1f,%.1f)", o.Kind, o.Entity, o.Target.X, o.Target.Z)
	case OrderGarrison:
		return fmt.Sprintf("%s %s into %s", o.Kind, o.Entity, o.Into)
	default:
		return fmt.Sprintf("%s %s", o.Kind, o.Entity)
	}
}

// Issue executes an order immediately.
func (w *World) Issue(o Order) error {
	w.Log.Add(w.tick, o.Entity, CatOrder, string(o.Kind), o.String(), 0)
	switch o.Kind {
	case OrderMove:
		if u, err := w.Unit(o.Entity); err == nil {
			return w.moveUnit(u, o.Target, UnitMoving, nil)
		}
		s, err := w.Structure(o.Entity)
		if err != nil {
			return err
		}
		return w.flyTo(s, o.Target)
	case OrderStop:
		u, err := w.Unit(o.Entity)
		if err != nil {
			return err
		}
		if u.Mobility() == move.Locked {
			return w.reject(o, u.state.String())
		}
		u.mover.Clear()
		u.state = UnitIdle
		return nil
	case OrderLift:
		return w.withStructure(o, w.liftOff)
	case OrderLand:
		return w.withStructure(o, func(s *Structure) error { return w.land(s, o.Target) })
	case OrderLower:
		return w.withStructure(o, w.lower)
	case OrderRaise:
		return w.withStructure(o, w.raise)
	case OrderGarrison:
		u, err := w.Unit(o.Entity)
		if err != nil {
			return err
		}
		return w.garrison(u, o.Into)
	case OrderUnload:
		return w.unload(o.Entity)
	}
	return fmt.Errorf("%w: order %q", ErrUnknownKind, o.Kind)
}

func (w *World) withStructure(o Order, fn func(*Structure) error) error {
	s, err := w.Structure(o.Entity)
	if err != nil {
		return err
	}
	return fn(s)
}

func (w *World) reject(o Order, why string) error {
	w.Log.Add(w.tick, o.Entity, CatOrder, "rejected", fmt.Sprintf("%s: %s", o.Kind, why), 0)
	return fmt.Errorf("%w: %s %s: %s", ErrOrderRejected, o.Kind, o.Entity, why)
}

// moveUnit paths u to dest. A failed search leaves the unit idle; there is no
// retry. done runs after the unit's own arrival bookkeeping.
func (w *World) moveUnit(u *Unit, dest nav.Vec3, state UnitState, done func()) error {
	if u.Mobility() == move.Locked {
		return w.reject(Order{Kind: OrderMove, Entity: u.Label}, u.state.String())
	}
	u.dest = dest
	res := w.FindPath(u.Label, u.Pos, dest)
	if !res.Found {
		u.mover.Clear()
		u.state = UnitIdle
		return nil
	}

	finish := func() {
		u.arrivals++
		u.state = UnitIdle
		w.Log.Add(w.tick, u.Label, CatMove, "arrived",
			fmt.Sprintf("(%.1f,%.1f)", u.Pos.X, u.Pos.Z), 0)
		if done != nil {
			done()
		}
	}
	if len(res.Path) == 0 {
		u.mover.Clear()
		finish()
		return nil
	}
	u.state = state
	u.mover.SetPath(res.Path, finish)
	return nil
}

func (w *World) updateUnit(u *Unit, dt float64) {
	if u.state == UnitGarrisoned {
		return
	}
	r := u.mover.Update(dt, u.Pos)
	u.Pos = r.Position
	if r.Status == move.Moving {
		w.Log.AddVerbose(w.tick, u.Label, CatMove, "position",
			fmt.Sprintf("(%.2f,%.2f,%.2f)", u.Pos.X, u.Pos.Y, u.Pos.Z), 0)
	}
	for _, p := range u.passengers {
		p.Pos = u.Pos
	}
}

// --- garrison / transport ---

func (w *World) holderByLabel(label string) (holder, error) {
	if s, err := w.Structure(label); err == nil && s.Kind == StructBunker {
		return s, nil
	}
	if u, err := w.Unit(label); err == nil && u.Kind.Transport > 0 {
		return u, nil
	}
	return nil, fmt.Errorf("%w: no bunker or transport %q", ErrUnknownEntity, label)
}

func (w *World) garrison(u *Unit, into string) error {
	o := Order{Kind: OrderGarrison, Entity: u.Label, Into: into}
	if !u.Kind.Infantry {
		return w.reject(o, "not infantry")
	}
	h, err := w.holderByLabel(into)
	if err != nil {
		return err
	}
	return w.moveUnit(u, h.position(), UnitMovingToGarrison, func() {
		if u.Pos.PlanarDist(h.position()) > boardingRange || !h.load(u) {
			w.Log.Add(w.tick, u.Label, CatOrder, "rejected", "garrison: cannot board "+h.label(), 0)
			return
		}
		u.holder = h
		u.state = UnitGarrisoned
		w.Log.Add(w.tick, u.Label, CatStruct, "garrisoned", h.label(), 0)
	})
}

func (w *World) unload(label string) error {
	h, err := w.holderByLabel(label)
	if err != nil {
		return err
	}
	var units []*Unit
	switch v := h.(type) {
	case *Structure:
		units, v.occupants = v.occupants, nil
	case *Unit:
		units, v.passengers = v.passengers, nil
	}
	if len(units) == 0 {
		return w.reject(Order{Kind: OrderUnload, Entity: label}, "empty")
	}
	c := h.position()
	for i, u := range units {
		a := float64(i) / float64(len(units)) * 2 * math.Pi
		u.Pos = nav.V3(c.X+unloadRadius*math.Cos(a), 0, c.Z+unloadRadius*math.Sin(a))
		u.Pos.Y = w.Terrain.HeightAt(u.Pos.X, u.Pos.Z)
		u.holder = nil
		u.state = UnitIdle
		u.mover.Clear()
		w.Log.Add(w.tick, u.Label, CatStruct, "unloaded", label, 0)
	}
	return nil
}

// --- flying structures ---

func (w *World) liftOff(s *Structure) error {
	o := Order{Kind: OrderLift, Entity: s.Label}
	if s.Kind != StructFlyer {
		return w.reject(o, "cannot fly")
	}
	if s.flight != Grounded {
		return w.reject(o, s.flight.String())
	}
	s.flight = Lifting
	s.progress = 0
	w.markDirty("lift " + s.Label)
	w.Log.Add(w.tick, s.Label, CatStruct, "lifting", "", 0)
	return nil
}

func (w *World) flyTo(s *Structure, dest nav.Vec3) error {
	o := Order{Kind: OrderMove, Entity: s.Label}
	if s.Kind != StructFlyer || s.flight != Flying {
		return w.reject(o, "not flying")
	}
	res := w.FindPath(s.Label, s.Pos, dest)
	if res.Found {
		s.mover.SetPath(res.Path, nil)
	}
	return nil
}

func (w *World) land(s *Structure, at nav.Vec3) error {
	o := Order{Kind: OrderLand, Entity: s.Label}
	if s.Kind != StructFlyer || s.flight != Flying {
		return w.reject(o, "not flying")
	}
	if _, ok := w.Grid.NodeAt(at); !ok {
		return w.reject(o, "target off the map")
	}
	s.landAt = at
	path := w.FindPath(s.Label, s.Pos, at).Path
	if len(path) == 0 {
		path = nav.Path{at}
	}
	s.flight = MovingToLand
	s.mover.SetPath(path, func() {
		s.flight = Landing
		s.progress = 0
		w.Log.Add(w.tick, s.Label, CatStruct, "landing",
			fmt.Sprintf("(%.1f,%.1f)", s.Pos.X, s.Pos.Z), 0)
	})
	return nil
}

// --- supply depots ---

func (w *World) lower(s *Structure) error {
	o := Order{Kind: OrderLower, Entity: s.Label}
	if s.Kind != StructDepot || s.depot != DepotRaised {
		return w.reject(o, "not a raised depot")
	}
	s.depot = DepotLowering
	s.progress = 0
	w.markDirty("lower " + s.Label)
	w.Log.Add(w.tick, s.Label, CatStruct, "lowering", "", 0)
	return nil
}

// raise makes the depot an obstacle at once and pins ground units standing on
// it until the depot is next lowered.
func (w *World) raise(s *Structure) error {
	o := Order{Kind: OrderRaise, Entity: s.Label}
	if s.Kind != StructDepot || s.depot != DepotLowered {
		return w.reject(o, "not a lowered depot")
	}
	s.depot = DepotRaising
	s.progress = 0
	w.markDirty("raise " + s.Label)
	box := s.Collider()
	for _, u := range w.Units {
		if u.Kind.Air || u.state == UnitGarrisoned || u.state == UnitPinned {
			continue
		}
		if box.ContainsPlanar(u.Pos) {
			u.state = UnitPinned
			u.pinned = s
			s.pinned = append(s.pinned, u)
			w.Log.Add(w.tick, u.Label, CatStruct, "pinned", s.Label, 0)
		}
	}
	w.Log.Add(w.tick, s.Label, CatStruct, "raising", fmt.Sprintf("%d pinned", len(s.pinned)), float64(len(s.pinned)))
	return nil
}

func (w *World) releasePinned(s *Structure) {
	for _, u := range s.pinned {
		if u.pinned != s {
			continue
		}
		u.pinned = nil
		u.state = UnitIdle
		if u.mover.Active() {
			u.state = UnitMoving
		}
		w.Log.Add(w.tick, u.Label, CatStruct, "released", s.Label, 0)
	}
	s.pinned = nil
}

// updateStructure runs lift/land and raise/lower animations and flyer motion.
func (w *World) updateStructure(s *Structure, dt float64) {
	switch s.Kind {
	case StructFlyer:
		switch s.flight {
		case Lifting:
			s.progress += dt / flightDuration
			s.Pos.Y = lerp01(0, flyerAltitude, s.progress)
			if s.progress >= 1 {
				s.flight = Flying
				s.progress = 0
				s.Pos.Y = flyerAltitude
				w.markDirty("airborne " + s.Label)
				w.Log.Add(w.tick, s.Label, CatStruct, "flying", "", 0)
			}
		case Flying, MovingToLand:
			r := s.mover.Update(dt, s.Pos)
			s.Pos = r.Position
		case Landing:
			s.progress += dt / flightDuration
			s.Pos.Y = lerp01(flyerAltitude, 0, s.progress)
			if s.progress >= 1 {
				s.flight = Grounded
				s.progress = 0
				s.Pos.Y = 0
				w.markDirty("landed " + s.Label)
				w.Log.Add(w.tick, s.Label, CatStruct, "grounded",
					fmt.Sprintf("(%.1f,%.1f)", s.Pos.X, s.Pos.Z), 0)
			}
		}
	case StructDepot:
		switch s.depot {
		case DepotLowering:
			s.progress += dt / depotDuration
			if s.progress >= 1 {
				s.depot = DepotLowered
				s.progress = 0
				w.releasePinned(s)
				w.Log.Add(w.tick, s.Label, CatStruct, "lowered", "", 0)
			}
		case DepotRaising:
			s.progress += dt / depotDuration
			if s.progress >= 1 {
				s.depot = DepotRaised
				s.progress = 0
				w.markDirty("raised " + s.Label)
				w.Log.Add(w.tick, s.Label, CatStruct, "raised", "", 0)
			}
		}
	}
}
