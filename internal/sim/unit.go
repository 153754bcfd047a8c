package sim

import (
	"fmt"
	"sort"

	"github.com/Garsondee/Waypoint/internal/move"
	"github.com/Garsondee/Waypoint/internal/nav"
)

// UnitKind holds the movement profile shared by every unit of a type.
type UnitKind struct {
	Name      string
	Speed     float64 // world units per second
	Epsilon   float64 // waypoint arrival distance
	Air       bool
	Altitude  float64 // hover height for air kinds
	Infantry  bool    // may garrison bunkers and ride transports
	Transport int     // passenger capacity, 0 for none
}

// unitKinds is the built-in roster.
var unitKinds = map[string]UnitKind{
	"scv":            {Speed: 3.5, Epsilon: move.EpsilonDefault},
	"scv-mk2":        {Speed: 4.0, Epsilon: move.EpsilonDefault},
	"marine":         {Speed: 4.0, Epsilon: move.EpsilonInfantry, Infantry: true},
	"firebat":        {Speed: 4.0, Epsilon: move.EpsilonInfantry, Infantry: true},
	"medic":          {Speed: 4.0, Epsilon: move.EpsilonInfantry, Infantry: true},
	"ghost":          {Speed: 3.5, Epsilon: move.EpsilonInfantry, Infantry: true},
	"vulture":        {Speed: 6.5, Epsilon: move.EpsilonDefault},
	"goliath":        {Speed: 3.8, Epsilon: move.EpsilonInfantry},
	"siege-tank":     {Speed: 3.0, Epsilon: move.EpsilonDefault},
	"zergling":       {Speed: 4.5, Epsilon: move.EpsilonDefault},
	"hydralisk":      {Speed: 3.5, Epsilon: move.EpsilonDefault},
	"probe":          {Speed: 3.5, Epsilon: move.EpsilonDefault, Air: true, Altitude: 0.5},
	"wraith":         {Speed: 8.0, Epsilon: move.EpsilonDefault, Air: true, Altitude: 10},
	"valkyrie":       {Speed: 8.5, Epsilon: move.EpsilonDefault, Air: true, Altitude: 9},
	"science-vessel": {Speed: 7.5, Epsilon: move.EpsilonDefault, Air: true, Altitude: 9},
	"battlecruiser":  {Speed: 5.0, Epsilon: move.EpsilonDefault, Air: true, Altitude: 11},
	"dropship":       {Speed: 7.5, Epsilon: move.EpsilonDefault, Air: true, Altitude: 8, Transport: 8},
}

// LookupUnitKind returns the roster entry for name.
func LookupUnitKind(name string) (UnitKind, bool) {
	k, ok := unitKinds[name]
	if !ok {
		return UnitKind{}, false
	}
	k.Name = name
	return k, true
}

// UnitKindNames lists the roster in sorted order.
func UnitKindNames() []string {
	out := make([]string, 0, len(unitKinds))
	for n := range unitKinds {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// UnitState is the high-level behaviour state of a unit.
type UnitState uint8

const (
	UnitIdle UnitState = iota
	UnitMoving
	UnitMovingToGarrison
	UnitGarrisoned // inside a bunker or transport
	UnitPinned     // stuck on a raising supply depot
)

func (s UnitState) String() string {
	switch s {
	case UnitIdle:
		return "idle"
	case UnitMoving:
		return "moving"
	case UnitMovingToGarrison:
		return "to_garrison"
	case UnitGarrisoned:
		return "garrisoned"
	case UnitPinned:
		return "pinned"
	default:
		return "unknown"
	}
}

// Unit is a mobile entity. All movement goes through its consumer.
type Unit struct {
	ID    int
	Label string
	Kind  UnitKind
	Pos   nav.Vec3

	state  UnitState
	mover  *move.Consumer
	dest   nav.Vec3
	holder holder // bunker or transport carrying this unit
	pinned *Structure

	passengers []*Unit // transports only
	arrivals   int
}

// holder is a bunker or a transport.
type holder interface {
	label() string
	position() nav.Vec3
	load(u *Unit) bool
}

func newUnit(id int, label string, kind UnitKind, pos nav.Vec3, terrain move.Terrain) *Unit {
	u := &Unit{ID: id, Label: label, Kind: kind, Pos: pos}
	if kind.Air {
		u.mover = move.NewAir(kind.Speed, kind.Epsilon, kind.Altitude)
		u.Pos.Y = kind.Altitude
	} else {
		u.mover = move.NewGround(kind.Speed, kind.Epsilon, terrain)
		if terrain != nil {
			u.Pos.Y = terrain.HeightAt(pos.X, pos.Z)
		}
	}
	u.mover.State = u.Mobility
	return u
}

// Mobility derives the movement eligibility from the unit's state.
func (u *Unit) Mobility() move.Mobility {
	switch {
	case u.state == UnitGarrisoned || u.state == UnitPinned:
		return move.Locked
	case u.Kind.Air:
		return move.AirMobile
	default:
		return move.GroundMobile
	}
}

// State returns the unit's behaviour state.
func (u *Unit) State() UnitState { return u.state }

// Heading returns the unit's facing on the ground plane.
func (u *Unit) Heading() float64 { return u.mover.Heading() }

// Path returns the waypoints the unit has yet to reach.
func (u *Unit) Path() nav.Path { return u.mover.Remaining() }

// Destination returns the last commanded destination.
func (u *Unit) Destination() nav.Vec3 { return u.dest }

// Arrivals counts completed paths.
func (u *Unit) Arrivals() int { return u.arrivals }

// Visible is false while the unit rides inside something.
func (u *Unit) Visible() bool { return u.state != UnitGarrisoned }

// Passengers returns the units carried by a transport.
func (u *Unit) Passengers() []*Unit { return u.passengers }

// tune applies per-unit overrides; zero keeps the kind's value.
func (u *Unit) tune(speed, epsilon, altitude float64) {
	if speed > 0 {
		u.Kind.Speed = speed
		u.mover.Speed = speed
	}
	if epsilon > 0 {
		u.Kind.Epsilon = epsilon
		u.mover.Epsilon = epsilon
	}
	if altitude > 0 && u.Kind.Air {
		u.Kind.Altitude = altitude
		u.mover.Height = move.FixedHover{Altitude: altitude}
		u.Pos.Y = altitude
	}
}

func (u *Unit) label() string      { return u.Label }
func (u *Unit) position() nav.Vec3 { return u.Pos }

func (u *Unit) load(p *Unit) bool {
	if len(u.passengers) >= u.Kind.Transport {
		return false
	}
	u.passengers = append(u.passengers, p)
	return true
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s(%s) %s at (%.1f,%.1f,%.1f)", u.Label, u.Kind.Name, u.state, u.Pos.X, u.Pos.Y, u.Pos.Z)
}
