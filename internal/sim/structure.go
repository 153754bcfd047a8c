package sim

import (
	"fmt"
	"strings"

	"github.com/Garsondee/Waypoint/internal/move"
	"github.com/Garsondee/Waypoint/internal/nav"
)

const (
	flightDuration  = 3.0 // seconds to lift off or land
	depotDuration   = 1.0 // seconds to raise or lower a depot
	flyerSpeed      = 10.0
	flyerAltitude   = 5.0
	bunkerCapacity  = 4
	unloadRadius    = 3.0
	boardingRange   = 3.5
	defaultFootSize = 4.0
)

// StructureKind selects obstacle behaviour.
type StructureKind uint8

const (
	StructBuilding StructureKind = iota // permanent obstacle
	StructFlyer                         // can lift off; blocks only when grounded
	StructDepot                         // blocks only when raised
	StructBunker                        // permanent obstacle holding infantry
)

func (k StructureKind) String() string {
	switch k {
	case StructBuilding:
		return "building"
	case StructFlyer:
		return "flyer"
	case StructDepot:
		return "depot"
	case StructBunker:
		return "bunker"
	default:
		return "unknown"
	}
}

// ParseStructureKind maps a scenario name to a kind.
func ParseStructureKind(s string) (StructureKind, error) {
	switch strings.ToLower(s) {
	case "", "building":
		return StructBuilding, nil
	case "flyer":
		return StructFlyer, nil
	case "depot":
		return StructDepot, nil
	case "bunker":
		return StructBunker, nil
	}
	return 0, fmt.Errorf("unknown structure kind %q", s)
}

// FlightState is the lift/land cycle of a flying structure.
type FlightState uint8

const (
	Grounded FlightState = iota
	Lifting
	Flying
	MovingToLand
	Landing
)

func (f FlightState) String() string {
	switch f {
	case Grounded:
		return "grounded"
	case Lifting:
		return "lifting"
	case Flying:
		return "flying"
	case MovingToLand:
		return "moving_to_land"
	case Landing:
		return "landing"
	default:
		return "unknown"
	}
}

// DepotState is the raise/lower cycle of a supply depot.
type DepotState uint8

const (
	DepotRaised DepotState = iota
	DepotLowering
	DepotLowered
	DepotRaising
)

func (d DepotState) String() string {
	switch d {
	case DepotRaised:
		return "raised"
	case DepotLowering:
		return "lowering"
	case DepotLowered:
		return "lowered"
	case DepotRaising:
		return "raising"
	default:
		return "unknown"
	}
}

// Structure is a building footprint. It implements nav.Collidable.
type Structure struct {
	ID     int
	Label  string
	Kind   StructureKind
	Pos    nav.Vec3
	Width  float64 // X extent
	Depth  float64 // Z extent
	Height float64

	flight   FlightState
	depot    DepotState
	progress float64
	mover    *move.Consumer
	landAt   nav.Vec3

	occupants []*Unit // bunker garrison
	pinned    []*Unit // units caught on a raising depot
}

func newStructure(id int, label string, kind StructureKind, pos nav.Vec3, w, d, h float64) *Structure {
	if w <= 0 {
		w = defaultFootSize
	}
	if d <= 0 {
		d = defaultFootSize
	}
	if h <= 0 {
		h = 2
	}
	s := &Structure{ID: id, Label: label, Kind: kind, Pos: pos, Width: w, Depth: d, Height: h}
	if kind == StructFlyer {
		s.mover = move.NewAir(flyerSpeed, move.EpsilonStructure, flyerAltitude)
		s.mover.State = s.mobility
	}
	return s
}

// Collider implements nav.Collidable.
func (s *Structure) Collider() nav.AABB {
	return nav.AABB{
		Min: nav.V3(s.Pos.X-s.Width/2, s.Pos.Y, s.Pos.Z-s.Depth/2),
		Max: nav.V3(s.Pos.X+s.Width/2, s.Pos.Y+s.Height, s.Pos.Z+s.Depth/2),
	}
}

// Blocking reports whether the structure currently belongs in the obstacle set.
func (s *Structure) Blocking() bool {
	switch s.Kind {
	case StructFlyer:
		return s.flight == Grounded
	case StructDepot:
		return s.depot == DepotRaised || s.depot == DepotRaising
	default:
		return true
	}
}

// Flight returns the lift/land state of a flyer.
func (s *Structure) Flight() FlightState { return s.flight }

// Depot returns the raise/lower state of a depot.
func (s *Structure) Depot() DepotState { return s.depot }

// Occupants returns the units garrisoned in a bunker.
func (s *Structure) Occupants() []*Unit { return s.occupants }

// Pinned returns units stuck on a depot.
func (s *Structure) Pinned() []*Unit { return s.pinned }

// Path returns the remaining flight path of a flyer.
func (s *Structure) Path() nav.Path {
	if s.mover == nil {
		return nil
	}
	return s.mover.Remaining()
}

func (s *Structure) mobility() move.Mobility {
	if s.flight == Flying || s.flight == MovingToLand {
		return move.AirMobile
	}
	return move.Locked
}

func (s *Structure) label() string      { return s.Label }
func (s *Structure) position() nav.Vec3 { return s.Pos }

func (s *Structure) load(u *Unit) bool {
	if s.Kind != StructBunker || len(s.occupants) >= bunkerCapacity {
		return false
	}
	s.occupants = append(s.occupants, u)
	return true
}

// lerp01 clamps t to [0,1] and interpolates.
func lerp01(a, b, t float64) float64 {
	t = min(max(t, 0), 1)
	return a + (b-a)*t
}
