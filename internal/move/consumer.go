// Package move walks entities along paths returned by nav.GridMap.FindPath.
//
// Every mobile entity composes one Consumer and calls Update once per frame.
// Ground and air entities differ only in their HeightPolicy and Mobility.
package move

import (
	"math"

	"github.com/Garsondee/Waypoint/internal/nav"
)

// Arrival epsilons by entity class.
const (
	EpsilonInfantry  = 0.1
	EpsilonDefault   = 0.2
	EpsilonStructure = 0.5
)

// Mobility is the movement eligibility of an entity for the current tick.
type Mobility uint8

const (
	Locked       Mobility = iota // pinned, garrisoned, carried or grounded
	GroundMobile                 // walks the terrain, planar distance
	AirMobile                    // flies at a fixed altitude, 3D distance
)

func (m Mobility) String() string {
	switch m {
	case Locked:
		return "locked"
	case GroundMobile:
		return "ground"
	case AirMobile:
		return "air"
	default:
		return "unknown"
	}
}

// Status is the outcome of one Update.
type Status uint8

const (
	Idle Status = iota
	Moving
	Completed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Moving:
		return "moving"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Result is the entity transform after an Update.
type Result struct {
	Status   Status
	Position nav.Vec3
	Heading  float64 // yaw on the ground plane, radians, 0 faces +Z
}

// Consumer advances one entity along a path at a fixed speed.
type Consumer struct {
	Speed   float64 // world units per second
	Epsilon float64 // arrival distance
	Height  HeightPolicy

	// State reports the entity's mobility each tick. When nil the consumer is
	// always mobile, ground or air according to Height.
	State func() Mobility

	path    nav.Path
	index   int
	heading float64
	onDone  func()
}

// NewGround returns a terrain-following consumer.
func NewGround(speed, epsilon float64, terrain Terrain) *Consumer {
	return &Consumer{Speed: speed, Epsilon: epsilon, Height: TerrainFollow{Terrain: terrain}}
}

// NewAir returns a consumer that flies at a constant altitude.
func NewAir(speed, epsilon, altitude float64) *Consumer {
	return &Consumer{Speed: speed, Epsilon: epsilon, Height: FixedHover{Altitude: altitude}}
}

// SetPath replaces the current path and rewinds to its first waypoint. An
// empty path clears movement. onDone, if non-nil, runs once when the last
// waypoint is reached.
func (c *Consumer) SetPath(p nav.Path, onDone func()) {
	if len(p) == 0 {
		c.path, c.index, c.onDone = nil, 0, nil
		return
	}
	c.path, c.index, c.onDone = p, 0, onDone
}

// Clear abandons the current path without running the completion action.
func (c *Consumer) Clear() { c.SetPath(nil, nil) }

// Active reports whether a path is assigned.
func (c *Consumer) Active() bool { return len(c.path) > 0 }

// Path returns the assigned path, or nil.
func (c *Consumer) Path() nav.Path { return c.path }

// Index returns the waypoint currently being approached.
func (c *Consumer) Index() int { return c.index }

// Remaining returns the waypoints not yet reached.
func (c *Consumer) Remaining() nav.Path {
	if c.index >= len(c.path) {
		return nil
	}
	return c.path[c.index:]
}

// Heading returns the last facing set by movement.
func (c *Consumer) Heading() float64 { return c.heading }

// SetHeading sets the facing reported while idle.
func (c *Consumer) SetHeading(h float64) { c.heading = h }

// Mobility returns the entity's mobility for this tick.
func (c *Consumer) Mobility() Mobility {
	if c.State != nil {
		return c.State()
	}
	if _, air := c.Height.(FixedHover); air {
		return AirMobile
	}
	return GroundMobile
}

// Update advances the entity by delta seconds from pos. Arrival at a waypoint
// carries any unspent distance on to the next one; a move never passes the
// waypoint it targets.
func (c *Consumer) Update(delta float64, pos nav.Vec3) Result {
	mob := c.Mobility()
	if mob == Locked || len(c.path) == 0 {
		return Result{Status: Idle, Position: pos, Heading: c.heading}
	}

	height := c.Height
	if height == nil {
		height = TerrainFollow{}
	}
	air := mob == AirMobile
	dist := func(a, b nav.Vec3) float64 {
		if air {
			return a.Dist(b)
		}
		return a.PlanarDist(b)
	}

	budget := c.Speed * delta
	for c.index < len(c.path) {
		target := c.path[c.index]
		target.Y = height.TravelHeight(target.X, target.Z)

		d := dist(pos, target)
		if d < c.Epsilon || d == 0 {
			pos = c.arrive(pos, target)
			continue
		}
		if budget <= 0 {
			break
		}

		dir := target.Sub(pos)
		if !air {
			dir.Y = 0
		}
		if dir.X != 0 || dir.Z != 0 {
			c.heading = math.Atan2(dir.X, dir.Z)
		}
		step := math.Min(budget, d)
		budget -= step
		if step >= d {
			pos = target
			c.index++
			continue
		}
		pos = pos.Add(dir.Scale(step / dir.Len()))
		if !air {
			pos.Y = height.TravelHeight(pos.X, pos.Z)
		}

		if dist(pos, target) < c.Epsilon {
			pos = c.arrive(pos, target)
			continue
		}
		break
	}

	if c.index < len(c.path) {
		return Result{Status: Moving, Position: pos, Heading: c.heading}
	}

	done := c.onDone
	c.path, c.index, c.onDone = nil, 0, nil
	if done != nil {
		done()
	}
	return Result{Status: Completed, Position: pos, Heading: c.heading}
}

// arrive marks the current waypoint reached within epsilon. The final
// waypoint snaps so a finished path ends exactly on it.
func (c *Consumer) arrive(pos, target nav.Vec3) nav.Vec3 {
	c.index++
	if c.index == len(c.path) {
		return target
	}
	return pos
}
