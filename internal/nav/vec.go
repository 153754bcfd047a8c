package nav

import "math"

// Vec3 is a world-space point. X and Z span the ground plane; Y is height.
type Vec3 struct {
	X, Y, Z float64
}

// V3 is shorthand for Vec3{x, y, z}.
func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3           { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3           { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3      { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Len() float64              { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }
func (v Vec3) DistSq(o Vec3) float64     { d := v.Sub(o); return d.X*d.X + d.Y*d.Y + d.Z*d.Z }
func (v Vec3) Dist(o Vec3) float64       { return math.Sqrt(v.DistSq(o)) }
func (v Vec3) PlanarDist(o Vec3) float64 { return math.Hypot(v.X-o.X, v.Z-o.Z) }

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min, Max Vec3
}

// BoxAt returns the AABB centred on c with the given full extents.
func BoxAt(c Vec3, w, h, d float64) AABB {
	return AABB{
		Min: Vec3{c.X - w/2, c.Y - h/2, c.Z - d/2},
		Max: Vec3{c.X + w/2, c.Y + h/2, c.Z + d/2},
	}
}

// ContainsPlanar reports whether p lies inside the box on the ground plane.
func (b AABB) ContainsPlanar(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Collidable is anything that blocks ground movement while it is in the
// obstacle set handed to GridMap.UpdateObstacles.
type Collidable interface {
	Collider() AABB
}

// Box is a bare AABB obstacle (terrain walls, cliffs, map edges).
type Box AABB

// Collider implements Collidable.
func (b Box) Collider() AABB { return AABB(b) }
