package game

import (
	"math"

	"github.com/Garsondee/Waypoint/internal/nav"
)

// viewport maps the world's ground plane (X right, Z down the screen) onto a
// pixel rectangle. The world is centred on the origin, matching nav.GridMap.
type viewport struct {
	offX, offY  float64 // screen position of the world's min corner
	scale       float64 // pixels per world unit
	worldWidth  float64
	worldHeight float64
}

func newViewport(worldWidth, worldHeight, scale float64, offX, offY int) viewport {
	if scale <= 0 {
		scale = 1
	}
	return viewport{
		offX:        float64(offX),
		offY:        float64(offY),
		scale:       scale,
		worldWidth:  worldWidth,
		worldHeight: worldHeight,
	}
}

// pixelSize returns the on-screen size of the whole world.
func (v viewport) pixelSize() (int, int) {
	return int(math.Ceil(v.worldWidth * v.scale)), int(math.Ceil(v.worldHeight * v.scale))
}

func (v viewport) toScreen(p nav.Vec3) (float32, float32) {
	sx := v.offX + (p.X+v.worldWidth/2)*v.scale
	sy := v.offY + (p.Z+v.worldHeight/2)*v.scale
	return float32(sx), float32(sy)
}

func (v viewport) toWorld(sx, sy int) nav.Vec3 {
	return nav.Vec3{
		X: (float64(sx)-v.offX)/v.scale - v.worldWidth/2,
		Z: (float64(sy)-v.offY)/v.scale - v.worldHeight/2,
	}
}

// contains reports whether the screen point lies over the world.
func (v viewport) contains(sx, sy int) bool {
	p := v.toWorld(sx, sy)
	return math.Abs(p.X) <= v.worldWidth/2 && math.Abs(p.Z) <= v.worldHeight/2
}

// boxRect returns the screen rectangle of an AABB's ground footprint.
func (v viewport) boxRect(b nav.AABB) (x, y, w, h float32) {
	x, y = v.toScreen(b.Min)
	x2, y2 := v.toScreen(b.Max)
	return x, y, x2 - x, y2 - y
}
