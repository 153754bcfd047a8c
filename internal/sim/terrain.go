package sim

import "math"

// Hill is a smooth cosine bump on the ground plane.
type Hill struct {
	X      float64 `yaml:"x"`
	Z      float64 `yaml:"z"`
	Radius float64 `yaml:"radius"`
	Height float64 `yaml:"height"`
}

// Terrain is the ground height field: a flat base plus hills. Hills add up
// where they overlap. A nil *Terrain is flat at 0.
type Terrain struct {
	Base  float64 `yaml:"base"`
	Hills []Hill  `yaml:"hills"`
}

// HeightAt implements move.Terrain.
func (t *Terrain) HeightAt(x, z float64) float64 {
	if t == nil {
		return 0
	}
	h := t.Base
	for _, hl := range t.Hills {
		if hl.Radius <= 0 {
			continue
		}
		d := math.Hypot(x-hl.X, z-hl.Z)
		if d >= hl.Radius {
			continue
		}
		h += hl.Height * 0.5 * (1 + math.Cos(math.Pi*d/hl.Radius))
	}
	return h
}
