package move

// Terrain samples ground height at a planar position.
type Terrain interface {
	HeightAt(x, z float64) float64
}

// HeightPolicy decides the height an entity travels at over (x, z).
type HeightPolicy interface {
	TravelHeight(x, z float64) float64
}

// TerrainFollow resamples the terrain every tick. A nil Terrain is flat at 0.
type TerrainFollow struct {
	Terrain Terrain
}

func (p TerrainFollow) TravelHeight(x, z float64) float64 {
	if p.Terrain == nil {
		return 0
	}
	return p.Terrain.HeightAt(x, z)
}

// FixedHover ignores terrain and holds a constant altitude.
type FixedHover struct {
	Altitude float64
}

func (p FixedHover) TravelHeight(_, _ float64) float64 { return p.Altitude }
