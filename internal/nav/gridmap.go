package nav

import "math"

// GridNode is one square cell of the grid. The cost and parent fields are
// search scratch: FindPath resets them on every call.
type GridNode struct {
	X, Y     int
	Walkable bool

	gCost, hCost, fCost int
	parent              int // node index, -1 for none

	open, closed bool
	heapIndex    int
	seq          int // discovery order, breaks (f,h) ties like a linear scan
}

// GridMap discretizes a world region centred on the origin into square cells.
// Cell (0,0) sits at world corner (-worldWidth/2, -worldHeight/2); grid Y runs
// along world Z.
type GridMap struct {
	resolution  float64
	worldWidth  float64
	worldHeight float64
	cols        int
	rows        int
	nodes       []GridNode
}

// NewGridMap builds an all-walkable grid covering worldWidth × worldHeight
// world units with cells of resolution units per side.
func NewGridMap(worldWidth, worldHeight, resolution float64) *GridMap {
	if resolution <= 0 {
		resolution = 1
	}
	cols := max(0, int(math.Floor(worldWidth/resolution)))
	rows := max(0, int(math.Floor(worldHeight/resolution)))
	gm := &GridMap{
		resolution:  resolution,
		worldWidth:  worldWidth,
		worldHeight: worldHeight,
		cols:        cols,
		rows:        rows,
		nodes:       make([]GridNode, cols*rows),
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			gm.nodes[y*cols+x] = GridNode{X: x, Y: y, Walkable: true, parent: -1}
		}
	}
	return gm
}

// Size returns the grid dimensions in cells.
func (gm *GridMap) Size() (cols, rows int) { return gm.cols, gm.rows }

// Resolution returns world units per cell.
func (gm *GridMap) Resolution() float64 { return gm.resolution }

// Bounds returns the world-space rectangle covered by the grid (Y is zero).
func (gm *GridMap) Bounds() AABB {
	return AABB{
		Min: Vec3{X: -gm.worldWidth / 2, Z: -gm.worldHeight / 2},
		Max: Vec3{X: gm.worldWidth / 2, Z: gm.worldHeight / 2},
	}
}

// WorldToGrid converts a world position to cell coordinates. The result is
// not clamped; use Node to check it.
func (gm *GridMap) WorldToGrid(p Vec3) (int, int) {
	gx := int(math.Floor((p.X + gm.worldWidth/2) / gm.resolution))
	gy := int(math.Floor((p.Z + gm.worldHeight/2) / gm.resolution))
	return gx, gy
}

// GridToWorld returns the world-space centre of cell (gx, gy) at height 0.
func (gm *GridMap) GridToWorld(gx, gy int) Vec3 {
	return Vec3{
		X: float64(gx)*gm.resolution - gm.worldWidth/2 + gm.resolution/2,
		Z: float64(gy)*gm.resolution - gm.worldHeight/2 + gm.resolution/2,
	}
}

// Node returns the cell at (gx, gy), or false when it lies outside the grid.
func (gm *GridMap) Node(gx, gy int) (*GridNode, bool) {
	if gx < 0 || gy < 0 || gx >= gm.cols || gy >= gm.rows {
		return nil, false
	}
	return &gm.nodes[gy*gm.cols+gx], true
}

// NodeAt returns the cell containing world position p.
func (gm *GridMap) NodeAt(p Vec3) (*GridNode, bool) {
	return gm.Node(gm.WorldToGrid(p))
}

// Walkable reports whether (gx, gy) is inside the grid and not blocked.
func (gm *GridMap) Walkable(gx, gy int) bool {
	n, ok := gm.Node(gx, gy)
	return ok && n.Walkable
}

// WalkableCount returns the number of walkable cells.
func (gm *GridMap) WalkableCount() int {
	c := 0
	for i := range gm.nodes {
		if gm.nodes[i].Walkable {
			c++
		}
	}
	return c
}

// UpdateObstacles rebuilds walkability from scratch: every cell is reset to
// walkable, then each cell between the projected min and max corners of an
// obstacle's collider (inclusive) is blocked. Cells outside the grid are
// skipped.
func (gm *GridMap) UpdateObstacles(obstacles []Collidable) {
	for i := range gm.nodes {
		gm.nodes[i].Walkable = true
	}
	for _, o := range obstacles {
		if o == nil {
			continue
		}
		box := o.Collider()
		minX, minY := gm.WorldToGrid(box.Min)
		maxX, maxY := gm.WorldToGrid(box.Max)
		minX, minY = max(minX, 0), max(minY, 0)
		maxX, maxY = min(maxX, gm.cols-1), min(maxY, gm.rows-1)
		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				gm.nodes[y*gm.cols+x].Walkable = false
			}
		}
	}
}

// index returns the flat slice index of a node.
func (gm *GridMap) index(n *GridNode) int { return n.Y*gm.cols + n.X }
