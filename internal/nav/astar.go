package nav

import "container/heap"

// Octile step costs.
const (
	StraightCost = 10
	DiagonalCost = 14
)

// Path is an ordered list of cell centres to walk, excluding the start cell.
// A nil Path with ok=false from FindPath means no route; an empty non-nil Path
// means the caller is already in the destination cell.
type Path []Vec3

// Cell is an integer grid coordinate.
type Cell struct {
	X, Y int
}

// SearchResult carries a FindPath outcome plus the bookkeeping used by reports
// and the viewer.
type SearchResult struct {
	Path        Path
	Found       bool
	Start       Cell
	Goal        Cell // the cell actually searched for (after substitution)
	Substituted bool // requested goal was blocked; Goal is the nearest walkable cell
	Expanded    int  // nodes moved to the closed set
}

// Octile returns the 10/14 octile distance between two cells.
func Octile(ax, ay, bx, by int) int {
	dx := abs(ax - bx)
	dy := abs(ay - by)
	if dx > dy {
		return DiagonalCost*dy + StraightCost*(dx-dy)
	}
	return DiagonalCost*dx + StraightCost*(dy-dx)
}

// FindPath returns the shortest 8-connected route from start to end.
// ok is false when either point is off the grid, the grid has no walkable
// cell, or the goal is unreachable. A blocked goal is replaced by the walkable
// cell nearest to end.
func (gm *GridMap) FindPath(start, end Vec3) (Path, bool) {
	r := gm.Search(start, end)
	return r.Path, r.Found
}

// Search is FindPath with the full result.
func (gm *GridMap) Search(start, end Vec3) SearchResult {
	sx, sy := gm.WorldToGrid(start)
	ex, ey := gm.WorldToGrid(end)
	res := SearchResult{Start: Cell{sx, sy}, Goal: Cell{ex, ey}}

	startNode, ok := gm.Node(sx, sy)
	if !ok {
		return res
	}
	endNode, ok := gm.Node(ex, ey)
	if !ok {
		return res
	}
	if startNode == endNode {
		res.Path, res.Found = Path{}, true
		return res
	}

	if !endNode.Walkable {
		endNode = gm.nearestWalkable(end)
		if endNode == nil {
			return res
		}
		res.Goal = Cell{endNode.X, endNode.Y}
		res.Substituted = true
		if endNode == startNode {
			res.Path, res.Found = Path{}, true
			return res
		}
	}

	gm.resetScratch()

	ol := &openList{gm: gm}
	seq := 0
	push := func(n *GridNode) {
		n.open = true
		n.seq = seq
		seq++
		heap.Push(ol, gm.index(n))
	}

	startNode.gCost = 0
	startNode.hCost = Octile(startNode.X, startNode.Y, endNode.X, endNode.Y)
	startNode.fCost = startNode.hCost
	push(startNode)

	for ol.Len() > 0 {
		cur := &gm.nodes[heap.Pop(ol).(int)]
		cur.open = false
		cur.closed = true
		res.Expanded++

		if cur == endNode {
			res.Path, res.Found = gm.retrace(startNode, endNode), true
			return res
		}

		for _, d := range dirs {
			nb, ok := gm.Node(cur.X+d[0], cur.Y+d[1])
			if !ok || !nb.Walkable || nb.closed {
				continue
			}
			cost := cur.gCost + Octile(cur.X, cur.Y, nb.X, nb.Y)
			if nb.open && cost >= nb.gCost {
				continue
			}
			nb.gCost = cost
			nb.hCost = Octile(nb.X, nb.Y, endNode.X, endNode.Y)
			nb.fCost = nb.gCost + nb.hCost
			nb.parent = gm.index(cur)
			if nb.open {
				heap.Fix(ol, nb.heapIndex)
			} else {
				push(nb)
			}
		}
	}
	return res
}

// dirs enumerates the 8 neighbours in the same x-major order as a nested
// dx/dy loop. Diagonals are allowed even when both flanking cells are blocked.
var dirs = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// nearestWalkable scans the whole grid for the walkable cell whose centre is
// closest (squared distance) to p. The first minimum in x-major order wins.
func (gm *GridMap) nearestWalkable(p Vec3) *GridNode {
	var best *GridNode
	bestDist := 0.0
	for x := 0; x < gm.cols; x++ {
		for y := 0; y < gm.rows; y++ {
			n := &gm.nodes[y*gm.cols+x]
			if !n.Walkable {
				continue
			}
			d := p.DistSq(gm.GridToWorld(x, y))
			if best == nil || d < bestDist {
				best, bestDist = n, d
			}
		}
	}
	return best
}

func (gm *GridMap) resetScratch() {
	for i := range gm.nodes {
		n := &gm.nodes[i]
		n.gCost, n.hCost, n.fCost = 0, 0, 0
		n.parent = -1
		n.open, n.closed = false, false
		n.heapIndex, n.seq = -1, 0
	}
}

func (gm *GridMap) retrace(start, end *GridNode) Path {
	var path Path
	for n := end; n != start; n = &gm.nodes[n.parent] {
		path = append(path, gm.GridToWorld(n.X, n.Y))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// openList is a binary heap of node indices ordered by fCost, then hCost,
// then discovery order.
type openList struct {
	gm    *GridMap
	items []int
}

func (ol *openList) Len() int { return len(ol.items) }

func (ol *openList) Less(i, j int) bool {
	a, b := &ol.gm.nodes[ol.items[i]], &ol.gm.nodes[ol.items[j]]
	if a.fCost != b.fCost {
		return a.fCost < b.fCost
	}
	if a.hCost != b.hCost {
		return a.hCost < b.hCost
	}
	return a.seq < b.seq
}

func (ol *openList) Swap(i, j int) {
	ol.items[i], ol.items[j] = ol.items[j], ol.items[i]
	ol.gm.nodes[ol.items[i]].heapIndex = i
	ol.gm.nodes[ol.items[j]].heapIndex = j
}

func (ol *openList) Push(x any) {
	idx := x.(int)
	ol.gm.nodes[idx].heapIndex = len(ol.items)
	ol.items = append(ol.items, idx)
}

func (ol *openList) Pop() any {
	old := ol.items
	idx := old[len(old)-1]
	ol.items = old[:len(old)-1]
	ol.gm.nodes[idx].heapIndex = -1
	return idx
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
