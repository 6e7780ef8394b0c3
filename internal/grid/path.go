package grid

import (
	"container/heap"
)

// Blocked reports whether a cell cannot be entered
type Blocked func(Position) bool

// FindPath returns the shortest 8-connected path from one cell to another,
// both endpoints included, avoiding blocked cells. Every step costs one cell.
// The destination may not be blocked. Returns false when no path exists.
func (g *Grid) FindPath(from, to Position, blocked Blocked) ([]Position, bool) {
	if !g.InBounds(from) || !g.InBounds(to) {
		return nil, false
	}
	if blocked != nil && blocked(to) {
		return nil, false
	}
	if from == to {
		return []Position{from}, true
	}

	open := &nodeQueue{}
	heap.Push(open, &node{pos: from, g: 0, f: Chebyshev(from, to)})
	cameFrom := map[Position]Position{}
	cost := map[Position]int{from: 0}

	for open.Len() > 0 {
		current := heap.Pop(open).(*node)
		if current.pos == to {
			return reconstruct(cameFrom, from, to), true
		}
		if current.g > cost[current.pos] {
			continue
		}

		for _, next := range g.AdjacentCells(current.pos, true) {
			if blocked != nil && blocked(next) {
				continue
			}
			tentative := current.g + 1
			if known, ok := cost[next]; ok && tentative >= known {
				continue
			}
			cost[next] = tentative
			cameFrom[next] = current.pos
			heap.Push(open, &node{pos: next, g: tentative, f: tentative + Chebyshev(next, to)})
		}
	}

	return nil, false
}

// ReachableCells returns every cell reachable from start within budget steps,
// mapped to its step cost. The start cell is included at cost zero.
func (g *Grid) ReachableCells(start Position, budget int, blocked Blocked) map[Position]int {
	if !g.InBounds(start) || budget < 0 {
		return nil
	}

	cost := map[Position]int{start: 0}
	frontier := []Position{start}
	for step := 1; step <= budget && len(frontier) > 0; step++ {
		var next []Position
		for _, p := range frontier {
			for _, n := range g.AdjacentCells(p, true) {
				if _, seen := cost[n]; seen {
					continue
				}
				if blocked != nil && blocked(n) {
					continue
				}
				cost[n] = step
				next = append(next, n)
			}
		}
		frontier = next
	}
	return cost
}

func reconstruct(cameFrom map[Position]Position, from, to Position) []Position {
	path := []Position{to}
	for current := to; current != from; {
		current = cameFrom[current]
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type node struct {
	pos Position
	g   int
	f   int
}

type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].f == q[j].f {
		return q[i].g > q[j].g
	}
	return q[i].f < q[j].f
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(*node)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}
