package transition

import (
	"container/heap"
	"math"

	"github.com/hivetechs/hive/internal/types"
)

// OptimalPath returns the cheapest sequence of modes from -> to, inclusive
// of both ends. A self-route is [from]; a direct edge is [from, to].
// Otherwise Dijkstra runs over integer weights of cost*100. Unreachable
// targets yield a PathNotFoundError.
func (g *Graph) OptimalPath(from, to types.ModeType) ([]types.ModeType, error) {
	if from == to {
		return []types.ModeType{from}, nil
	}
	if g.IsDirectTransitionAllowed(from, to) {
		return []types.ModeType{from, to}, nil
	}

	dist := map[types.ModeType]int{from: 0}
	prev := make(map[types.ModeType]types.ModeType)
	done := make(map[types.ModeType]bool)

	pq := &nodeQueue{}
	heap.Push(pq, queued{mode: from, dist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(queued)
		if done[cur.mode] {
			continue
		}
		done[cur.mode] = true
		if cur.mode == to {
			break
		}

		for _, next := range g.Neighbors(cur.mode) {
			if done[next] {
				continue
			}
			nd := cur.dist + g.weight(cur.mode, next)
			if d, seen := dist[next]; !seen || nd < d {
				dist[next] = nd
				prev[next] = cur.mode
				heap.Push(pq, queued{mode: next, dist: nd})
			}
		}
	}

	if !done[to] {
		return nil, &types.PathNotFoundError{From: from, To: to}
	}

	path := []types.ModeType{to}
	for m := to; m != from; {
		m = prev[m]
		path = append(path, m)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// PathCost sums the edge costs along path.
func (g *Graph) PathCost(path []types.ModeType) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += g.Cost(path[i-1], path[i])
	}
	return total
}

func (g *Graph) weight(from, to types.ModeType) int {
	return int(math.Round(g.Cost(from, to) * 100))
}

type queued struct {
	mode types.ModeType
	dist int
}

// nodeQueue is a min-heap on distance, ties broken by mode rank so routes
// are deterministic.
type nodeQueue []queued

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].mode.Rank() < q[j].mode.Rank()
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(queued)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
