package graph

import (
	"sort"

	"gocausal/domain/causal"
)

// IsDefCollider reports whether b is a definite collider on a *-> b <-* c.
func (g *Graph) IsDefCollider(a, b, c int) bool {
	return g.Mark(a, b) == causal.EndpointArrow && g.Mark(c, b) == causal.EndpointArrow
}

// IsParent reports whether a -> b.
func (g *Graph) IsParent(a, b int) bool {
	return g.Mark(b, a) == causal.EndpointTail && g.Mark(a, b) == causal.EndpointArrow
}

// IsPotentiallyDirected reports whether the edge u–v can be read as u towards v: no
// arrowhead at u and no tail at v.
func (g *Graph) IsPotentiallyDirected(u, v int) bool {
	return g.IsAdjacent(u, v) &&
		g.Mark(v, u) != causal.EndpointArrow &&
		g.Mark(u, v) != causal.EndpointTail
}

// UncoveredPDPath reports whether an uncovered potentially directed path
// <from, first, ..., to> exists that does not visit avoid. A path is uncovered when no
// two nodes two steps apart on it are adjacent. When first == to the path is the single
// edge from–to. Pass avoid < 0 to avoid nothing.
func (g *Graph) UncoveredPDPath(from, first, to, avoid int) bool {
	if first == avoid || !g.IsPotentiallyDirected(from, first) {
		return false
	}
	if first == to {
		return true
	}
	onPath := make([]bool, g.NumNodes())
	onPath[from] = true
	onPath[first] = true
	return g.uncoveredPD(from, first, to, avoid, onPath)
}

func (g *Graph) uncoveredPD(prev, cur, to, avoid int, onPath []bool) bool {
	for _, next := range g.Adjacent(cur) {
		if onPath[next] || next == avoid {
			continue
		}
		if !g.IsPotentiallyDirected(cur, next) || g.IsAdjacent(prev, next) {
			continue
		}
		if next == to {
			return true
		}
		onPath[next] = true
		if g.uncoveredPD(cur, next, to, avoid, onPath) {
			return true
		}
		onPath[next] = false
	}
	return false
}

// HasOtherSemiDirectedPath reports whether from reaches to along edges with no
// arrowhead at the node being left, without using the edge from–to itself.
func (g *Graph) HasOtherSemiDirectedPath(from, to int) bool {
	seen := make([]bool, g.NumNodes())
	seen[from] = true
	queue := []int{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Adjacent(cur) {
			if cur == from && next == to {
				continue
			}
			if seen[next] || g.Mark(next, cur) == causal.EndpointArrow {
				continue
			}
			if next == to {
				return true
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return false
}

// IsVisible reports whether the directed edge a -> b is visible: some node c not
// adjacent to b has either an edge c *-> a, or a collider path into a whose interior
// nodes are all parents of b. A visible edge rules out a latent confounder of a and b.
func (g *Graph) IsVisible(a, b int) bool {
	if !g.IsParent(a, b) {
		return false
	}

	type state struct{ cur, toward int }
	seen := make(map[state]bool)
	var queue []state

	for _, c := range g.Adjacent(a) {
		if c == b || g.Mark(c, a) != causal.EndpointArrow {
			continue
		}
		if !g.IsAdjacent(c, b) {
			return true
		}
		if g.IsParent(c, b) {
			s := state{cur: c, toward: a}
			seen[s] = true
			queue = append(queue, s)
		}
	}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		// s.cur is an interior node: it must be a collider between its predecessor and s.toward.
		for _, prev := range g.Adjacent(s.cur) {
			if prev == s.toward || prev == a || prev == b {
				continue
			}
			if !g.IsDefCollider(prev, s.cur, s.toward) {
				continue
			}
			if !g.IsAdjacent(prev, b) {
				return true
			}
			next := state{cur: prev, toward: s.cur}
			if g.IsParent(prev, b) && !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// PossibleDSep returns the nodes x other than a and b reachable from a on a path where
// every interior node is a definite collider or forms a triangle with its neighbours
// on the path. Paths longer than maxLength edges are not followed. The result is sorted.
func (g *Graph) PossibleDSep(a, b int, maxLength causal.Limit) []int {
	type state struct{ prev, cur int }
	type item struct {
		state
		length int
	}

	seen := make(map[state]bool)
	member := make(map[int]bool)
	var queue []item

	for _, x := range g.Adjacent(a) {
		s := state{prev: a, cur: x}
		seen[s] = true
		member[x] = true
		queue = append(queue, item{state: s, length: 1})
	}

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if !maxLength.Allows(it.length + 1) {
			continue
		}
		for _, next := range g.Adjacent(it.cur) {
			if next == it.prev || next == a {
				continue
			}
			if !g.IsDefCollider(it.prev, it.cur, next) && !g.IsAdjacent(it.prev, next) {
				continue
			}
			s := state{prev: it.cur, cur: next}
			if seen[s] {
				continue
			}
			seen[s] = true
			member[next] = true
			queue = append(queue, item{state: s, length: it.length + 1})
		}
	}

	delete(member, a)
	delete(member, b)
	out := make([]int, 0, len(member))
	for x := range member {
		out = append(out, x)
	}
	sort.Ints(out)
	return out
}
