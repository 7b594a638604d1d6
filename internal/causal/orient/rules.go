package orient

import (
	"gocausal/domain/causal"
)

const (
	circle = causal.EndpointCircle
	arrow  = causal.EndpointArrow
	tail   = causal.EndpointTail
)

// ruleR1R2Cycle applies R1 and R2 around every node.
//
// R1: a *-> b o-* c with a, c not adjacent becomes b -> c.
// R2: a -> b *-> c or a *-> b -> c with a *-o c becomes a *-> c.
func (r *run) ruleR1R2Cycle() bool {
	g := r.g
	changed := false
	for b := 0; b < g.NumNodes(); b++ {
		adj := g.Adjacent(b)
		for _, a := range adj {
			for _, c := range adj {
				if a == c {
					continue
				}
				changed = r.ruleR1(a, b, c) || changed
				changed = r.ruleR2(a, b, c) || changed
			}
		}
	}
	return changed
}

func (r *run) ruleR1(a, b, c int) bool {
	g := r.g
	if g.Mark(a, b) != arrow || g.Mark(c, b) != circle || g.IsAdjacent(a, c) {
		return false
	}
	if !r.allowed(c, b, tail) || !r.allowed(b, c, arrow) {
		return false
	}
	t := r.set("R1", c, b, tail)
	h := r.set("R1", b, c, arrow)
	return t || h
}

func (r *run) ruleR2(a, b, c int) bool {
	g := r.g
	if !g.IsAdjacent(a, c) || g.Mark(a, c) != circle {
		return false
	}
	if (g.IsParent(a, b) && g.Mark(b, c) == arrow) || (g.Mark(a, b) == arrow && g.IsParent(b, c)) {
		return r.set("R2", a, c, arrow)
	}
	return false
}

// ruleR3: a *-> b <-* c, a *-o d o-* c, a and c not adjacent, d *-o b becomes d *-> b.
func (r *run) ruleR3() bool {
	g := r.g
	changed := false
	for b := 0; b < g.NumNodes(); b++ {
		adj := g.Adjacent(b)
		for _, d := range adj {
			if g.Mark(d, b) != circle {
				continue
			}
			for i, a := range adj {
				for _, c := range adj[i+1:] {
					if a == d || c == d || g.IsAdjacent(a, c) || !g.IsDefCollider(a, b, c) {
						continue
					}
					if g.Mark(a, d) == circle && g.Mark(c, d) == circle {
						if r.set("R3", d, b, arrow) {
							changed = true
						}
					}
				}
			}
		}
	}
	return changed
}

// ruleR5: an o-o edge a–b closing an uncovered circle cycle a–c–...–d–b–a, with a, d
// not adjacent and b, c not adjacent, turns the edge and the whole path undirected.
func (r *run) ruleR5() bool {
	g := r.g
	changed := false
	for _, e := range g.Edges() {
		a, b := e.A, e.B
		if e.MarkA != circle || e.MarkB != circle {
			continue
		}
		for _, c := range g.Adjacent(a) {
			if c == b || !r.circleEdge(a, c) || g.IsAdjacent(b, c) {
				continue
			}
			path := r.uncoveredCirclePath(a, c, b)
			if path == nil {
				continue
			}
			changed = r.setUndirected("R5", a, b) || changed
			for i := 0; i+1 < len(path); i++ {
				changed = r.setUndirected("R5", path[i], path[i+1]) || changed
			}
			break
		}
	}
	return changed
}

func (r *run) circleEdge(a, b int) bool {
	return r.g.Mark(a, b) == circle && r.g.Mark(b, a) == circle
}

func (r *run) setUndirected(rule string, a, b int) bool {
	x := r.set(rule, a, b, tail)
	y := r.set(rule, b, a, tail)
	return x || y
}

// uncoveredCirclePath returns <a, c, ..., d, b> made of o-o edges, uncovered, with a
// and d not adjacent, or nil.
func (r *run) uncoveredCirclePath(a, c, b int) []int {
	onPath := make([]bool, r.g.NumNodes())
	onPath[a], onPath[b], onPath[c] = true, true, true
	path := []int{a, c}

	var walk func(prev, cur int) bool
	walk = func(prev, cur int) bool {
		for _, next := range r.g.Adjacent(cur) {
			if next == b {
				if cur != c && !r.g.IsAdjacent(a, cur) && !r.g.IsAdjacent(prev, b) && r.circleEdge(cur, b) {
					path = append(path, b)
					return true
				}
				continue
			}
			if onPath[next] || !r.circleEdge(cur, next) || r.g.IsAdjacent(prev, next) {
				continue
			}
			onPath[next] = true
			path = append(path, next)
			if walk(cur, next) {
				return true
			}
			path = path[:len(path)-1]
			onPath[next] = false
		}
		return false
	}
	if walk(a, c) {
		return path
	}
	return nil
}

// ruleR6: a --- b o-* c becomes b -* c.
func (r *run) ruleR6() bool {
	g := r.g
	changed := false
	for b := 0; b < g.NumNodes(); b++ {
		adj := g.Adjacent(b)
		for _, a := range adj {
			if g.Mark(a, b) != tail || g.Mark(b, a) != tail {
				continue
			}
			for _, c := range adj {
				if c != a && g.Mark(c, b) == circle {
					changed = r.set("R6", c, b, tail) || changed
				}
			}
		}
	}
	return changed
}

// ruleR7: a -o b o-* c with a, c not adjacent becomes b -* c.
func (r *run) ruleR7() bool {
	g := r.g
	changed := false
	for b := 0; b < g.NumNodes(); b++ {
		adj := g.Adjacent(b)
		for _, a := range adj {
			if g.Mark(b, a) != tail || g.Mark(a, b) != circle {
				continue
			}
			for _, c := range adj {
				if c != a && !g.IsAdjacent(a, c) && g.Mark(c, b) == circle {
					changed = r.set("R7", c, b, tail) || changed
				}
			}
		}
	}
	return changed
}

// ruleR8: a -> b -> c or a -o b -> c, with a o-> c, becomes a -> c.
func (r *run) ruleR8() bool {
	g := r.g
	changed := false
	for _, ac := range r.circleArrowEdges() {
		a, c := ac[0], ac[1]
		for _, b := range g.Adjacent(a) {
			if b == c || !g.IsParent(b, c) {
				continue
			}
			if g.IsParent(a, b) || (g.Mark(b, a) == tail && g.Mark(a, b) == circle) {
				if r.set("R8", c, a, tail) {
					changed = true
				}
				break
			}
		}
	}
	return changed
}

// ruleR9: a o-> c with an uncovered potentially directed path <a, b, ..., c>, b and c
// not adjacent, becomes a -> c.
func (r *run) ruleR9() bool {
	g := r.g
	changed := false
	for _, ac := range r.circleArrowEdges() {
		a, c := ac[0], ac[1]
		for _, b := range g.Adjacent(a) {
			if b == c || g.IsAdjacent(b, c) {
				continue
			}
			if g.UncoveredPDPath(a, b, c, -1) {
				if r.set("R9", c, a, tail) {
					changed = true
				}
				break
			}
		}
	}
	return changed
}

// ruleR10: a o-> c with b -> c <- d, and uncovered potentially directed paths from a
// to b and from a to d whose first nodes after a are distinct and not adjacent,
// becomes a -> c.
func (r *run) ruleR10() bool {
	g := r.g
	changed := false
	for _, ac := range r.circleArrowEdges() {
		a, c := ac[0], ac[1]

		var parents []int
		for _, p := range g.Adjacent(c) {
			if p != a && g.IsParent(p, c) {
				parents = append(parents, p)
			}
		}
		if len(parents) < 2 || !r.rule10Applies(a, c, parents) {
			continue
		}
		if r.set("R10", c, a, tail) {
			changed = true
		}
	}
	return changed
}

func (r *run) rule10Applies(a, c int, parents []int) bool {
	g := r.g
	firstHops := func(target int) []int {
		var hops []int
		for _, m := range g.Adjacent(a) {
			if m != c && g.UncoveredPDPath(a, m, target, c) {
				hops = append(hops, m)
			}
		}
		return hops
	}
	for i, b := range parents {
		for _, d := range parents[i+1:] {
			for _, mu := range firstHops(b) {
				for _, omega := range firstHops(d) {
					if mu != omega && !g.IsAdjacent(mu, omega) {
						return true
					}
				}
			}
		}
	}
	return false
}

// circleArrowEdges lists ordered pairs (a, c) with a o-> c.
func (r *run) circleArrowEdges() [][2]int {
	var out [][2]int
	for _, e := range r.g.Edges() {
		if e.MarkA == circle && e.MarkB == arrow {
			out = append(out, [2]int{e.A, e.B})
		}
		if e.MarkB == circle && e.MarkA == arrow {
			out = append(out, [2]int{e.B, e.A})
		}
	}
	return out
}
