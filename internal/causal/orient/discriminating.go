package orient

import "gocausal/internal/causal/graph"

// ruleR4 looks for discriminating paths <d, ..., a, b, c> for b, where a <-* b o-* c
// and a -> c. Every node between d and b is a collider on the path and a parent of c,
// and d is not adjacent to c. The oracle then decides whether b is a collider:
//
//	d _||_ c given the path interior with b     b -> c
//	d _||_ c given the path interior without b  a <-> b <-> c
//
// When neither test judges independence the recorded sepset of d and c decides.
func (r *run) ruleR4() bool {
	g := r.g
	changed := false
	for b := 0; b < g.NumNodes(); b++ {
		adj := g.Adjacent(b)
		for _, a := range adj {
			if g.Mark(b, a) != arrow {
				continue
			}
			for _, c := range adj {
				if c == a || g.Mark(c, b) != circle || !g.IsParent(a, c) {
					continue
				}
				if r.discriminate(a, b, c) {
					changed = true
				}
			}
		}
	}
	return changed
}

// discriminate searches backwards from a, breadth first, and orients on the first
// path the evidence can decide.
func (r *run) discriminate(a, b, c int) bool {
	g := r.g
	previous := map[int]int{a: b}
	edges := map[int]int{a: 1} // edges from the node to a along the path, plus one
	visited := map[int]bool{a: true, b: true, c: true}
	queue := []int{a}

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		// d–t adds one edge; t..a, a–b and b–c add the rest.
		if !r.e.params.MaxPathLength.Allows(edges[t] + 2) {
			continue
		}
		for _, d := range g.Adjacent(t) {
			if visited[d] || !g.IsDefCollider(d, t, previous[t]) {
				continue
			}
			if !g.IsAdjacent(d, c) {
				changed, decided := r.orientDiscriminated(d, a, b, c, interior(previous, t, b))
				if decided {
					return changed
				}
				continue
			}
			if g.IsParent(d, c) {
				previous[d] = t
				edges[d] = edges[t] + 1
				visited[d] = true
				queue = append(queue, d)
			}
		}
	}
	return false
}

// interior returns the path nodes from t back to b.
func interior(previous map[int]int, t, b int) []int {
	path := []int{t}
	for cur := t; cur != b; {
		cur = previous[cur]
		path = append(path, cur)
	}
	return path
}

func (r *run) orientDiscriminated(d, a, b, c int, path []int) (changed, decided bool) {
	withB := r.e.params.Independent(r.e.oracle.PValue(d, c, path))
	withoutB := r.e.params.Independent(r.e.oracle.PValue(d, c, graph.Without(path, b)))

	nonCollider := withB
	if !withB && !withoutB {
		s, ok := r.sepsets.Get(d, c)
		if !ok {
			return false, false
		}
		nonCollider = s.Contains(b)
	}

	if nonCollider {
		x := r.set("R4", c, b, tail)
		y := r.set("R4", b, c, arrow)
		return x || y, true
	}
	x := r.set("R4", a, b, arrow)
	y := r.set("R4", c, b, arrow)
	z := r.set("R4", b, c, arrow)
	return x || y || z, true
}
