package graph

import "gonum.org/v1/gonum/stat/combin"

// ForEachSubset calls fn with every k-element subset of set in lexicographic order of
// positions, stopping early when fn returns false. It reports whether it ran to the end.
// The slice passed to fn is reused between calls.
func ForEachSubset(set []int, k int, fn func(subset []int) bool) bool {
	if k < 0 || k > len(set) {
		return true
	}
	if k == 0 {
		return fn(nil)
	}
	positions := make([]int, k)
	subset := make([]int, k)
	gen := combin.NewCombinationGenerator(len(set), k)
	for gen.Next() {
		gen.Combination(positions)
		for i, p := range positions {
			subset[i] = set[p]
		}
		if !fn(subset) {
			return false
		}
	}
	return true
}

// Without returns set minus the given nodes, preserving order.
func Without(set []int, drop ...int) []int {
	out := make([]int, 0, len(set))
outer:
	for _, v := range set {
		for _, d := range drop {
			if v == d {
				continue outer
			}
		}
		out = append(out, v)
	}
	return out
}
