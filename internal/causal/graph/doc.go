// Package graph is the mutable mixed graph the discovery engine works on.
//
// A Graph holds one node per variable and at most one edge per unordered pair. Every
// edge carries two endpoint marks drawn from causal.Endpoint: Mark(a, b) is the mark
// at b on the edge a–b. Edges start circle–circle, can be removed but never re-added
// during a run, and their marks only tighten from circle to arrow or tail.
//
// SepsetTable records, for every removed edge, the conditioning set that separated
// its endpoints. Path queries used by the orientation rules and the result projector
// live in paths.go.
package graph
