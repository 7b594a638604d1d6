package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSepsetExists is returned when a pair is given a second separating set.
var ErrSepsetExists = errors.New("graph: sepset already recorded")

// Sepset is the conditioning set that separated a removed pair.
type Sepset struct {
	Given  []int
	PValue float64
	Phase  string
}

// Contains reports whether node c is in the conditioning set.
func (s Sepset) Contains(c int) bool {
	for _, z := range s.Given {
		if z == c {
			return true
		}
	}
	return false
}

type pair [2]int

func key(a, b int) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

// SepsetTable maps unordered node pairs to the set that separated them.
// Each pair is written at most once.
type SepsetTable struct {
	sets map[pair]Sepset
}

// NewSepsetTable returns an empty table.
func NewSepsetTable() *SepsetTable {
	return &SepsetTable{sets: make(map[pair]Sepset)}
}

// Record stores the separating set of a–b. The given slice is copied and sorted.
func (t *SepsetTable) Record(a, b int, given []int, pValue float64, phase string) error {
	k := key(a, b)
	if _, ok := t.sets[k]; ok {
		return fmt.Errorf("%w: (%d, %d)", ErrSepsetExists, k[0], k[1])
	}
	z := append([]int{}, given...)
	sort.Ints(z)
	t.sets[k] = Sepset{Given: z, PValue: pValue, Phase: phase}
	return nil
}

// Get returns the separating set of a–b in either order.
func (t *SepsetTable) Get(a, b int) (Sepset, bool) {
	s, ok := t.sets[key(a, b)]
	return s, ok
}

// Separates reports whether c is in the recorded sepset of a–b.
// Pairs without a sepset report false.
func (t *SepsetTable) Separates(a, b, c int) bool {
	s, ok := t.sets[key(a, b)]
	return ok && s.Contains(c)
}

// Len returns the number of recorded pairs.
func (t *SepsetTable) Len() int { return len(t.sets) }

// Pairs lists recorded pairs in ascending order, lower index first.
func (t *SepsetTable) Pairs() [][2]int {
	out := make([][2]int, 0, len(t.sets))
	for k := range t.sets {
		out = append(out, [2]int(k))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// Clone returns an independent copy of the table.
func (t *SepsetTable) Clone() *SepsetTable {
	c := NewSepsetTable()
	for k, s := range t.sets {
		s.Given = append([]int{}, s.Given...)
		c.sets[k] = s
	}
	return c
}
