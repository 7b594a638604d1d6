// Package citest answers conditional independence queries over a data matrix.
package citest

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gocausal/domain/causal"
	"gocausal/domain/dataset"
	"gocausal/internal"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Oracle returns the p-value of "x is independent of y given z". Implementations
// must be safe for concurrent use and must not depend on the order of x and y or of z.
type Oracle interface {
	PValue(x, y int, z []int) float64
}

// FisherZ tests independence with the Fisher z-transform of the partial correlation.
//
// The correlation matrix is computed once. Results are memoized per (x, y, z) with x
// and y unordered and z sorted. Numerically degenerate queries never fail: they log a
// warning and return p = 0, which keeps the edge.
type FisherZ struct {
	corr   *mat.SymDense
	n      int
	names  []string
	logger *internal.Logger

	mu    sync.Mutex
	cache map[string]float64
	stats causal.OracleStats
}

// NewFisherZ builds an oracle over the matrix's columns.
func NewFisherZ(m *dataset.Matrix, logger *internal.Logger) *FisherZ {
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, m.Data, nil)
	n, _ := m.Dims()
	return newFisherZ(&corr, n, m.Names, logger)
}

// NewFisherZFromCorrelation builds an oracle from a precomputed correlation matrix
// and sample size.
func NewFisherZFromCorrelation(corr *mat.SymDense, n int, logger *internal.Logger) *FisherZ {
	return newFisherZ(corr, n, causal.DefaultNames(corr.SymmetricDim()), logger)
}

func newFisherZ(corr *mat.SymDense, n int, names []string, logger *internal.Logger) *FisherZ {
	f := &FisherZ{
		corr:   corr,
		n:      n,
		names:  names,
		logger: internal.OrDefault(logger).With("fisherz"),
		cache:  make(map[string]float64),
	}
	f.stats.Observations = n
	return f
}

// PValue implements Oracle.
func (f *FisherZ) PValue(x, y int, z []int) float64 {
	key := cacheKey(x, y, z)

	f.mu.Lock()
	f.stats.Queries++
	if p, ok := f.cache[key]; ok {
		f.stats.CacheHits++
		f.mu.Unlock()
		return p
	}
	f.mu.Unlock()

	p, degenerate := f.compute(x, y, z)

	f.mu.Lock()
	if _, ok := f.cache[key]; !ok {
		f.cache[key] = p
		f.stats.Evaluations++
		if degenerate {
			f.stats.Degenerate++
		}
	}
	f.mu.Unlock()
	return p
}

// Stats returns a snapshot of query counters.
func (f *FisherZ) Stats() causal.OracleStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *FisherZ) compute(x, y int, z []int) (p float64, degenerate bool) {
	dof := float64(f.n - len(z) - 3)
	if dof <= 0 {
		f.logger.Warn("%s: %d observations leave no degrees of freedom for %d conditioning variables, returning p=0",
			f.describe(x, y, z), f.n, len(z))
		return 0, true
	}

	r, err := f.partialCorrelation(x, y, z)
	if err != nil {
		f.logger.Warn("%s: %v, returning p=0", f.describe(x, y, z), err)
		return 0, true
	}

	eps := math.Nextafter(1, 2) - 1
	r = math.Max(-1+eps, math.Min(1-eps, r))
	fz := 0.5 * math.Log((1+r)/(1-r))
	statistic := math.Sqrt(dof) * math.Abs(fz)
	p = 2 * (1 - distuv.UnitNormal.CDF(statistic))

	f.logger.Trace("%s: r=%.6f stat=%.4f p=%.6g", f.describe(x, y, z), r, statistic, p)
	return p, false
}

// partialCorrelation inverts the principal sub-matrix over [x, y, z...].
func (f *FisherZ) partialCorrelation(x, y int, z []int) (float64, error) {
	idx := append([]int{x, y}, z...)
	k := len(idx)
	sub := mat.NewDense(k, k, nil)
	for i, a := range idx {
		for j, b := range idx {
			v := f.corr.At(a, b)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, fmt.Errorf("correlation sub-matrix has non-finite entries")
			}
			sub.Set(i, j, v)
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(sub); err != nil {
		return 0, fmt.Errorf("correlation sub-matrix is singular: %w", err)
	}

	denom := math.Sqrt(math.Abs(inv.At(0, 0) * inv.At(1, 1)))
	r := -inv.At(0, 1) / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, fmt.Errorf("partial correlation is not finite")
	}
	return r, nil
}

func (f *FisherZ) describe(x, y int, z []int) string {
	given := make([]string, len(z))
	for i, v := range z {
		given[i] = f.name(v)
	}
	return fmt.Sprintf("%s _||_ %s | {%s}", f.name(x), f.name(y), strings.Join(given, ", "))
}

func (f *FisherZ) name(i int) string {
	if i >= 0 && i < len(f.names) {
		return f.names[i]
	}
	return strconv.Itoa(i)
}

func cacheKey(x, y int, z []int) string {
	if x > y {
		x, y = y, x
	}
	sorted := append([]int(nil), z...)
	sort.Ints(sorted)

	var b strings.Builder
	b.WriteString(strconv.Itoa(x))
	b.WriteByte(';')
	b.WriteString(strconv.Itoa(y))
	b.WriteByte('|')
	for i, v := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}
