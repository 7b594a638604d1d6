// Package dataset defines the numeric observation matrix the discovery engine consumes.
package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"gocausal/domain/causal"
	"gocausal/domain/core"

	"gonum.org/v1/gonum/mat"
)

// Matrix is an N×M table of observations: rows are observations, columns are the
// named variables. It never holds missing values.
type Matrix struct {
	Names []string
	Data  *mat.Dense
}

// NewMatrix builds a matrix from row slices. When names is nil, X1..Xm are used.
func NewMatrix(names []string, rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", core.ErrInsufficientData)
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: no columns", core.ErrInsufficientData)
	}

	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", core.ErrShapeMismatch, i+1, len(row), cols)
		}
		data = append(data, row...)
	}
	return FromDense(names, mat.NewDense(len(rows), cols, data))
}

// FromDense wraps an existing dense matrix. The matrix is not copied.
func FromDense(names []string, data *mat.Dense) (*Matrix, error) {
	if data == nil || data.IsEmpty() {
		return nil, fmt.Errorf("%w: empty matrix", core.ErrInsufficientData)
	}
	_, cols := data.Dims()
	if names == nil {
		names = causal.DefaultNames(cols)
	}
	m := &Matrix{Names: names, Data: data}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the shape, the names and that every entry is finite.
func (m *Matrix) Validate() error {
	if m.Data == nil || m.Data.IsEmpty() {
		return fmt.Errorf("%w: empty matrix", core.ErrInsufficientData)
	}
	rows, cols := m.Data.Dims()
	if len(m.Names) != cols {
		return fmt.Errorf("%w: %d names for %d columns", core.ErrShapeMismatch, len(m.Names), cols)
	}
	if _, err := causal.NewVariables(m.Names); err != nil {
		return fmt.Errorf("%w: %v", core.ErrShapeMismatch, err)
	}
	if rows < 2 {
		return fmt.Errorf("%w: %d observation(s), need at least 2", core.ErrInsufficientData, rows)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.Data.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: row %d column %q", core.ErrMissingValue, i+1, m.Names[j])
			}
		}
	}
	return nil
}

// Dims returns the number of observations and variables
func (m *Matrix) Dims() (observations, variables int) {
	return m.Data.Dims()
}

// Column copies one variable's observations
func (m *Matrix) Column(j int) []float64 {
	return mat.Col(nil, j, m.Data)
}

// Variables returns the matrix's columns as variables
func (m *Matrix) Variables() []causal.Variable {
	vars := make([]causal.Variable, len(m.Names))
	for i, n := range m.Names {
		vars[i] = causal.Variable{Index: i, Name: n}
	}
	return vars
}

// Fingerprint hashes names and values, so runs over identical input can be matched.
func (m *Matrix) Fingerprint() core.Hash {
	rows, cols := m.Data.Dims()
	var b strings.Builder
	b.WriteString(strings.Join(m.Names, "\x1f"))
	buf := make([]byte, 8)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(m.Data.At(i, j)))
			b.Write(buf)
		}
	}
	return core.NewHash([]byte(b.String()))
}
