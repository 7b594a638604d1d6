package excel

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/internal"
	"gocausal/ports"
)

// MatrixAdapter implements ports.MatrixReader over Excel and CSV files
type MatrixAdapter struct {
	config ExcelConfig
	logger *internal.Logger
}

// NewMatrixAdapter creates a matrix reader with the given sheet and fill settings.
// config.FilePath is ignored; the source passed to ReadMatrix names the file.
func NewMatrixAdapter(config ExcelConfig, logger *internal.Logger) *MatrixAdapter {
	return &MatrixAdapter{config: config, logger: internal.OrDefault(logger).With("excel")}
}

var _ ports.MatrixReader = (*MatrixAdapter)(nil)

// ReadMatrix reads source and converts it to a numeric matrix
func (a *MatrixAdapter) ReadMatrix(ctx context.Context, source string) (*ports.MatrixLoad, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := NewDataReader(source, a.config.Sheet, a.logger).ReadData()
	if err != nil {
		return nil, err
	}
	load, err := ToMatrix(data, a.config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	load.Source = source
	for _, w := range load.Warnings {
		a.logger.Warn("%s: %s", source, w)
	}
	return load, nil
}

// ToMatrix keeps the numeric columns of data. A column is numeric when every non-empty
// cell parses as a number; other columns are dropped with a warning. Empty cells are
// filled when config.FillEmpty is set and rejected with core.ErrMissingValue otherwise.
func ToMatrix(data *ExcelData, config ExcelConfig) (*ports.MatrixLoad, error) {
	load := &ports.MatrixLoad{}

	var keep []int
	for j, header := range data.Headers {
		if isNumericColumn(data, j) {
			keep = append(keep, j)
			continue
		}
		load.Dropped = append(load.Dropped, header)
	}
	if len(load.Dropped) > 0 {
		load.Warnings = append(load.Warnings,
			fmt.Sprintf("dropped %d non-numeric column(s): %s", len(load.Dropped), strings.Join(load.Dropped, ", ")))
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("%w: no numeric columns", core.ErrInsufficientData)
	}

	names := make([]string, len(keep))
	for k, j := range keep {
		names[k] = data.Headers[j]
	}

	rows := make([][]float64, len(data.Rows))
	for i := range data.Rows {
		row := make([]float64, len(keep))
		for k, j := range keep {
			value, ok := parseCell(data.Cell(i, j))
			if !ok {
				if !config.FillEmpty {
					return nil, fmt.Errorf("%w: row %d, column %q", core.ErrMissingValue, i+2, names[k])
				}
				value = config.FillValue
				load.Filled++
			}
			row[k] = value
		}
		rows[i] = row
	}
	if load.Filled > 0 {
		load.Warnings = append(load.Warnings, fmt.Sprintf("filled %d empty cell(s) with %g", load.Filled, config.FillValue))
	}

	m, err := dataset.NewMatrix(names, rows)
	if err != nil {
		return nil, err
	}
	load.Matrix = m
	return load, nil
}

// isNumericColumn reports whether column j has at least one value and all values parse
func isNumericColumn(data *ExcelData, j int) bool {
	seen := false
	for i := range data.Rows {
		cell := data.Cell(i, j)
		if isMissing(cell) {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

// parseCell returns the cell's value, or false when the cell is missing
func parseCell(cell string) (float64, bool) {
	if isMissing(cell) {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func isMissing(cell string) bool {
	switch strings.ToLower(cell) {
	case "", "na", "nan", "null":
		return true
	}
	return false
}
