package ports

import (
	"context"

	"gocausal/domain/dataset"
)

// MatrixReader loads a numeric data matrix from some source
type MatrixReader interface {
	ReadMatrix(ctx context.Context, source string) (*MatrixLoad, error)
}

// MatrixLoad is a loaded matrix plus anything the reader dropped or changed
type MatrixLoad struct {
	Matrix   *dataset.Matrix
	Source   string
	Dropped  []string // non-numeric columns
	Filled   int      // empty cells replaced by the fill value
	Warnings []string
}
