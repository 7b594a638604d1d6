package api

import (
	"context"
	"fmt"
	"strconv"

	"gocausal/adapters/excel"
	"gocausal/domain/core"
	"gocausal/internal"
	"gocausal/ports"

	"github.com/tidwall/gjson"
)

// MatrixReader implements ports.MatrixReader over a JSON endpoint. The source passed
// to ReadMatrix is the endpoint URL.
type MatrixReader struct {
	reader *APIReader
	config APIDataSource
	logger *internal.Logger
}

var _ ports.MatrixReader = (*MatrixReader)(nil)

// NewMatrixReader creates a JSON endpoint matrix reader
func NewMatrixReader(config APIDataSource, logger *internal.Logger) *MatrixReader {
	logger = internal.OrDefault(logger)
	return &MatrixReader{reader: NewAPIReader(config, logger), config: config, logger: logger.With("api")}
}

// ReadMatrix fetches every page of source and keeps the numeric fields
func (m *MatrixReader) ReadMatrix(ctx context.Context, source string) (*ports.MatrixLoad, error) {
	records, err := m.reader.FetchRecords(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w: no records", source, core.ErrInsufficientData)
	}

	load, err := excel.ToMatrix(RecordsToTable(records, m.config.Fields), excel.ExcelConfig{
		FillEmpty: m.config.FillEmpty,
		FillValue: m.config.FillValue,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	load.Source = source
	for _, w := range load.Warnings {
		m.logger.Warn("%s: %s", source, w)
	}
	return load, nil
}

// RecordsToTable lays records out as rows of cell text. Columns are fields, or the
// keys of the first record in document order. Missing and null values become empty
// cells; booleans become 1 and 0.
func RecordsToTable(records []gjson.Result, fields []string) *excel.ExcelData {
	headers := fields
	if len(headers) == 0 && len(records) > 0 {
		records[0].ForEach(func(key, _ gjson.Result) bool {
			headers = append(headers, key.String())
			return true
		})
	}

	data := &excel.ExcelData{Headers: headers, Rows: make([][]string, 0, len(records))}
	column := make(map[string]int, len(headers))
	for j, h := range headers {
		column[h] = j
	}
	for _, record := range records {
		row := make([]string, len(headers))
		record.ForEach(func(key, value gjson.Result) bool {
			if j, ok := column[key.String()]; ok {
				row[j] = cellText(value)
			}
			return true
		})
		data.Rows = append(data.Rows, row)
	}
	return data
}

func cellText(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.Number:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case gjson.True:
		return "1"
	case gjson.False:
		return "0"
	case gjson.String:
		return v.String()
	}
	// nested objects and arrays are not numeric
	return v.Raw
}
