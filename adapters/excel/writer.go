package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gocausal/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// WriteMatrix writes m to path with the variable names as the header row. A .csv
// extension writes CSV; anything else writes an Excel workbook with one sheet.
func WriteMatrix(path, sheet string, m *dataset.Matrix) error {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return writeCSV(path, m)
	}
	if sheet == "" {
		sheet = "Sheet1"
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		index, err := f.NewSheet(sheet)
		if err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
		}
		f.SetActiveSheet(index)
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to remove default sheet: %w", err)
		}
	}

	header := make([]interface{}, len(m.Names))
	for j, name := range m.Names {
		header[j] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		values := make([]interface{}, cols)
		for j := 0; j < cols; j++ {
			values[j] = m.Data.At(i, j)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func writeCSV(path string, m *dataset.Matrix) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(m.Names); err != nil {
		return err
	}
	rows, cols := m.Dims()
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(m.Data.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
