package excel

// ExcelData represents the complete raw dataset
type ExcelData struct {
	Headers []string   // Column headers
	Rows    [][]string // Data rows, possibly shorter than Headers
}

// Cell returns the trimmed cell at row i, column j, or "" past the end of a short row
func (d *ExcelData) Cell(i, j int) string {
	if j >= len(d.Rows[i]) {
		return ""
	}
	return d.Rows[i][j]
}
