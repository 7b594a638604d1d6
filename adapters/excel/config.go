package excel

// ExcelConfig holds configuration for an Excel or CSV data source
type ExcelConfig struct {
	FilePath string `json:"file_path"`
	// Sheet is the worksheet to read; empty means the first sheet.
	Sheet string `json:"sheet"`
	// FillEmpty replaces empty cells with FillValue instead of rejecting the file.
	FillEmpty bool    `json:"fill_empty"`
	FillValue float64 `json:"fill_value"`
	Enabled   bool    `json:"enabled"`
}

// DefaultExcelConfig returns sensible defaults for Excel processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{Enabled: false}
}
