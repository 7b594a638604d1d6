// Package profiling summarizes a data matrix before discovery and flags conditions
// that make independence tests unreliable. Profiles never block a run.
package profiling

import (
	"fmt"

	"gocausal/domain/dataset"
)

// Profile summarizes a data matrix.
type Profile struct {
	Observations int             `json:"observations"`
	Variables    int             `json:"variables"`
	Columns      []ColumnSummary `json:"columns"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// NonNormalThreshold is the Jarque-Bera p-value below which a column is reported as
// far from Gaussian.
const NonNormalThreshold = 0.001

// DataProfiler profiles data matrices
type DataProfiler struct {
	analyzer *DistributionAnalyzer
}

// NewDataProfiler creates a new data profiler
func NewDataProfiler() *DataProfiler {
	return &DataProfiler{analyzer: NewDistributionAnalyzer()}
}

// ProfileMatrix summarizes every column and collects warnings. A column that cannot be
// summarized is reported as a warning and skipped.
func (dp *DataProfiler) ProfileMatrix(m *dataset.Matrix) (*Profile, error) {
	rows, cols := m.Dims()
	p := &Profile{Observations: rows, Variables: cols}

	if rows <= cols {
		p.Warnings = append(p.Warnings, fmt.Sprintf(
			"%d observations for %d variables: conditional tests will run out of degrees of freedom", rows, cols))
	}

	for j := 0; j < cols; j++ {
		summary, err := dp.analyzer.AnalyzeColumn(m.Names[j], m.Column(j))
		if err != nil {
			p.Warnings = append(p.Warnings, fmt.Sprintf("column %q not profiled: %v", m.Names[j], err))
			continue
		}
		p.Columns = append(p.Columns, summary)

		switch {
		case summary.Constant:
			p.Warnings = append(p.Warnings, fmt.Sprintf("column %q is constant: every test involving it returns p=0", summary.Name))
		case summary.NormalP < NonNormalThreshold:
			p.Warnings = append(p.Warnings, fmt.Sprintf(
				"column %q looks non-Gaussian (skewness %.2f, excess kurtosis %.2f)", summary.Name, summary.Skewness, summary.Kurtosis))
		}
	}
	return p, nil
}
