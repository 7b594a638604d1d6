package profiling

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ColumnSummary describes one variable of the data matrix.
type ColumnSummary struct {
	Name     string  `json:"name"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
	NormalP  float64 `json:"normal_p"`
	Outliers int     `json:"outliers"`
	Constant bool    `json:"constant"`
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// AnalyzeColumn computes summary statistics and a rough normality p-value
func (da *DistributionAnalyzer) AnalyzeColumn(name string, data []float64) (ColumnSummary, error) {
	summary := ColumnSummary{Name: name}

	mean, err := stats.Mean(data)
	if err != nil {
		return summary, err
	}
	stdDev, err := stats.StandardDeviationSample(data)
	if err != nil {
		return summary, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return summary, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return summary, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return summary, err
	}
	q25, q75 := quartiles(data)

	summary.Mean = mean
	summary.StdDev = stdDev
	summary.Min = min
	summary.Max = max
	summary.Median = median
	summary.Q25 = q25
	summary.Q75 = q75
	summary.Constant = min == max
	summary.NormalP = 1
	if summary.Constant {
		return summary, nil
	}

	summary.Skewness = calculateSkewness(data, mean, stdDev)
	summary.Kurtosis = calculateKurtosis(data, mean, stdDev)
	summary.NormalP = normalityP(len(data), summary.Skewness, summary.Kurtosis)
	summary.Outliers = detectOutliers(data, q25, q75)
	return summary, nil
}

// quartiles uses the empirical quantile, which is defined for any non-empty column
func quartiles(data []float64) (q25, q75 float64) {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	return stat.Quantile(0.25, stat.Empirical, sorted, nil), stat.Quantile(0.75, stat.Empirical, sorted, nil)
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}
	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	return sum / n * math.Sqrt(n*(n-1)) / (n - 2)
}

// calculateKurtosis computes sample excess kurtosis
func calculateKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 0
	}
	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d * d
	}
	return sum/n - 3
}

// normalityP is the Jarque-Bera test: JB = n/6 (S² + K²/4) against chi-square with 2 dof.
func normalityP(n int, skewness, excessKurtosis float64) float64 {
	if n < 8 {
		return 1
	}
	jb := float64(n) / 6 * (skewness*skewness + excessKurtosis*excessKurtosis/4)
	return 1 - distuv.ChiSquared{K: 2}.CDF(jb)
}

// detectOutliers counts values outside 1.5 IQR of the quartiles
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}
