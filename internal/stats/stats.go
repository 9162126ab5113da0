// Package stats computes the survey statistics that feed the classifier.
// Every function returns an explicit error when a value cannot be computed,
// so callers can tell "not computed" apart from a computed zero.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrZeroVariance     = errors.New("zero variance")
	ErrInvalidReference = errors.New("reference value must be positive")
)

type Descriptive struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Clean drops NaN and infinite values.
func Clean(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Describe summarises the finite values. StdDev is the sample standard
// deviation and is zero for a single value.
func Describe(values []float64) (Descriptive, error) {
	data := Clean(values)
	if len(data) == 0 {
		return Descriptive{}, ErrInsufficientData
	}
	sorted := append([]float64{}, data...)
	sort.Float64s(sorted)

	d := Descriptive{
		N:      len(data),
		Mean:   stat.Mean(data, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(data) > 1 {
		d.StdDev = stat.StdDev(data, nil)
	}
	return d, nil
}

// ZeroScorePct is the share of pupils, in percent, whose score is exactly 0.
func ZeroScorePct(values []float64) (float64, error) {
	data := Clean(values)
	if len(data) == 0 {
		return 0, ErrInsufficientData
	}
	zeros := 0
	for _, v := range data {
		if v == 0 {
			zeros++
		}
	}
	return float64(zeros) / float64(len(data)) * 100, nil
}

// PercentOf expresses the mean of values as a percentage of reference (a
// benchmark or a maximum score).
func PercentOf(values []float64, reference float64) (float64, error) {
	if !(reference > 0) {
		return 0, ErrInvalidReference
	}
	data := Clean(values)
	if len(data) == 0 {
		return 0, ErrInsufficientData
	}
	return stat.Mean(data, nil) / reference * 100, nil
}

// BenchmarkPct is the mean score as a percentage of the task benchmark.
func BenchmarkPct(values []float64, benchmark float64) (float64, error) {
	return PercentOf(values, benchmark)
}

// MeanScorePct is the mean score as a percentage of the maximum score.
func MeanScorePct(values []float64, maxScore float64) (float64, error) {
	return PercentOf(values, maxScore)
}

// Outliers counts finite values whose z-score exceeds threshold. Fewer than
// ten values are not checked.
func Outliers(values []float64, threshold float64) int {
	data := Clean(values)
	if len(data) < 10 {
		return 0
	}
	mean, sd := stat.MeanStdDev(data, nil)
	if sd == 0 {
		return 0
	}
	n := 0
	for _, v := range data {
		if math.Abs((v-mean)/sd) > threshold {
			n++
		}
	}
	return n
}

// SignificanceStars follows the usual *, **, *** convention.
func SignificanceStars(p float64) string {
	switch {
	case math.IsNaN(p):
		return ""
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	default:
		return ""
	}
}
