package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

type Correlation struct {
	R float64 `json:"r"`
	P float64 `json:"p"`
	N int     `json:"n"`
}

// Pearson correlates the pairs where both values are finite. The two-sided
// p-value comes from the t distribution with n-2 degrees of freedom.
func Pearson(x, y []float64) (Correlation, error) {
	xs, ys := pairwise(x, y)
	n := len(xs)
	if n < 3 {
		return Correlation{N: n}, ErrInsufficientData
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return Correlation{N: n}, ErrZeroVariance
	}
	r := stat.Correlation(xs, ys, nil)
	r = math.Max(-1, math.Min(1, r))
	return Correlation{R: r, P: correlationP(r, n), N: n}, nil
}

func correlationP(r float64, n int) float64 {
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*(1-dist.CDF(math.Abs(t))))
}

func pairwise(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) || math.IsInf(x[i], 0) || math.IsInf(y[i], 0) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}
