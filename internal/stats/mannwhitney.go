package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

type GroupTest struct {
	U          float64 `json:"u"`
	Z          float64 `json:"z"`
	P          float64 `json:"p"`
	EffectSize float64 `json:"effect_size_r"`
	N1         int     `json:"n1"`
	N2         int     `json:"n2"`
}

// MannWhitney runs a two-sided Mann-Whitney U test using the normal
// approximation with tie and continuity correction. U is reported for the
// first sample. The effect size is r = |z| / sqrt(N) with z taken before the
// continuity correction.
func MannWhitney(a, b []float64) (GroupTest, error) {
	x := Clean(a)
	y := Clean(b)
	n1, n2 := len(x), len(y)
	res := GroupTest{N1: n1, N2: n2}
	if n1 < 2 || n2 < 2 {
		return res, ErrInsufficientData
	}

	ranks, tieTerm := rank(append(append([]float64{}, x...), y...))
	var r1 float64
	for i := 0; i < n1; i++ {
		r1 += ranks[i]
	}
	f1, f2 := float64(n1), float64(n2)
	n := f1 + f2
	res.U = r1 - f1*(f1+1)/2

	mu := f1 * f2 / 2
	sigma := math.Sqrt(f1 * f2 / 12 * ((n + 1) - tieTerm/(n*(n-1))))
	if sigma == 0 {
		return res, ErrZeroVariance
	}
	diff := res.U - mu
	res.EffectSize = math.Abs(diff) / sigma / math.Sqrt(n)

	corrected := math.Max(0, math.Abs(diff)-0.5)
	res.Z = math.Copysign(corrected/sigma, diff)
	res.P = math.Min(1, 2*(1-distuv.UnitNormal.CDF(corrected/sigma)))
	return res, nil
}

// rank assigns average ranks (1-based) and returns the tie correction term
// sum(t^3 - t) over tie groups.
func rank(values []float64) ([]float64, float64) {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return values[idx[i]] < values[idx[j]] })

	ranks := make([]float64, len(values))
	var tieTerm float64
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		if t := float64(j - i + 1); t > 1 {
			tieTerm += t*t*t - t
		}
		i = j + 1
	}
	return ranks, tieTerm
}
