package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

type Alpha struct {
	Value float64 `json:"value"`
	Items int     `json:"items"`
	Rows  int     `json:"rows"`
}

// CronbachAlpha computes alpha over a rows x items matrix. Rows with any
// missing item are dropped. At least two items and three complete rows are
// required; sample variances are used. The coefficient is not clamped and
// can be negative.
func CronbachAlpha(rows [][]float64) (Alpha, error) {
	if len(rows) == 0 {
		return Alpha{}, ErrInsufficientData
	}
	k := len(rows[0])
	if k < 2 {
		return Alpha{Items: k}, ErrInsufficientData
	}
	complete := make([][]float64, 0, len(rows))
	for _, r := range rows {
		if len(r) != k || hasMissing(r) {
			continue
		}
		complete = append(complete, r)
	}
	n := len(complete)
	if n < 3 {
		return Alpha{Items: k, Rows: n}, ErrInsufficientData
	}

	column := make([]float64, n)
	totals := make([]float64, n)
	var itemVar float64
	for j := 0; j < k; j++ {
		for i, r := range complete {
			column[i] = r[j]
			totals[i] += r[j]
		}
		itemVar += stat.Variance(column, nil)
	}
	totalVar := stat.Variance(totals, nil)
	if totalVar == 0 {
		return Alpha{Items: k, Rows: n}, ErrZeroVariance
	}
	kf := float64(k)
	return Alpha{
		Value: kf / (kf - 1) * (1 - itemVar/totalVar),
		Items: k,
		Rows:  n,
	}, nil
}

func hasMissing(r []float64) bool {
	for _, v := range r {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
