package bands

import "math"

// Classify maps value to a band of the built-in table.
func Classify(kind MetricKind, subject string, value float64) (Result, error) {
	return defaultTable.Classify(kind, subject, value)
}

// Classify maps value to exactly one band of the scale registered for kind
// (subject-scoped scales first). NaN yields the insufficient_data sentinel.
// Bands are scanned from the most severe; a value sitting on a boundary
// therefore belongs to the more severe band.
func (t *Table) Classify(kind MetricKind, subject string, value float64) (Result, error) {
	s, err := t.scaleFor(kind, subject)
	if err != nil {
		return Result{}, err
	}
	if math.IsNaN(value) {
		return Insufficient(kind, subject), nil
	}
	b := pick(s, value)
	return Result{
		Kind:           kind,
		Subject:        subject,
		Value:          value,
		Label:          b.Label,
		Severity:       b.Severity,
		Recommendation: b.Recommendation,
	}, nil
}

// Insufficient returns the sentinel result for a value that could not be
// computed.
func Insufficient(kind MetricKind, subject string) Result {
	return Result{
		Kind:         kind,
		Subject:      subject,
		Value:        math.NaN(),
		Label:        LabelInsufficientData,
		Severity:     -1,
		Insufficient: true,
	}
}

func pick(s Scale, v float64) Band {
	n := len(s.Bands)
	if s.Direction == HigherIsWorse {
		for i := n - 1; i > 0; i-- {
			if v >= s.Bands[i].Lower {
				return s.Bands[i]
			}
		}
		return s.Bands[0]
	}
	for i := 0; i < n-1; i++ {
		if v <= s.Bands[i].Upper {
			return s.Bands[i]
		}
	}
	return s.Bands[n-1]
}

// Contains reports whether v falls in b under the closing rule of dir.
func (b Band) Contains(dir Direction, v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if dir == HigherIsWorse {
		return v >= b.Lower && (v < b.Upper || math.IsInf(b.Upper, 1))
	}
	return v <= b.Upper && (v > b.Lower || math.IsInf(b.Lower, -1))
}
