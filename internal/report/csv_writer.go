package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// ClassificationRow is one line of classifications.csv. Value is nil when
// the statistic could not be computed.
type ClassificationRow struct {
	Analysis       string
	Kind           string
	Subject        string
	Value          *float64
	Label          string
	Severity       int
	Recommendation string
}

var classificationHeader = []string{"analysis", "kind", "subject", "value", "label", "severity", "recommendation"}

func WriteClassificationsCSV(path string, rows []ClassificationRow) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(classificationHeader); err != nil {
		return err
	}
	for _, r := range rows {
		value := ""
		if r.Value != nil {
			value = strconv.FormatFloat(*r.Value, 'f', 4, 64)
		}
		record := []string{r.Analysis, r.Kind, r.Subject, value, r.Label, strconv.Itoa(r.Severity), r.Recommendation}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}
