package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/solardome/egra-insight/internal/skills"
	"github.com/solardome/egra-insight/internal/stats"
)

type ValidationOptions struct {
	MinRows  int
	OutlierZ float64
}

type ValidationResult struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v ValidationResult) Valid() bool {
	return len(v.Errors) == 0
}

// requiredColumns lists the demographic columns each analysis needs on top
// of its assessment columns.
var requiredColumns = map[string][]string{
	"overview":        nil,
	"zero_scores":     nil,
	"benchmarks":      nil,
	"pupil_standards": nil,
	"reliability":     nil,
	"correlation":     nil,
	"gender":          {skills.ColumnGender},
	"language":        {skills.ColumnLanguageTeaching},
	"ses":             {skills.ColumnSES},
	"school":          {skills.ColumnSchool},
}

// minAssessmentColumns is 2 for analyses that relate tasks to each other.
var minAssessmentColumns = map[string]int{
	"reliability": 2,
	"correlation": 2,
}

func KnownAnalysis(name string) bool {
	_, ok := requiredColumns[name]
	return ok
}

// Validate checks that d can support analysis over the selected assessment
// columns. Problems that make the analysis meaningless are errors, data
// quality concerns are warnings. Both lists are sorted.
func Validate(d *Dataset, analysis string, columns []string, opts ValidationOptions) ValidationResult {
	var res ValidationResult
	if opts.MinRows <= 0 {
		opts.MinRows = 10
	}
	if opts.OutlierZ <= 0 {
		opts.OutlierZ = 3
	}
	if d == nil || d.Len() == 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("insufficient data: at least %d rows required, got 0", opts.MinRows))
		return res
	}
	if d.Len() < opts.MinRows {
		res.Errors = append(res.Errors, fmt.Sprintf("insufficient data: at least %d rows required, got %d", opts.MinRows, d.Len()))
	}
	required, ok := requiredColumns[analysis]
	if !ok {
		res.Errors = append(res.Errors, fmt.Sprintf("unknown analysis %q", analysis))
		return res
	}
	minCols := minAssessmentColumns[analysis]
	if minCols == 0 {
		minCols = 1
	}
	if len(columns) < minCols {
		res.Errors = append(res.Errors, fmt.Sprintf("%s requires at least %d assessment column(s), got %d", analysis, minCols, len(columns)))
	}

	var missing []string
	for _, c := range append(append([]string{}, required...), columns...) {
		if !d.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		res.Errors = append(res.Errors, "missing required columns: "+strings.Join(missing, ", "))
	}

	for _, c := range append(append([]string{}, required...), columns...) {
		if d.Has(c) {
			res.Warnings = append(res.Warnings, columnWarnings(d, c, opts)...)
		}
	}
	sort.Strings(res.Errors)
	res.Warnings = dedupe(res.Warnings)
	return res
}

func columnWarnings(d *Dataset, col string, opts ValidationOptions) []string {
	var warns []string
	n := d.Len()
	values, invalid := d.Numeric(col)
	numeric := col == skills.ColumnSES || skills.IsTask(col)
	if numeric && invalid*10 > n {
		warns = append(warns, fmt.Sprintf("column %s: expected numeric values, %.1f%% are not numeric", col, pct(invalid, n)))
	}
	missing := 0
	for _, c := range d.Strings(col) {
		if isMissing(c) {
			missing++
		}
	}
	if missing > 0 {
		warns = append(warns, fmt.Sprintf("column %s: %d missing values (%.1f%%)", col, missing, pct(missing, n)))
	}
	if d.Distinct(col) <= 1 {
		warns = append(warns, fmt.Sprintf("column %s: no variation", col))
	}
	task, ok := skills.Lookup(col)
	if !ok {
		return warns
	}
	out := 0
	for _, v := range values {
		if !math.IsNaN(v) && (v < task.MinScore || v > task.MaxScore) {
			out++
		}
	}
	if out > 0 {
		warns = append(warns, fmt.Sprintf("column %s: %d values outside valid range %g-%g", col, out, task.MinScore, task.MaxScore))
	}
	if o := stats.Outliers(values, opts.OutlierZ); o > 0 {
		warns = append(warns, fmt.Sprintf("column %s: %d potential outliers (|z| > %g)", col, o, opts.OutlierZ))
	}
	return warns
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	sort.Strings(in)
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
