package insights

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/solardome/egra-insight/internal/bands"
	"github.com/solardome/egra-insight/internal/dataset"
	"github.com/solardome/egra-insight/internal/skills"
	"github.com/solardome/egra-insight/internal/stats"
	"gonum.org/v1/gonum/stat"
)

// analyzer computes the classifications of one analysis over the selected
// tasks.
type analyzer struct {
	ds    *dataset.Dataset
	table *bands.Table
	tasks []string

	results []bands.Result
	stats   []Statistic
	notes   []string
}

type analysisFunc func(a *analyzer) error

var analysisFuncs = map[string]analysisFunc{
	AnalysisOverview:       analyzeOverview,
	AnalysisZeroScores:     analyzeZeroScores,
	AnalysisBenchmarks:     analyzeBenchmarks,
	AnalysisPupilStandards: analyzePupilStandards,
	AnalysisReliability:    analyzeReliability,
	AnalysisCorrelation:    analyzeCorrelation,
	AnalysisGender:         analyzeGender,
	AnalysisLanguage:       analyzeLanguage,
	AnalysisSES:            analyzeSES,
	AnalysisSchool:         analyzeSchool,
}

// classify records the classification of v, or the insufficient-data
// sentinel when the statistic could not be computed. Only configuration
// errors (unknown metric kind) are returned.
func (a *analyzer) classify(kind bands.MetricKind, subject string, v float64, err error) error {
	if err != nil {
		if isDataError(err) {
			a.results = append(a.results, bands.Insufficient(kind, subject))
			a.notes = append(a.notes, fmt.Sprintf("%s %s: %v", kind, subject, err))
			return nil
		}
		return err
	}
	r, err := a.table.Classify(kind, subject, v)
	if err != nil {
		return err
	}
	a.results = append(a.results, r)
	return nil
}

func (a *analyzer) stat(subject, name string, v float64) {
	a.stats = append(a.stats, Statistic{Subject: subject, Name: name, Value: floatPtr(v)})
}

func isDataError(err error) bool {
	return errors.Is(err, stats.ErrInsufficientData) ||
		errors.Is(err, stats.ErrZeroVariance) ||
		errors.Is(err, stats.ErrInvalidReference)
}

func analyzeOverview(a *analyzer) error {
	for _, code := range a.tasks {
		task, _ := skills.Lookup(code)
		values := a.ds.Values(code)
		if d, err := stats.Describe(values); err == nil {
			a.stat(code, "n", float64(d.N))
			a.stat(code, "mean", d.Mean)
			a.stat(code, "sd", d.StdDev)
			a.stat(code, "min", d.Min)
			a.stat(code, "q1", d.Q1)
			a.stat(code, "median", d.Median)
			a.stat(code, "q3", d.Q3)
			a.stat(code, "max", d.Max)
		}
		pct, err := stats.MeanScorePct(values, task.MaxScore)
		if err := a.classify(bands.MeanScorePct, code, pct, err); err != nil {
			return err
		}
	}
	return nil
}

func analyzeZeroScores(a *analyzer) error {
	for _, code := range a.tasks {
		pct, err := stats.ZeroScorePct(a.ds.Values(code))
		if err := a.classify(bands.ZeroScorePct, code, pct, err); err != nil {
			return err
		}
	}
	return nil
}

func analyzeBenchmarks(a *analyzer) error {
	for _, code := range a.tasks {
		task, _ := skills.Lookup(code)
		values := a.ds.Values(code)
		if d, err := stats.Describe(values); err == nil {
			a.stat(code, "mean", d.Mean)
		}
		a.stat(code, "benchmark", task.Benchmark)
		pct, err := stats.BenchmarkPct(values, task.Benchmark)
		if err := a.classify(bands.BenchmarkPct, code, pct, err); err != nil {
			return err
		}
	}
	return nil
}

// analyzePupilStandards places every pupil on the task standard and
// classifies the median pupil.
func analyzePupilStandards(a *analyzer) error {
	for _, code := range a.tasks {
		values := stats.Clean(a.ds.Values(code))
		counts := map[bands.Label]int{}
		for _, v := range values {
			r, err := a.table.Classify(bands.PupilStandard, code, v)
			if err != nil {
				return err
			}
			counts[r.Label]++
		}
		for _, l := range []bands.Label{bands.LabelEmerging, bands.LabelDeveloping, bands.LabelMastery} {
			a.stat(code, string(l)+"_pupils", float64(counts[l]))
		}
		median := math.NaN()
		var err error
		if d, derr := stats.Describe(values); derr == nil {
			median = d.Median
		} else {
			err = derr
		}
		if err := a.classify(bands.PupilStandard, code, median, err); err != nil {
			return err
		}
	}
	return nil
}

func analyzeReliability(a *analyzer) error {
	batteries := batteryColumns(a.tasks)
	for _, assessment := range []string{skills.AssessmentEGRA, skills.AssessmentEGMA} {
		cols := batteries[assessment]
		if len(cols) < 2 {
			continue
		}
		if err := a.alpha(a.ds, assessment, cols); err != nil {
			return err
		}
		if !a.ds.Has(skills.ColumnLanguageTeaching) {
			continue
		}
		parts, names := a.ds.Split(skills.ColumnLanguageTeaching, skills.NormalizeLanguage)
		if len(names) < 2 {
			continue
		}
		for _, lang := range names {
			if err := a.alpha(parts[lang], assessment+"@"+lang, cols); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *analyzer) alpha(ds *dataset.Dataset, subject string, cols []string) error {
	res, err := stats.CronbachAlpha(ds.Matrix(cols))
	if err == nil {
		a.stat(subject, "items", float64(res.Items))
		a.stat(subject, "complete_rows", float64(res.Rows))
	}
	return a.classify(bands.CronbachAlpha, subject, res.Value, err)
}

func batteryColumns(tasks []string) map[string][]string {
	out := map[string][]string{}
	for _, code := range tasks {
		if t, ok := skills.Lookup(code); ok {
			out[t.Assessment] = append(out[t.Assessment], code)
		}
	}
	return out
}

func analyzeCorrelation(a *analyzer) error {
	for i := 0; i < len(a.tasks); i++ {
		for j := i + 1; j < len(a.tasks); j++ {
			if err := a.correlate(a.tasks[i], a.tasks[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// correlate classifies |r| and its p-value for one pair of columns. The
// signed coefficient is kept as a statistic.
func (a *analyzer) correlate(x, y string) error {
	subject := x + "~" + y
	c, err := stats.Pearson(a.ds.Values(x), a.ds.Values(y))
	if err == nil {
		a.stat(subject, "r", c.R)
		a.stat(subject, "n", float64(c.N))
	}
	if err := a.classify(bands.PearsonR, subject, math.Abs(c.R), err); err != nil {
		return err
	}
	return a.classify(bands.PValue, subject, c.P, err)
}

func analyzeGender(a *analyzer) error {
	return a.compareGroups(skills.ColumnGender, func(raw string) string {
		if g := skills.NormalizeGender(raw); g != skills.GenderUnknown {
			return g
		}
		return ""
	})
}

func analyzeLanguage(a *analyzer) error {
	return a.compareGroups(skills.ColumnLanguageTeaching, skills.NormalizeLanguage)
}

// compareGroups runs a Mann-Whitney test per task between the two largest
// groups of keyCol.
func (a *analyzer) compareGroups(keyCol string, key func(string) string) error {
	for _, code := range a.tasks {
		groups, names := a.ds.GroupBy(keyCol, code, key)
		first, second, ok := twoLargest(groups, names)
		if !ok {
			a.notes = append(a.notes, fmt.Sprintf("%s: at least two %s groups are required", code, keyCol))
			a.results = append(a.results, bands.Insufficient(bands.PValue, code), bands.Insufficient(bands.EffectSizeR, code))
			continue
		}
		if len(names) > 2 {
			a.notes = append(a.notes, fmt.Sprintf("%s: comparing %s and %s, the two largest of %d groups", code, first, second, len(names)))
		}
		for _, g := range []string{first, second} {
			if d, err := stats.Describe(groups[g]); err == nil {
				a.stat(code+"@"+g, "mean", d.Mean)
				a.stat(code+"@"+g, "n", float64(d.N))
			}
		}
		test, err := stats.MannWhitney(groups[first], groups[second])
		if err == nil {
			a.stat(code, "u", test.U)
			a.stat(code, "z", test.Z)
		}
		if err := a.classify(bands.PValue, code, test.P, err); err != nil {
			return err
		}
		if err := a.classify(bands.EffectSizeR, code, test.EffectSize, err); err != nil {
			return err
		}
	}
	return nil
}

func twoLargest(groups map[string][]float64, names []string) (string, string, bool) {
	if len(names) < 2 {
		return "", "", false
	}
	sorted := append([]string{}, names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(stats.Clean(groups[sorted[i]])) > len(stats.Clean(groups[sorted[j]]))
	})
	first, second := sorted[0], sorted[1]
	if first > second {
		first, second = second, first
	}
	return first, second, true
}

func analyzeSES(a *analyzer) error {
	for _, factor := range []string{skills.ColumnSES, skills.ColumnHomeSupport} {
		if !a.ds.Has(factor) {
			continue
		}
		for _, code := range a.tasks {
			if err := a.correlate(factor, code); err != nil {
				return err
			}
		}
	}
	return nil
}

// analyzeSchool averages, per school, the benchmark attainment of every task
// the school has data for.
func analyzeSchool(a *analyzer) error {
	parts, names := a.ds.Split(skills.ColumnSchool, nil)
	for _, school := range names {
		var pcts []float64
		for _, code := range a.tasks {
			task, _ := skills.Lookup(code)
			if pct, err := stats.BenchmarkPct(parts[school].Values(code), task.Benchmark); err == nil {
				pcts = append(pcts, pct)
			}
		}
		a.stat(school, "pupils", float64(parts[school].Len()))
		mean, err := meanOf(pcts)
		if err := a.classify(bands.BenchmarkPct, school, mean, err); err != nil {
			return err
		}
	}
	return nil
}

func meanOf(values []float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), stats.ErrInsufficientData
	}
	return stat.Mean(values, nil), nil
}
