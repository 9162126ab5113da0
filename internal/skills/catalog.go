package skills

import (
	"sort"
	"strings"
)

const (
	AssessmentEGRA = "egra"
	AssessmentEGMA = "egma"
)

const (
	FamilyDecoding       = "decoding"
	FamilyFluency        = "fluency"
	FamilyComprehension  = "comprehension"
	FamilyNumberSense    = "number_sense"
	FamilyOperations     = "operations"
	FamilyProblemSolving = "problem_solving"
)

const (
	ColumnSchool           = "school"
	ColumnGender           = "stgender"
	ColumnSES              = "ses"
	ColumnHomeSupport      = "home_support"
	ColumnLanguageTeaching = "language_teaching"
)

// Standard holds the pupil-level cutoffs of a task on the task's own score
// scale: scores up to EmergingMax are emerging, up to DevelopingMax
// developing, above that mastery. Tasks scored out of a few items carry the
// percent cutoffs (49/74, 29/59, ...) multiplied by MaxScore/100.
type Standard struct {
	EmergingMax   float64
	DevelopingMax float64
}

type Task struct {
	Code       string
	Assessment string
	Family     string
	Order      int
	Benchmark  float64
	MinScore   float64
	MaxScore   float64
	Standard   Standard
}

var tasks = map[string]Task{
	"clpm":           {Code: "clpm", Assessment: AssessmentEGRA, Family: FamilyDecoding, Order: 1, Benchmark: 40, MaxScore: 200, Standard: Standard{30, 43}},
	"phoneme":        {Code: "phoneme", Assessment: AssessmentEGRA, Family: FamilyDecoding, Order: 2, Benchmark: 8, MaxScore: 10, Standard: Standard{2.3, 4}},
	"sound_word":     {Code: "sound_word", Assessment: AssessmentEGRA, Family: FamilyDecoding, Order: 3, Benchmark: 18, MaxScore: 50, Standard: Standard{14.5, 29.5}},
	"cwpm":           {Code: "cwpm", Assessment: AssessmentEGRA, Family: FamilyFluency, Order: 4, Benchmark: 45, MaxScore: 200, Standard: Standard{16, 28}},
	"listening":      {Code: "listening", Assessment: AssessmentEGRA, Family: FamilyComprehension, Order: 5, Benchmark: 4, MaxScore: 5, Standard: Standard{2.45, 3.7}},
	"orf":            {Code: "orf", Assessment: AssessmentEGRA, Family: FamilyFluency, Order: 6, Benchmark: 45, MaxScore: 200, Standard: Standard{29, 49}},
	"comprehension":  {Code: "comprehension", Assessment: AssessmentEGRA, Family: FamilyComprehension, Order: 7, Benchmark: 4, MaxScore: 5, Standard: Standard{2.45, 3.7}},
	"number_id":      {Code: "number_id", Assessment: AssessmentEGMA, Family: FamilyNumberSense, Order: 8, Benchmark: 20, MaxScore: 20, Standard: Standard{9.6, 11}},
	"discrimin":      {Code: "discrimin", Assessment: AssessmentEGMA, Family: FamilyNumberSense, Order: 9, Benchmark: 8, MaxScore: 10, Standard: Standard{2.9, 5.9}},
	"missing_number": {Code: "missing_number", Assessment: AssessmentEGMA, Family: FamilyNumberSense, Order: 10, Benchmark: 8, MaxScore: 10, Standard: Standard{2.9, 5.9}},
	"addition":       {Code: "addition", Assessment: AssessmentEGMA, Family: FamilyOperations, Order: 11, Benchmark: 16, MaxScore: 20, Standard: Standard{5, 9}},
	"subtraction":    {Code: "subtraction", Assessment: AssessmentEGMA, Family: FamilyOperations, Order: 12, Benchmark: 14, MaxScore: 20, Standard: Standard{5, 9}},
	"problems":       {Code: "problems", Assessment: AssessmentEGMA, Family: FamilyProblemSolving, Order: 13, Benchmark: 4, MaxScore: 5, Standard: Standard{1.45, 2.95}},
}

var demographicColumns = []string{ColumnSchool, ColumnGender, ColumnSES, ColumnHomeSupport, ColumnLanguageTeaching}

func Lookup(code string) (Task, bool) {
	t, ok := tasks[normalizeCode(code)]
	return t, ok
}

func IsTask(code string) bool {
	_, ok := tasks[normalizeCode(code)]
	return ok
}

// Tasks returns every task in assessment order.
func Tasks() []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func TaskCodes(assessment string) []string {
	var out []string
	for _, t := range Tasks() {
		if assessment == "" || t.Assessment == assessment {
			out = append(out, t.Code)
		}
	}
	return out
}

func DemographicColumns() []string {
	return append([]string{}, demographicColumns...)
}

func IsDemographic(col string) bool {
	c := normalizeCode(col)
	for _, d := range demographicColumns {
		if d == c {
			return true
		}
	}
	return false
}

// Catalog resolves skill families for the aggregator.
type Catalog struct{}

func (Catalog) FamilyOf(subject string) (string, bool) {
	t, ok := Lookup(subject)
	if !ok {
		return "", false
	}
	return t.Family, true
}

// SortCodes orders task codes by assessment order, unknown codes last by name.
func SortCodes(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool {
		ti, iok := Lookup(codes[i])
		tj, jok := Lookup(codes[j])
		switch {
		case iok && jok:
			return ti.Order < tj.Order
		case iok != jok:
			return iok
		default:
			return codes[i] < codes[j]
		}
	})
}

func normalizeCode(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
