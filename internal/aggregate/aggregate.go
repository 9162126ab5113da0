package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/solardome/egra-insight/internal/bands"
	"github.com/solardome/egra-insight/internal/skills"
)

// FamilyResolver maps a subject to its skill family.
type FamilyResolver interface {
	FamilyOf(subject string) (string, bool)
}

// Summary is the grouped view of a set of results. MostSevere only counts
// results of alerting kinds, so a strong correlation never reads as a
// problem.
type Summary struct {
	Kinds        []KindSummary   `json:"kinds"`
	Families     []FamilyAverage `json:"families,omitempty"`
	Total        int             `json:"total"`
	MostSevere   int             `json:"most_severe"`
	Insufficient int             `json:"insufficient"`
}

type KindSummary struct {
	Kind    bands.MetricKind    `json:"kind"`
	Buckets []Bucket            `json:"buckets"`
	Counts  map[bands.Label]int `json:"counts"`
	Total   int                 `json:"total"`
	Worst   bands.Label         `json:"worst,omitempty"`
}

type Bucket struct {
	Label    bands.Label    `json:"label"`
	Severity int            `json:"severity"`
	Results  []bands.Result `json:"-"`
	Subjects []string       `json:"subjects"`
}

type FamilyAverage struct {
	Kind     bands.MetricKind `json:"kind"`
	Family   string           `json:"family"`
	Mean     float64          `json:"mean"`
	Count    int              `json:"count"`
	Subjects []string         `json:"subjects"`
}

func (s Summary) IsEmpty() bool {
	return s.Total == 0
}

// Kind returns the summary of one metric kind.
func (s Summary) Kind(kind bands.MetricKind) (KindSummary, bool) {
	for _, k := range s.Kinds {
		if k.Kind == kind {
			return k, true
		}
	}
	return KindSummary{}, false
}

// Bucket returns the bucket of label, if any result landed in it.
func (k KindSummary) Bucket(label bands.Label) (Bucket, bool) {
	for _, b := range k.Buckets {
		if b.Label == label {
			return b, true
		}
	}
	return Bucket{}, false
}

// Aggregate groups results using the built-in skill catalog for family
// averages.
func Aggregate(results []bands.Result) Summary {
	return AggregateWith(results, skills.Catalog{})
}

// AggregateWith buckets results by kind and band. Kinds are sorted by name,
// buckets run from most severe to least with insufficient data last, and
// results inside a bucket are sorted by subject. A nil resolver disables
// family averages.
func AggregateWith(results []bands.Result, resolver FamilyResolver) Summary {
	if len(results) == 0 {
		return Summary{}
	}
	sorted := append([]bands.Result{}, results...)
	sortResults(sorted)

	var summary Summary
	var current *KindSummary
	for _, r := range sorted {
		if current == nil || current.Kind != r.Kind {
			summary.Kinds = append(summary.Kinds, KindSummary{Kind: r.Kind, Counts: map[bands.Label]int{}})
			current = &summary.Kinds[len(summary.Kinds)-1]
		}
		current.Total++
		current.Counts[r.Label]++
		summary.Total++
		if r.Insufficient {
			summary.Insufficient++
		} else if r.NeedsAttention() {
			summary.MostSevere++
		}
		n := len(current.Buckets)
		if n == 0 || current.Buckets[n-1].Label != r.Label {
			current.Buckets = append(current.Buckets, Bucket{Label: r.Label, Severity: r.Severity})
			n++
		}
		b := &current.Buckets[n-1]
		b.Results = append(b.Results, r)
		b.Subjects = append(b.Subjects, r.Subject)
	}
	for i := range summary.Kinds {
		for _, b := range summary.Kinds[i].Buckets {
			if b.Label != bands.LabelInsufficientData {
				summary.Kinds[i].Worst = b.Label
				break
			}
		}
	}
	if resolver != nil {
		summary.Families = familyAverages(sorted, resolver)
	}
	return summary
}

func sortResults(rs []bands.Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Insufficient != b.Insufficient {
			return !a.Insufficient
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.Subject < b.Subject
	})
}

// familyKinds are the per-task level kinds. Averaging p-values, effect sizes
// or reliability coefficients across tasks has no meaning.
var familyKinds = map[bands.MetricKind]bool{
	bands.ZeroScorePct: true,
	bands.BenchmarkPct: true,
	bands.MeanScorePct: true,
}

func familyAverages(sorted []bands.Result, resolver FamilyResolver) []FamilyAverage {
	type key struct {
		kind   bands.MetricKind
		family string
	}
	sums := map[key]*FamilyAverage{}
	values := map[key][]float64{}
	var keys []key
	for _, r := range sorted {
		if r.Insufficient || !familyKinds[r.Kind] {
			continue
		}
		family, ok := resolver.FamilyOf(r.Subject)
		if !ok {
			continue
		}
		k := key{kind: r.Kind, family: family}
		fa, ok := sums[k]
		if !ok {
			fa = &FamilyAverage{Kind: r.Kind, Family: family}
			sums[k] = fa
			keys = append(keys, k)
		}
		values[k] = append(values[k], r.Value)
		fa.Count++
		fa.Subjects = append(fa.Subjects, r.Subject)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}
		return keys[i].family < keys[j].family
	})
	out := make([]FamilyAverage, 0, len(keys))
	for _, k := range keys {
		fa := sums[k]
		fa.Mean = stat.Mean(values[k], nil)
		sort.Strings(fa.Subjects)
		out = append(out, *fa)
	}
	return out
}
