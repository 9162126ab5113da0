package bands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solardome/egra-insight/internal/skills"
)

type scaleKey struct {
	kind    MetricKind
	subject string
}

// Table is an immutable set of validated scales.
type Table struct {
	scales map[scaleKey]Scale
}

var defaultTable = mustBuild(defaultScales())

// Default returns the built-in table.
func Default() *Table {
	return defaultTable
}

func mustBuild(scales []Scale) *Table {
	t, errs := NewTable(scales)
	if len(errs) > 0 {
		panic("invalid built-in threshold table:\n- " + strings.Join(errs, "\n- "))
	}
	return t
}

// NewTable assigns severities, validates every scale and returns the table
// together with the sorted validation errors. The table is nil when there
// are errors.
func NewTable(scales []Scale) (*Table, []string) {
	t := &Table{scales: make(map[scaleKey]Scale, len(scales))}
	var errs []string
	for _, s := range scales {
		key := scaleKey{kind: s.Kind, subject: normalizeSubject(s.Subject)}
		if _, dup := t.scales[key]; dup {
			errs = append(errs, fmt.Sprintf("%s: duplicate scale", scaleName(s)))
			continue
		}
		s.Subject = key.subject
		s.Bands = withSeverity(s.Direction, s.Bands)
		errs = append(errs, validateScale(s)...)
		t.scales[key] = s
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, errs
	}
	return t, nil
}

// Merge returns a new table where the given scales replace the receiver's
// scales with the same kind and subject.
func (t *Table) Merge(overrides []Scale) (*Table, []string) {
	replaced := map[scaleKey]bool{}
	for _, s := range overrides {
		replaced[scaleKey{kind: s.Kind, subject: normalizeSubject(s.Subject)}] = true
	}
	merged := append([]Scale{}, overrides...)
	for _, s := range t.Scales() {
		if !replaced[scaleKey{kind: s.Kind, subject: s.Subject}] {
			merged = append(merged, s)
		}
	}
	return NewTable(merged)
}

// Scales returns copies of all scales sorted by kind then subject.
func (t *Table) Scales() []Scale {
	out := make([]Scale, 0, len(t.scales))
	for _, s := range t.scales {
		s.Bands = append([]Band{}, s.Bands...)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

func (t *Table) Kinds() []MetricKind {
	seen := map[MetricKind]bool{}
	var out []MetricKind
	for k := range t.scales {
		if !seen[k.kind] {
			seen[k.kind] = true
			out = append(out, k.kind)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// BandsFor returns the bands of the kind's general scale in ascending value
// order.
func (t *Table) BandsFor(kind MetricKind) ([]Band, error) {
	s, err := t.scaleFor(kind, "")
	if err != nil {
		return nil, err
	}
	return append([]Band{}, s.Bands...), nil
}

// BandsForSubject prefers a scale scoped to subject and falls back to the
// kind's general scale.
func (t *Table) BandsForSubject(kind MetricKind, subject string) ([]Band, Direction, error) {
	s, err := t.scaleFor(kind, subject)
	if err != nil {
		return nil, "", err
	}
	return append([]Band{}, s.Bands...), s.Direction, nil
}

func (t *Table) scaleFor(kind MetricKind, subject string) (Scale, error) {
	if t != nil {
		if subject = normalizeSubject(subject); subject != "" {
			if s, ok := t.scales[scaleKey{kind: kind, subject: subject}]; ok {
				return s, nil
			}
		}
		if s, ok := t.scales[scaleKey{kind: kind}]; ok {
			return s, nil
		}
		if subjects := t.subjectsOf(kind); len(subjects) > 0 {
			return Scale{}, &SubjectRequiredError{Kind: kind, Subject: subject, Subjects: subjects}
		}
	}
	return Scale{}, &UnknownMetricKindError{Kind: kind, Subject: subject}
}

func (t *Table) subjectsOf(kind MetricKind) []string {
	var out []string
	for k := range t.scales {
		if k.kind == kind && k.subject != "" {
			out = append(out, k.subject)
		}
	}
	skills.SortCodes(out)
	return out
}

func BandsFor(kind MetricKind) ([]Band, error) {
	return defaultTable.BandsFor(kind)
}

// withSeverity numbers bands so that 0 is the most severe.
func withSeverity(dir Direction, in []Band) []Band {
	out := append([]Band{}, in...)
	n := len(out)
	for i := range out {
		if dir == HigherIsWorse {
			out[i].Severity = n - 1 - i
		} else {
			out[i].Severity = i
		}
	}
	return out
}

func normalizeSubject(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func scaleName(s Scale) string {
	if s.Subject != "" {
		return string(s.Kind) + "[" + s.Subject + "]"
	}
	return string(s.Kind)
}

func defaultScales() []Scale {
	scales := []Scale{
		{
			Kind:      ZeroScorePct,
			Direction: HigherIsWorse,
			Bands: []Band{
				{Label: LabelAcceptable, Lower: negInf, Upper: 10},
				{Label: LabelWatch, Lower: 10, Upper: 20, Recommendation: "Continue regular instruction while monitoring progress."},
				{Label: LabelConcerning, Lower: 20, Upper: 30, Recommendation: "Strengthen instruction and increase practice time for this skill."},
				{Label: LabelCritical, Lower: 30, Upper: posInf, Recommendation: "Provide intensive small-group intervention immediately."},
			},
		},
		{
			Kind:      CronbachAlpha,
			Direction: HigherIsBetter,
			Bands: []Band{
				{Label: LabelUnacceptable, Lower: negInf, Upper: 0.5, Recommendation: "Do not interpret the combined score; revise the instrument."},
				{Label: LabelPoor, Lower: 0.5, Upper: 0.6, Recommendation: "Review items with low item-total correlation."},
				{Label: LabelQuestionable, Lower: 0.6, Upper: 0.7, Recommendation: "Interpret the combined score with caution."},
				{Label: LabelAcceptable, Lower: 0.7, Upper: 0.8},
				{Label: LabelGood, Lower: 0.8, Upper: 0.9},
				{Label: LabelExcellent, Lower: 0.9, Upper: posInf},
			},
		},
		{
			Kind:      BenchmarkPct,
			Direction: HigherIsBetter,
			Bands: []Band{
				{Label: LabelCritical, Lower: negInf, Upper: 70, Recommendation: "Performance is far below the international benchmark; prioritise remediation."},
				{Label: LabelConcerning, Lower: 70, Upper: 85, Recommendation: "Performance is below the benchmark; reinforce instruction."},
				{Label: LabelApproaching, Lower: 85, Upper: 100, Recommendation: "Performance is close to the benchmark; maintain targeted practice."},
				{Label: LabelMeeting, Lower: 100, Upper: posInf},
			},
		},
		{
			Kind:      PearsonR,
			Direction: HigherIsBetter,
			Bands: []Band{
				{Label: LabelVeryWeak, Lower: negInf, Upper: 0.1},
				{Label: LabelWeak, Lower: 0.1, Upper: 0.3},
				{Label: LabelModerate, Lower: 0.3, Upper: 0.5},
				{Label: LabelStrong, Lower: 0.5, Upper: 0.7},
				{Label: LabelVeryStrong, Lower: 0.7, Upper: posInf},
			},
		},
		{
			Kind:      PValue,
			Direction: HigherIsBetter,
			Bands: []Band{
				{Label: LabelHighlySignificant, Lower: negInf, Upper: 0.01, Recommendation: "The difference is very unlikely to be due to chance; investigate its causes."},
				{Label: LabelSignificant, Lower: 0.01, Upper: 0.05, Recommendation: "The difference is statistically significant; monitor it."},
				{Label: LabelNotSignificant, Lower: 0.05, Upper: posInf},
			},
		},
		{
			Kind:      EffectSizeR,
			Direction: HigherIsWorse,
			Bands: []Band{
				{Label: LabelNegligible, Lower: negInf, Upper: 0.1},
				{Label: LabelSmall, Lower: 0.1, Upper: 0.3},
				{Label: LabelMedium, Lower: 0.3, Upper: 0.5, Recommendation: "The gap between groups is noticeable in practice."},
				{Label: LabelLarge, Lower: 0.5, Upper: posInf, Recommendation: "The gap between groups is large; plan targeted support."},
			},
		},
		{
			Kind:      MeanScorePct,
			Direction: HigherIsBetter,
			Bands: []Band{
				{Label: LabelVeryLow, Lower: negInf, Upper: 30, Recommendation: "Most pupils have not acquired this skill; revisit foundations."},
				{Label: LabelLow, Lower: 30, Upper: 50, Recommendation: "Reinforce this skill with additional guided practice."},
				{Label: LabelAverage, Lower: 50, Upper: 70},
				{Label: LabelGood, Lower: 70, Upper: 85},
				{Label: LabelExcellent, Lower: 85, Upper: posInf},
			},
		},
	}
	for _, task := range skills.Tasks() {
		scales = append(scales, Scale{
			Kind:      PupilStandard,
			Subject:   task.Code,
			Direction: HigherIsBetter,
			Bands: []Band{
				{Label: LabelEmerging, Lower: negInf, Upper: task.Standard.EmergingMax, Recommendation: "Typical pupils have not yet reached the developing level."},
				{Label: LabelDeveloping, Lower: task.Standard.EmergingMax, Upper: task.Standard.DevelopingMax},
				{Label: LabelMastery, Lower: task.Standard.DevelopingMax, Upper: posInf},
			},
		})
	}
	return scales
}
